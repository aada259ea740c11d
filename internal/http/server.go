package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"etiket/internal/cache"
	"etiket/internal/history"
	applog "etiket/internal/log"
	"etiket/internal/middleware/ratelimit"
	"etiket/internal/middleware/security"
	"etiket/internal/middleware/trace"
	"etiket/internal/printing"
	"etiket/internal/workstation"
	appweb "etiket/web"
)

// Deps are the collaborators of the workstation server.
type Deps struct {
	Sessions *workstation.Manager
	Windows  *printing.Registry
	Renderer *printing.Renderer
	// History is read for the unfiltered history size.
	History history.Repository
	// Ready checks the persistence backend; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger

	SessionTTL    time.Duration
	SecureCookies bool
	// CleanupInterval is how often expired sessions and windows are swept.
	CleanupInterval time.Duration
}

// Server serves the daily export and label workstation.
type Server struct {
	http.Server
	deps      Deps
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.Windows == nil || deps.Renderer == nil || deps.History == nil {
		return nil, errors.New("http server: sessions, windows, renderer and history are required")
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 12 * time.Hour
	}
	if deps.CleanupInterval <= 0 {
		deps.CleanupInterval = 10 * time.Minute
	}

	tmpl, err := appweb.ParseTemplates()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		deps:      deps,
		templates: tmpl,
		logger:    logger,
		events:    applog.NewStructuredLogger(deps.Logger),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:  security.NewDetector(),
		caches:    cache.NewManager(logger.Slog()),
		startedAt: time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.caches.Register("sessions", deps.Sessions.Sessions())
	s.caches.Register("print_windows", deps.Windows.Windows())
	s.caches.StartCleanup(deps.CleanupInterval)

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/export-preview", s.handleExportPreview)
	mux.Handle("/export", security.NoStore(http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("/ui/label/preview", s.handleLabelPreview)
	mux.HandleFunc("/labels/print", s.handlePrint)
	mux.Handle("/print/", security.NoStore(http.HandlerFunc(s.handlePrintWindow)))
	mux.HandleFunc("/ui/history", s.handleHistory)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.withProbeLogging(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops background sweeps and the rate limiter, then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withProbeLogging logs requests that look like scans. They are still
// served; the mux answers 404 for anything unknown.
func (s *Server) withProbeLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, bad := s.detector.Inspect(r); bad {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				"path", r.URL.Path,
				"reason", reason)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r), "path", r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Çok fazla istek. Lütfen biraz sonra tekrar deneyin.").
		Banner(NotificationError, "Çok fazla istek").
		Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the history backend and reports cache sizes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{"templates": "ok"}

	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			checks["history"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["history"] = "ok"
		}
	} else {
		checks["history"] = "ok"
	}

	checks["sessions"] = s.deps.Sessions.Len()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.Rejected(),
	}
	tm := s.tracer.GetMetrics()
	checks["requests"] = map[string]any{
		"total":         tm.TotalRequests,
		"client_errors": tm.ClientErrors,
		"server_errors": tm.ServerErrors,
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
