package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		method     string
		userAgent  string
		suspicious bool
	}{
		{"index", "/", http.MethodGet, "Mozilla/5.0", false},
		{"history filter", "/ui/history?q=yaz%C4%B1c%C4%B1&region=IZMIR", http.MethodGet, "Mozilla/5.0", false},
		{"dotenv probe", "/.env", http.MethodGet, "Mozilla/5.0", true},
		{"traversal in query", "/ui/history?q=../../etc/passwd", http.MethodGet, "Mozilla/5.0", true},
		{"scanner agent", "/", http.MethodGet, "sqlmap/1.7", true},
		{"trace method", "/", "TRACE", "Mozilla/5.0", true},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.userAgent)
			reason, got := d.Inspect(r)
			if got != tt.suspicious {
				t.Fatalf("Inspect = %v (%s), want %v", got, reason, tt.suspicious)
			}
		})
	}
	if d.GetMetrics().SuspiciousRequests != 4 {
		t.Fatalf("expected 4 suspicious requests counted, got %d", d.GetMetrics().SuspiciousRequests)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5000"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "203.0.113.7" {
		t.Fatalf("untrusted peer must not be overridden, got %s", got)
	}

	r.RemoteAddr = "10.0.0.2:5000"
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Fatalf("trusted proxy should forward client IP, got %s", got)
	}

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.9")
	if got := d.ExtractClientIP(r); got != "198.51.100.9" {
		t.Fatalf("expected X-Real-IP, got %s", got)
	}
}

func TestHeadersMiddlewarePerPathCSP(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("Content-Security-Policy"); got != DefaultCSP {
		t.Fatalf("unexpected index CSP: %s", got)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" || rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected headers: %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/print/abc", nil))
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "script-src 'unsafe-inline'") {
		t.Fatalf("print window needs inline script, got %s", got)
	}
}
