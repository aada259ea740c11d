package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"etiket/internal/backend"
	"etiket/internal/cli"
	apphttp "etiket/internal/http"
	applog "etiket/internal/log"
	"etiket/internal/printing"
	"etiket/internal/workstation"
	appweb "etiket/web"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.MustLoadConfig(logger)
	profile := cli.MustLoadLabelProfile(logger, cfg.LabelProfileFile)

	backendCfg, err := backend.FromAppConfig(cfg, true)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	hist, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize history backend", "error", err, "backend", cfg.HistoryBackend)
		os.Exit(1)
	}

	tmpl, err := appweb.ParseTemplates()
	if err != nil {
		logger.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}
	renderer := printing.NewRenderer(tmpl, profile)

	sessions := workstation.NewManager(hist.History, cfg.MaxSessions, cfg.SessionTTL, workstation.Options{
		ExportPrefix: cfg.ExportFilePrefix,
		Logger:       logger.WithComponent(applog.ComponentWorkstation).Slog(),
		Regions:      profile.Regions,
	})
	windows := printing.NewRegistry(renderer, cfg.MaxSessions, cfg.PrintWindowTTL,
		logger.WithComponent(applog.ComponentPrinting).Slog())

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions:      sessions,
		Windows:       windows,
		Renderer:      renderer,
		History:       hist.History,
		Ready:         hist.Ready,
		Logger:        logger,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.CookieSecure,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting etiket server",
			"port", cfg.Port,
			"backend", cfg.HistoryBackend,
			"history_entries", hist.Store.Len(),
			"regions", len(profile.Regions))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := hist.Cleanup(); cerr != nil {
		logger.Error("History backend cleanup error", "error", cerr)
	}
	if err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
