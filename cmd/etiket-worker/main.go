package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"etiket/internal/amqp"
	"etiket/internal/backend"
	"etiket/internal/cli"
	applog "etiket/internal/log"
	"etiket/internal/services"
	"etiket/internal/sheets"
	gsheet "etiket/internal/sheets/google"
	memsheets "etiket/internal/sheets/memory"
	"etiket/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting etiket-worker")

	cfg := cli.MustLoadConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var mirror sheets.LabelMirror
	if cfg.MirrorBackend == "memory" {
		mirror = memsheets.New()
		logger.Warn("Using in-memory label mirror; rows are lost on exit")
	} else {
		gs, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = gs
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleLabelsSheetName)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	labelWorker := worker.NewLabelMirrorWorker(mirror, logger.WithComponent(applog.ComponentSheets).Slog())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeLabelPrinted(gctx, labelWorker.HandleLabelPrinted)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// The reconciler needs the history the server writes, which only the
	// SQLite backend shares across processes.
	if cfg.HistoryBackend == string(backend.SQLiteBackend) {
		hist, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backend.Config{
			Type:         backend.SQLiteBackend,
			HistoryKey:   cfg.HistoryKey,
			SQLiteDBPath: cfg.SQLiteDBPath,
		})
		if err != nil {
			logger.Error("Failed to open history for reconciliation", "error", err)
			os.Exit(1)
		}
		defer hist.Cleanup()

		reconciler := services.NewMirrorReconciler(hist.Store, mirror, services.ReconcilerConfig{
			PollInterval: cfg.ReconcileInterval,
			BatchSize:    cfg.ReconcileBatchSize,
		})
		g.Go(func() error {
			if err := reconciler.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return reconciler.Stop(stopCtx)
		})
	} else {
		logger.Info("Skipping reconciliation: history is not shared", "backend", cfg.HistoryBackend)
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker shutdown complete")
}
