// Package ctl implements etiketctl, the operator command line of the
// workstation. It drives the same workstation session, export encoder and
// label history as the web server.
package ctl

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"etiket/internal/backend"
	"etiket/internal/cli"
	"etiket/internal/config"
	applog "etiket/internal/log"
)

// SessionID names the workstation session of a command line run.
const SessionID = "etiketctl"

// NewRootCmd builds the etiketctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "etiketctl",
		Short: "etiketctl - daily export and label workstation from the terminal",
		Long: `etiketctl exports the daily summary, prints shipping labels to HTML files
and manages the shared label history.

Configuration comes from the same environment variables (and .env file)
as the etiket server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or info)")

	root.AddCommand(ExportCmd(), HistoryCmd(), LabelCmd())
	return root
}

// Execute runs etiketctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// app is what a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cli.LoadEnvFile()

	level := os.Getenv("LOG_LEVEL")
	if f := cmd.Flag("log-level"); f != nil && f.Value.String() != "" {
		level = f.Value.String()
	}
	logger := cli.SetupLogger(cmd.ErrOrStderr(), level, applog.ComponentCLI)

	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// openHistory connects the configured history backend. publish enables the
// label-printed events so the spreadsheet mirror sees labels printed here.
func (a *app) openHistory(ctx context.Context, publish bool) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(a.cfg, publish)
	if err != nil {
		return nil, fmt.Errorf("backend configuration: %w", err)
	}
	if backendCfg.Type == backend.MemoryBackend {
		a.logger.Warn("History backend is memory; labels are not kept after this command",
			"hint", "set HISTORY_BACKEND=sqlite")
	}
	hist, err := backend.NewFactory(a.logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return hist, nil
}

func (a *app) closeHistory(hist *backend.BackendResult) {
	if err := hist.Cleanup(); err != nil {
		a.logger.Error("History backend cleanup error", "error", err)
	}
}
