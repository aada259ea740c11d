package ctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"etiket/internal/export"
	applog "etiket/internal/log"
	"etiket/internal/workstation"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the daily summary of a date to a file",
		Long: `Write the daily summary of a date as CSV or XLSX, named the same way
the browser download is named.

Examples:
  # Today's summary as CSV in the current directory
  etiketctl export

  # A given day as an Excel workbook
  etiketctl export --date=2024-03-05 --format=xlsx --out=./exports
`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().String("date", "", "Export date as YYYY-MM-DD (default today)")
	cmd.Flags().String("format", string(export.FormatCSV), "File format: csv or xlsx")
	cmd.Flags().String("out", ".", "Directory the file is written to")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	// Export never touches the history.
	session := workstation.NewSession(SessionID, nil, workstation.Options{
		ExportPrefix: a.cfg.ExportFilePrefix,
		Logger:       a.logger.WithComponent(applog.ComponentExport).Slog(),
	})
	if cmd.Flags().Changed("date") {
		date, _ := cmd.Flags().GetString("date")
		if err := session.SetDate(date); err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("out")
	dl := &fileDownloader{dir: out}
	art, err := session.Export(ctx, format, dl)
	if err != nil {
		return fmt.Errorf("export %s: %w", session.Date().ISO(), err)
	}

	a.logger.Info("Export written",
		applog.FieldExportDate, session.Date().ISO(),
		applog.FieldExportFormat, string(format),
		"path", dl.path)
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", dl.path, len(art.Body))
	return nil
}

// fileDownloader delivers an export into a directory.
type fileDownloader struct {
	dir  string
	path string
}

var _ workstation.Downloader = (*fileDownloader)(nil)

func (d *fileDownloader) Deliver(_ context.Context, a export.Artifact) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(d.dir, a.Filename)
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	d.path = path
	return nil
}
