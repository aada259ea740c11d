package ctl

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"etiket/internal/config"
	"etiket/internal/core"
	applog "etiket/internal/log"
	"etiket/internal/printing"
	"etiket/internal/workstation"
	appweb "etiket/web"
)

// LabelCmd returns the label parent command
func LabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label identifiers and printing",
	}
	cmd.AddCommand(LabelIDCmd(), LabelPrintCmd())
	return cmd
}

// LabelIDCmd returns the label id subcommand
func LabelIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: "Show the identifier a label would get",
		Long: `Show the identifier of the label printed on a date with a sequence number.

Examples:
  etiketctl label id --date=2024-03-05 --seq=12
`,
		Args: cobra.NoArgs,
		RunE: runLabelID,
	}

	cmd.Flags().String("date", "", "Label date as YYYY-MM-DD")
	cmd.Flags().Int("seq", 1, "Sequence number")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runLabelID(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	seq, _ := cmd.Flags().GetInt("seq")

	if _, err := core.ParseDay(date); err != nil {
		return fmt.Errorf("label date %q: %w", date, err)
	}
	if seq < 1 {
		return fmt.Errorf("sequence must be at least 1, got %d", seq)
	}
	fmt.Fprintln(cmd.OutOrStdout(), core.LabelIdentifier(date, seq))
	return nil
}

// LabelPrintCmd returns the label print subcommand
func LabelPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print a label to an HTML file and record it in the history",
		Long: `Render the print document of a label into {dir}/{identifier}.html and
append the label to the shared history. When AMQP is configured the
label-printed event is published for the spreadsheet mirror.

Examples:
  etiketctl label print --region=ankara --receiver="Ayşe Yılmaz" \
    --product="Dizüstü Bilgisayar" --asset=DMR-0042

  # Continue a numbering started elsewhere
  etiketctl label print --date=2024-03-05 --seq=13 --region=izmir \
    --receiver="Mehmet Demir" --product=Monitör --asset=DMR-0107 --dir=./labels
`,
		Args: cobra.NoArgs,
		RunE: runLabelPrint,
	}

	cmd.Flags().String("date", "", "Label date as YYYY-MM-DD (default today)")
	cmd.Flags().String("region", "", "Receiver region code")
	cmd.Flags().String("receiver", "", "Receiver name")
	cmd.Flags().String("product", "", "Product name")
	cmd.Flags().String("asset", "", "Asset number")
	cmd.Flags().String("note", "", "Dispatch note (optional)")
	cmd.Flags().Int("seq", 1, "Sequence number of the label")
	cmd.Flags().String("dir", "labels", "Directory the print document is written to")

	return cmd
}

func runLabelPrint(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	profile, err := config.LoadLabelProfile(a.cfg.LabelProfileFile)
	if err != nil {
		return err
	}
	tmpl, err := appweb.ParseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	hist, err := a.openHistory(ctx, true)
	if err != nil {
		return err
	}
	defer a.closeHistory(hist)

	seq, _ := cmd.Flags().GetInt("seq")
	if seq < 1 {
		return fmt.Errorf("sequence must be at least 1, got %d", seq)
	}
	session := workstation.NewSession(SessionID, hist.History, workstation.Options{
		ExportPrefix:  a.cfg.ExportFilePrefix,
		Logger:        a.logger.WithComponent(applog.ComponentWorkstation).Slog(),
		FirstSequence: seq,
		Regions:       profile.Regions,
	})

	draft := session.Draft()
	if cmd.Flags().Changed("date") {
		draft.Date, _ = cmd.Flags().GetString("date")
	}
	region, _ := cmd.Flags().GetString("region")
	draft.ReceiverRegion = core.NormalizeRegion(region)
	draft.ReceiverName, _ = cmd.Flags().GetString("receiver")
	draft.ProductName, _ = cmd.Flags().GetString("product")
	draft.AssetNumber, _ = cmd.Flags().GetString("asset")
	draft.DispatchNote, _ = cmd.Flags().GetString("note")
	session.UpdateDraft(draft)

	dir, _ := cmd.Flags().GetString("dir")
	presenter := &printing.FilePresenter{
		Renderer: printing.NewRenderer(tmpl, profile),
		Dir:      dir,
	}

	entry, err := session.Print(ctx, presenter)
	var missing *core.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return missing
	case errors.Is(err, workstation.ErrHistoryNotSaved):
		a.logger.Warn("Label printed but not recorded in history",
			applog.FieldLabelID, entry.LabelIdentifier, "error", err)
	case err != nil:
		return err
	}

	a.logger.Info("Label printed",
		applog.FieldLabelID, entry.LabelIdentifier,
		applog.FieldRegion, string(entry.ReceiverRegion),
		"path", presenter.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entry.LabelIdentifier, presenter.Path)
	return nil
}
