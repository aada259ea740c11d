package ctl

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"etiket/internal/core"
	applog "etiket/internal/log"
)

// HistoryCmd returns the history parent command
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the label history",
	}
	cmd.AddCommand(HistoryListCmd(), HistoryClearCmd())
	return cmd
}

// HistoryListCmd returns the history list subcommand
func HistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List printed labels, newest first",
		Long: `List printed labels, newest first, with the same search and region
filter as the history panel.

Examples:
  etiketctl history list
  etiketctl history list --search=dizüstü --region=ankara
  etiketctl history list --json
`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	cmd.Flags().String("search", "", "Case-insensitive text to look for in any field")
	cmd.Flags().String("region", "", "Receiver region code")
	cmd.Flags().Bool("json", false, "Output in JSON format")

	return cmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	hist, err := a.openHistory(ctx, false)
	if err != nil {
		return err
	}
	defer a.closeHistory(hist)

	search, _ := cmd.Flags().GetString("search")
	region, _ := cmd.Flags().GetString("region")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	entries := core.FilterHistory(hist.History.Load(ctx), search, region)
	a.logger.Debug("History listed", applog.FieldOperation, applog.OpList, "matches", len(entries))

	if jsonOutput {
		if entries == nil {
			entries = []core.HistoryEntry{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No labels found.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tREGION\tRECEIVER\tPRODUCT\tASSET\tPRINTED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.LabelIdentifier, e.Date, e.ReceiverRegion, e.ReceiverName,
			e.ProductName, e.AssetNumber, e.PrintedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// HistoryClearCmd returns the history clear subcommand
func HistoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every label from the history",
		Long: `Remove every label from the history. There is no per-label delete.

Examples:
  etiketctl history clear --yes
`,
		Args: cobra.NoArgs,
		RunE: runHistoryClear,
	}
	cmd.Flags().Bool("yes", false, "Confirm the clear")
	return cmd
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	hist, err := a.openHistory(ctx, false)
	if err != nil {
		return err
	}
	defer a.closeHistory(hist)

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("refusing to clear %d labels without --yes", len(hist.History.Load(ctx)))
	}
	count, err := hist.History.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	a.logger.Info("History cleared", applog.FieldOperation, applog.OpClear, "removed", count)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d labels.\n", count)
	return nil
}
