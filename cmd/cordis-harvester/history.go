// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cordis-harvester/internal/collect"
)

var historyCmd = &cobra.Command{
	Use:   "history [batch-id]",
	Short: "Show past collection batches from the ledger",
	Long: `History lists past collection batches recorded in the ledger, newest
first. With a batch ID it shows that batch's per-query outcomes instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("output", "", "collection output directory holding the ledger (default collected)")
	historyCmd.Flags().Int("limit", 0, "maximum batches to list (default 20)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	outputDir := stringOpt(cmd, "output", "collect.output_dir", defaultOutputDir)

	ledger, err := collect.OpenLedger(outputDir)
	if err != nil {
		return err
	}
	defer ledger.Close()

	if len(args) == 1 {
		outcomes, err := ledger.Outcomes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return fmt.Errorf("no batch %q in ledger", args[0])
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "QUERY\tSTATUS\tSCORE\tPROJECT\tDETAIL")
		for _, o := range outcomes {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.Query, o.Status, o.Score, o.ProjectID, o.Detail)
		}
		return tw.Flush()
	}

	limit, _ := cmd.Flags().GetInt("limit")
	batches, err := ledger.History(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Fprintln(os.Stdout, "No batches recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tSTARTED\tDURATION\tTOTAL\tSUCCEEDED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			b.BatchID, b.StartedAt.Format("2006-01-02 15:04:05"),
			b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond), b.Total, b.Succeeded)
	}
	return tw.Flush()
}
