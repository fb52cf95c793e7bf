package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/salvo/packages/history"
)

var (
	historyDBFlag    string
	historyLimitFlag int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recorded results",
	Long: `Show the most recent results recorded with "salvo run --record".

Examples:
  salvo history --db runs.db
  salvo history --db runs.db --limit 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDBFlag == "" {
			return fmt.Errorf("--db is required")
		}

		rec, err := history.Open(historyDBFlag)
		if err != nil {
			return err
		}
		defer rec.Close()

		entries, err := rec.Recent(historyLimitFlag)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recorded results")
			return nil
		}

		for _, e := range entries {
			status := fmt.Sprintf("%d", e.StatusCode)
			if e.Error != "" {
				status = "ERR"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-4s %-30s %s %s (%v, %d attempts)\n",
				e.RecordedAt.Format("2006-01-02 15:04:05"),
				status, e.SpecName, e.Method, e.URL, e.Elapsed, e.Attempts)
			if e.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", e.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDBFlag, "db", getEnvString("SALVO_RECORD", ""), "Path to the history database (env: SALVO_RECORD)")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum entries to show")
}
