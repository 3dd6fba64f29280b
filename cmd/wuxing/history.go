package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int // --limit

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently archived evaluations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", historyLimit)
		}
		db, err := openArchive()
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()

		list, err := db.RecentEvaluations(historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No evaluations archived yet.")
			return nil
		}
		for _, e := range list {
			fmt.Fprintf(out, "%s  %-14s  %-24s  %-4s %-9s useful %s\n",
				e.ID, humanize.Time(e.Created()), e.ChartLabel, e.DayMaster, e.Strength, e.Useful)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of evaluations to show")
}
