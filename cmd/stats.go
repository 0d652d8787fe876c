package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bizmatch/match-cli/internal/monitoring"
)

var statsHours int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and match-run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := monitoring.NewCollector(st).Collect(ctx, statsHours)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Active candidates:\t%d\n", snap.CandidatesActive)
		_, _ = fmt.Fprintf(w, "Duplicate candidates:\t%d\n", snap.CandidatesDuplicate)
		_, _ = fmt.Fprintf(w, "Active programs:\t%d\n", snap.ProgramsActive)
		_, _ = fmt.Fprintf(w, "  Expiring within 7d:\t%d\n", snap.ProgramsExpiringSoon)
		_, _ = fmt.Fprintf(w, "  No deadline:\t%d\n", snap.ProgramsNoDeadline)
		_, _ = fmt.Fprintf(w, "Match runs (last %dh):\t%d\n", snap.LookbackHours, snap.RunsRecent)
		_, _ = fmt.Fprintf(w, "  Results produced:\t%d\n", snap.ResultsRecent)
		_, _ = fmt.Fprintf(w, "  Empty runs:\t%d\n", snap.EmptyRunsCount)
		if snap.AvgTopScore > 0 {
			_, _ = fmt.Fprintf(w, "  Avg top score:\t%.1f\n", snap.AvgTopScore)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsHours, "hours", 24, "lookback window for run statistics")
	rootCmd.AddCommand(statsCmd)
}
