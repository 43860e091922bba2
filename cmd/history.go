package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsched/core/dispatch/history"
)

var historyTrain int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List dispatched trains",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyTrain, "train", 0, "only show this train")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Query(cmd.Context(), history.Query{TrainID: historyTrain})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAIN\tNAME\tSCHEDULE\tDISPATCHED\tDEPARTURE\tARRIVAL\tEVENTS")
	for _, r := range recs {
		var dep, arr string
		if n := len(r.Events); n > 0 {
			dep = r.Events[0].Interval.Start.UTC().Format(time.RFC3339)
			arr = r.Events[n-1].Interval.End.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%d\n", r.TrainID, r.TrainName, r.ScheduleID,
			r.Timestamp.UTC().Format(time.RFC3339), dep, arr, len(r.Events))
	}
	return tw.Flush()
}
