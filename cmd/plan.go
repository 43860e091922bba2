package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/infra/logger"
	"github.com/kilianp07/railsched/pkg/export"
)

var (
	planFormat string
	planOut    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a schedule for every train of the scenario",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "json", "output format: json or csv")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "output file, stdout when empty")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	logg := logger.New("plan-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	plan, err := svc.Plan(ctx)
	if err != nil {
		return err
	}
	for id, cause := range plan.Excluded {
		logg.Warnf("train %d excluded: %v", id, cause)
	}
	rep := schedule.Summarize(plan.Schedule)
	logg.Infof("schedule %d: %d events, %d conflicts, total lost %s",
		plan.Schedule.ID, plan.Schedule.Len(), rep.Conflicts, rep.TotalLost)

	var w io.Writer = cmd.OutOrStdout()
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := export.Write(w, planFormat, plan.Schedule); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
