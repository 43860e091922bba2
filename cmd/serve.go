package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsched/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Plan the scenario and serve schedules, history and metrics until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	logg := logger.New("serve-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()
	plan, err := svc.Plan(ctx)
	if err != nil {
		return err
	}
	logg.Infof("schedule %d ready with %d events", plan.Schedule.ID, plan.Schedule.Len())
	<-ctx.Done()
	return nil
}
