package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsched/infra/logger"
)

var dispatchTrain int

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Plan the scenario and commit one train",
	RunE:  runDispatch,
}

func init() {
	dispatchCmd.Flags().IntVar(&dispatchTrain, "train", 0, "id of the train to commit")
	_ = dispatchCmd.MarkFlagRequired("train")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	logg := logger.New("dispatch-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	if _, err := svc.Plan(ctx); err != nil {
		return err
	}
	rec, err := svc.Dispatch(ctx, dispatchTrain)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
