package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railsched/app"
	"github.com/kilianp07/railsched/config"
	"github.com/kilianp07/railsched/core/scenario"
)

var (
	cfgPath      string
	scenarioPath string
)

var rootCmd = &cobra.Command{
	Use:           "railsched",
	Short:         "Conflict-free train movement scheduler",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON); environment only when empty")
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "scenario.yaml", "scenario file with network and trains")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService loads the configuration and scenario and wires the service.
func newService(ctx context.Context, opts ...app.Option) (*app.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, sc, opts...)
}
