package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	wintrades "github.com/zakwanzambri/wintradesgo-sub004"
	"github.com/zakwanzambri/wintradesgo-sub004/config"
	"github.com/zakwanzambri/wintradesgo-sub004/engine"
	"github.com/zakwanzambri/wintradesgo-sub004/logger"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dbcore",
		Short:         "Inspect and exercise the pooled, cached data-access core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "path to a YAML config file (WINTRADES_ env vars override it)")

	cmd.AddCommand(
		newPingCommand(),
		newStatsCommand(),
		newBenchCommand(),
		newMetricsCommand(),
	)
	return cmd
}

// loadConfig reads the config named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// openEngine loads config and opens an engine; the caller closes it.
func openEngine(cmd *cobra.Command) (*engine.Engine, *config.Config, zerolog.Logger, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, log, err
	}
	e, err := wintrades.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, log, err
	}
	return e, cfg, log, nil
}
