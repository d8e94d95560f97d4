// Package cli holds the landlocked command tree.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"landlocked/internal/platform/config"
	"landlocked/internal/platform/logger"
)

var configPath string

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(MigrateCmd)
	RootCmd.AddCommand(KeygenCmd)
	RootCmd.AddCommand(SignCmd)
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML, JSON or TOML config file")
}

var RootCmd = &cobra.Command{
	Use:           "landlocked",
	Short:         "Land title registry node",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.Log), nil
}
