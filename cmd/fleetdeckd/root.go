package main

import (
	"github.com/spf13/cobra"

	"github.com/fleetdeck/fleetdeck/internal/config"
	"github.com/fleetdeck/fleetdeck/internal/logging"
)

var (
	configPath string
	globalCfg  config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fleetdeckd",
	Short: "Operational console for a fleet of container-based services",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		globalCfg = cfg
		logger := logging.Init(cfg.Logging)
		cmd.SetContext(logging.WithContext(cmd.Context(), logger))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to fleetdeckd config YAML")
	rootCmd.AddCommand(serveCmd, versionCmd)
}
