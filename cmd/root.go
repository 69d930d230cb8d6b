package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pvs-reporter",
	Short: "Plan-versus-schedule production reporting",
	Long:  "Reconciles planned quantities from planning spreadsheets against produced quantities from the shop-floor database, per line and per day, week and month.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
