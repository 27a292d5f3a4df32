package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "screenpick",
	Short: "Personalized movie and series recommendations",
	Long:  "Builds a taste profile from your watch history, queries the title catalog within its rate limits, and ranks candidates by genre, era, quality, and talent affinity.",
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
