package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "agroanalytics",
	Short: "Agro-climatic municipality similarity and crop recommendation",
	Long: "Compares Mexican municipalities by precipitation, temperature, climate unit, soil and landform, " +
		"ranks the most similar ones, and recommends crops from AEZ aptitude and agricultural closure data.",
	SilenceUsage: true,
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

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data", "",
		"read reference tables from this directory instead of the store")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
