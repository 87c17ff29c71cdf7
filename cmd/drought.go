package main

import (
	"github.com/spf13/cobra"

	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/report"
)

var droughtCmd = &cobra.Command{
	Use:   "drought ID...",
	Short: "Show the yearly drought history of municipalities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, "query")
		if err != nil {
			return err
		}

		ids := make([]model.MunicipalityID, 0, len(args))
		for _, arg := range args {
			id, err := a.Municipality(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		return writeReport(cmd, report.Drought("Drought history", a.Ref.DroughtHistory(ids)))
	},
}

func init() {
	addOutputFlags(droughtCmd)
	rootCmd.AddCommand(droughtCmd)
}
