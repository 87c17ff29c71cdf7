package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/report"
)

var similarTop int

var similarCmd = &cobra.Command{
	Use:   "similar ID",
	Short: "Rank the municipalities most similar to ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, "query")
		if err != nil {
			return err
		}

		base, err := a.Municipality(args[0])
		if err != nil {
			return err
		}

		results, err := a.Searcher.Top(ctx, base, similarTop)
		if err != nil {
			return eris.Wrapf(err, "rank similar to %s", base)
		}
		zap.L().Debug("ranked",
			zap.String("command", "similar"),
			zap.String("base", string(base)),
			zap.Int("results", len(results)),
		)

		return writeReport(cmd, report.Similar(a.Label(base), results))
	},
}

func init() {
	similarCmd.Flags().IntVar(&similarTop, "top", 0, "number of results (default search.top_n)")
	addOutputFlags(similarCmd)
	rootCmd.AddCommand(similarCmd)
}
