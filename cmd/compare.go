package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/report"
)

var (
	compareDetailed bool
	compareNoColor  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Compare two municipalities",
	Long: "Prints the composite agro-climatic similarity of A and B. With --detailed, prints " +
		"every component score; A and B may be identifiers or municipality names.",
	Args: cobra.ExactArgs(2),
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
		other, err := a.Municipality(args[1])
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "compare"))
		if !compareDetailed {
			score, err := a.Engine.Compare(base, other)
			if err != nil {
				return eris.Wrapf(err, "compare %s %s", base, other)
			}
			log.Debug("compared", zap.String("a", string(base)), zap.String("b", string(other)), zap.Float64("score", score))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", score)
			return err
		}

		detail, err := a.Engine.CompareDetailed(base, other)
		if err != nil {
			return eris.Wrapf(err, "compare %s %s", base, other)
		}

		if cmd.Flags().Changed("format") || outputFlag != "" {
			title := fmt.Sprintf("%s vs %s", a.Label(base), a.Label(other))
			return writeReport(cmd, report.Components(title, detail))
		}

		report.SetColor(!compareNoColor && isTerminal(cmd))
		return report.WriteDetail(cmd.OutOrStdout(), a.Label(base), a.Label(other), detail)
	},
}

// isTerminal reports whether the command writes straight to a terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func init() {
	compareCmd.Flags().BoolVar(&compareDetailed, "detailed", false, "print every component score")
	compareCmd.Flags().BoolVar(&compareNoColor, "no-color", false, "disable colored output")
	addOutputFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}
