package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distancia360/agroanalytics/internal/report"
	"github.com/distancia360/agroanalytics/internal/search"
)

var (
	resolveState  string
	resolveSearch bool
	resolveLimit  int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME",
	Short: "Resolve a municipality name to its identifier",
	Long: "Prints the identifier NAME resolves to. NAME may carry the state after a comma, " +
		"as in \"Apozol, Zacatecas\". With --search, lists the closest catalog matches instead.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, "query")
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")

		if resolveSearch {
			limit := resolveLimit
			if limit <= 0 {
				limit = search.DefaultTopN
			}
			return writeReport(cmd, report.Matches("Matches for "+name, a.Catalog.Search(name, resolveState, limit)))
		}

		if resolveState != "" {
			name += ", " + resolveState
		}
		id, err := a.Municipality(name)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, a.Label(id))
		return err
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveState, "estado", "", "restrict to this state")
	resolveCmd.Flags().BoolVar(&resolveSearch, "search", false, "list the closest matches")
	resolveCmd.Flags().IntVar(&resolveLimit, "limit", 0, "number of matches with --search")
	addOutputFlags(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}
