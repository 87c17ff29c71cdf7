package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/report"
	"github.com/distancia360/agroanalytics/internal/store"
)

var (
	dataDirFlag string
	formatFlag  string
	outputFlag  string
)

// addOutputFlags registers --format and --output on a query command.
func addOutputFlags(cmd *cobra.Command) {
	names := make([]string, len(report.Formats))
	for i, f := range report.Formats {
		names[i] = string(f)
	}
	cmd.Flags().StringVar(&formatFlag, "format", "table", "output format: "+strings.Join(names, "|"))
	cmd.Flags().StringVar(&outputFlag, "output", "", "write to this file instead of stdout")
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}

// loadTables reads the reference tables from --data when given, otherwise
// from the store, falling back to data.dir when nothing was imported yet.
func loadTables(ctx context.Context) (*refdata.Tables, error) {
	if dataDirFlag != "" {
		return refdata.Load(ctx, dataDirFlag, cfg.Data.Files)
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	defer st.Close() //nolint:errcheck

	return tablesFromStore(ctx, st)
}

func tablesFromStore(ctx context.Context, st store.Store) (*refdata.Tables, error) {
	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "migrate store")
	}
	run, err := st.LastImport(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "read last import")
	}
	if run == nil {
		zap.L().Info("store is empty, reading source files", zap.String("dir", cfg.Data.Dir))
		return refdata.Load(ctx, cfg.Data.Dir, cfg.Data.Files)
	}
	zap.L().Debug("loading reference tables from store",
		zap.String("import_id", run.ID),
		zap.Time("imported_at", run.ImportedAt),
	)
	return st.LoadTables(ctx)
}

// loadApp validates the config for mode and builds the engines.
func loadApp(ctx context.Context, mode string) (*app.App, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	t, err := loadTables(ctx)
	if err != nil {
		return nil, err
	}
	return app.New(t, app.OptionsFromConfig(cfg)), nil
}

// writeReport renders r with --format to --output or the command's stdout.
func writeReport(cmd *cobra.Command, r *report.Report) error {
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	if outputFlag == "" {
		if format.Binary() {
			return eris.Errorf("--format %s requires --output", format)
		}
		return report.Write(cmd.OutOrStdout(), format, r)
	}
	return writeFile(outputFlag, func(w io.Writer) error {
		return report.Write(w, format, r)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}
