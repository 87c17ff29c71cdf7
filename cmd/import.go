package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/distancia360/agroanalytics/internal/fetcher"
	"github.com/distancia360/agroanalytics/internal/refdata"
)

var (
	importDir     string
	importArchive string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the source tables into the reference store",
	Long: "Reads the source exports from --dir, or from a zip bundle given by --archive " +
		"(a local path or an http, https or ftp URL), and replaces the contents of the reference store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "import"))

		if importDir != "" && importArchive != "" {
			return eris.New("use either --dir or --archive, not both")
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		dir := importDir
		if dir == "" {
			dir = cfg.Data.Dir
		}
		source := dir
		if importArchive != "" {
			tmp, err := os.MkdirTemp(cfg.Fetch.TempDir, "agroanalytics-import-")
			if err != nil {
				return eris.Wrap(err, "create temp dir")
			}
			defer os.RemoveAll(tmp) //nolint:errcheck

			dir, err = unpackArchive(ctx, importArchive, tmp)
			if err != nil {
				return err
			}
			source = importArchive
		}

		t, err := refdata.Load(ctx, dir, cfg.Data.Files)
		if err != nil {
			return eris.Wrap(err, "load source tables")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		run, err := st.ImportTables(ctx, source, t)
		if err != nil {
			return eris.Wrap(err, "import tables")
		}

		log.Info("import complete",
			zap.String("import_id", run.ID),
			zap.String("source", source),
			zap.Any("rows", run.Rows),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d municipalities)\n", run.ID, len(t.Municipalities)) //nolint:errcheck
		return nil
	},
}

// unpackArchive downloads archive when it is a URL, extracts it under tmp and
// returns the directory holding the precipitation table.
func unpackArchive(ctx context.Context, archive, tmp string) (string, error) {
	zipPath := archive
	if fetcher.IsRemote(archive) {
		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
		f, err := fetcher.ForURL(archive, fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    timeout,
			MaxRetries: cfg.Fetch.MaxRetries,
			Limiter:    fetchLimiter(),
		}, fetcher.FTPOptions{Timeout: timeout})
		if err != nil {
			return "", err
		}
		zipPath = filepath.Join(tmp, "bundle.zip")
		n, err := f.DownloadToFile(ctx, archive, zipPath)
		if err != nil {
			return "", eris.Wrapf(err, "download %s", archive)
		}
		zap.L().Info("archive downloaded", zap.String("url", archive), zap.Int64("bytes", n))
	}

	dest := filepath.Join(tmp, "data")
	files, err := fetcher.ExtractZIP(zipPath, dest)
	if err != nil {
		return "", eris.Wrap(err, "extract archive")
	}
	for _, p := range files {
		if filepath.Base(p) == cfg.Data.Files.Precipitation {
			return filepath.Dir(p), nil
		}
	}
	return "", eris.Errorf("archive %s does not contain %s", archive, cfg.Data.Files.Precipitation)
}

func fetchLimiter() *rate.Limiter {
	if cfg.Fetch.RateLimitRPS <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(cfg.Fetch.RateLimitRPS), 1)
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory holding the source tables (default data.dir)")
	importCmd.Flags().StringVar(&importArchive, "archive", "", "zip bundle of the source tables, as a path or URL")
	rootCmd.AddCommand(importCmd)
}
