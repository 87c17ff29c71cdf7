package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/distancia360/agroanalytics/internal/config"
	"github.com/distancia360/agroanalytics/internal/refdata/refdatatest"
	"github.com/distancia360/agroanalytics/internal/store"
)

// setupConfig points cfg at a fresh sqlite file with default settings and
// resets the shared flag variables.
func setupConfig(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())

	c, err := config.Load()
	require.NoError(t, err)
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "agro.db")
	c.Data.Dir = t.TempDir()
	cfg = c

	dataDirFlag, formatFlag, outputFlag = "", "table", ""
	importDir, importArchive = "", ""
	similarTop, cropsTop, servePort = 0, 0, 0
	compareDetailed, compareNoColor = false, true
	resolveState, resolveSearch, resolveLimit = "", false, 0
}

// seedStore imports the shared fixture tables into cfg's store.
func seedStore(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	require.NoError(t, st.Migrate(ctx))
	_, err = st.ImportTables(ctx, "fixture", refdatatest.Tables())
	require.NoError(t, err)
}

// run executes cmd's RunE with args and returns what it printed.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetContext(context.TODO())
	})
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	st, err := initStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
