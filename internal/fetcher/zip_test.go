package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name, body string
}

func writeZIP(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestExtractZIP_Bundle(t *testing.T) {
	zipPath := writeZIP(t,
		zipEntry{"datos/", ""},
		zipEntry{"datos/mun_precip_media_anual.csv", "CVEGEO,CLAVE,RANGOS"},
		zipEntry{"datos/mun_temp_media_anual.csv", "CVEGEO,RANGOS"},
		zipEntry{"__MACOSX/datos/._mun_temp_media_anual.csv", "resource fork"},
		zipEntry{"datos/._catalogo_cultivos.csv", "resource fork"},
		zipEntry{"datos/catalogo_cultivos.csv", "Idcultivo,Nomcultivo"},
	)

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(destDir, "datos", "mun_precip_media_anual.csv"),
		filepath.Join(destDir, "datos", "mun_temp_media_anual.csv"),
		filepath.Join(destDir, "datos", "catalogo_cultivos.csv"),
	}, extracted)

	data, err := os.ReadFile(extracted[2])
	require.NoError(t, err)
	assert.Equal(t, "Idcultivo,Nomcultivo", string(data))

	_, err = os.Stat(filepath.Join(destDir, "__MACOSX"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractZIP_RejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../../../etc/passwd", "datos/../../outside.csv"} {
		t.Run(name, func(t *testing.T) {
			zipPath := writeZIP(t, zipEntry{name, "x"})
			_, err := ExtractZIP(zipPath, t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "escapes the destination")
		})
	}
}

func TestExtractZIP_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notazip.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip: open archive")
}

func TestIsResourceFork(t *testing.T) {
	assert.True(t, isResourceFork("__MACOSX/x.csv"))
	assert.True(t, isResourceFork("datos/._x.csv"))
	assert.False(t, isResourceFork("datos/x.csv"))
	assert.False(t, isResourceFork("datos/__MACOSX.csv"))
}
