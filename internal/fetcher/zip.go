package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// MaxEntryBytes caps the uncompressed size of one bundle entry. The largest
// source table, the agricultural closures, is a few hundred megabytes.
const MaxEntryBytes = 2 << 30

// ExtractZIP extracts a data bundle into destDir and returns the extracted
// file paths in archive order. Directories and macOS resource forks are
// skipped; entries that would escape destDir or exceed MaxEntryBytes fail
// the extraction.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	var extracted []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || isResourceFork(f.Name) {
			continue
		}
		dest := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(dest, root) {
			return extracted, eris.Errorf("zip: entry %q escapes the destination", f.Name)
		}
		if f.UncompressedSize64 > MaxEntryBytes {
			return extracted, eris.Errorf("zip: entry %q is %d bytes, over the %d limit", f.Name, f.UncompressedSize64, int64(MaxEntryBytes))
		}
		if err := extractFile(f, dest); err != nil {
			return extracted, eris.Wrapf(err, "zip: extract %s", f.Name)
		}
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func isResourceFork(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), "._")
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	// The header size can lie; stop one byte past the limit to detect it.
	n, err := io.Copy(out, io.LimitReader(rc, MaxEntryBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > MaxEntryBytes {
		return eris.Errorf("uncompressed size over the %d limit", int64(MaxEntryBytes))
	}
	return nil
}
