package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Downloader retrieves a remote data bundle. *HTTPFetcher and *FTPFetcher
// satisfy it.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (io.ReadCloser, error)
	DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error)
}

// IsRemote reports whether s is a URL ForURL can download.
func IsRemote(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// ForURL picks the downloader for the scheme of rawURL.
func ForURL(rawURL string, httpOpts HTTPOptions, ftpOpts FTPOptions) (Downloader, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "download: parse url")
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPFetcher(httpOpts), nil
	case "ftp":
		return NewFTPFetcher(ftpOpts), nil
	default:
		return nil, eris.Errorf("download: unsupported scheme %q", u.Scheme)
	}
}

// writeAtomic copies body to a temporary file next to path and renames it
// into place once complete, so a failed download never leaves a truncated
// bundle behind.
func writeAtomic(body io.Reader, path string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".part-*")
	if err != nil {
		return 0, eris.Wrap(err, "download: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, eris.Wrapf(err, "download: write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, eris.Wrap(err, "download: rename")
	}
	return n, nil
}
