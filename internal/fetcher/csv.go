package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

const (
	utf8BOM = "\ufeff"
	// sniffBytes is how much of a file decides its encoding.
	sniffBytes = 64 << 10
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
}

// DecodeReader returns r as UTF-8. Government exports are either UTF-8
// (optionally with a BOM) or Windows-1252; input whose first block is not
// valid UTF-8 is transcoded from Windows-1252.
func DecodeReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffBytes)
	head, _ := br.Peek(sniffBytes)
	if utf8.Valid(trimPartialRune(head)) {
		return br
	}
	return charmap.Windows1252.NewDecoder().Reader(br)
}

// trimPartialRune drops a multi-byte sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.RuneStart(b[len(b)-1-i]) {
			if !utf8.FullRune(b[len(b)-1-i:]) {
				return b[:len(b)-1-i]
			}
			break
		}
	}
	return b
}

// StreamCSV sends every record of r, header included, on the row channel.
// Both channels are closed when reading stops; at most one error is sent. A
// leading byte order mark is dropped and records may have any field count.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		for line := 0; ; line++ {
			if err := ctx.Err(); err != nil {
				errCh <- eris.Wrap(err, "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(err, "csv: read record %d", line+1)
				return
			}
			if line == 0 && len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], utf8BOM)
			}
			if opts.TrimSpace {
				for i := range record {
					record[i] = strings.TrimSpace(record[i])
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
