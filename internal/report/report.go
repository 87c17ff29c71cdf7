// Package report renders query results as aligned text, CSV, JSON, YAML or
// XLSX. Every result is first turned into a Report: the tabular formats use
// its Headers and Rows, the structured formats marshal its Data.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists every supported format, for flag help.
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML, FormatXLSX}

// ParseFormat accepts a format name in any case. "" means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// Report is one renderable result.
type Report struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Data is marshalled for JSON and YAML. Nil falls back to Rows keyed by Headers.
	Data any
}

// Write renders r to w in the given format.
func Write(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatTable, "":
		return writeTable(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatXLSX:
		return writeXLSX(w, r)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

func writeTable(out io.Writer, r *Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if r.Title != "" {
		_, _ = fmt.Fprintln(w, r.Title)
	}
	_, _ = fmt.Fprintln(w, strings.ToUpper(strings.Join(r.Headers, "\t")))
	for _, row := range r.Rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

func writeCSV(out io.Writer, r *Report) error {
	w := csv.NewWriter(out)
	if err := w.Write(r.Headers); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	if err := w.WriteAll(r.Rows); err != nil {
		return eris.Wrap(err, "report: write csv rows")
	}
	return nil
}

func (r *Report) data() any {
	if r.Data != nil {
		return r.Data
	}
	records := make([]map[string]string, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]string, len(r.Headers))
		for j, h := range r.Headers {
			if j < len(row) {
				rec[h] = row[j]
			}
		}
		records[i] = rec
	}
	return records
}

func writeJSON(out io.Writer, r *Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(r.data()), "report: encode json")
}

func writeYAML(out io.Writer, r *Report) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(r.data()); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close yaml")
}

// maxSheetName is the XLSX sheet name limit.
const maxSheetName = 31

func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" {
		return "Sheet1"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

func writeXLSX(out io.Writer, r *Report) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName(r.Title))
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	header := sheet.AddRow()
	for _, h := range r.Headers {
		header.AddCell().SetString(h)
	}
	for _, rowData := range r.Rows {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	return eris.Wrap(f.Write(out), "report: write xlsx")
}
