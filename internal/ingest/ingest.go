// Package ingest reads batch parse inputs from plain text, CSV, and XLSX
// files. Each row (or line) yields one event text.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options configures tabular input handling. The zero value reads the first
// column of the first sheet with no rows skipped.
type Options struct {
	Column    int    // zero-based column holding the event text
	SkipRows  int    // header rows to skip (csv and xlsx)
	SheetName string // xlsx sheet; empty means the first sheet
	Delimiter rune   // csv delimiter; 0 means ','
}

// ReadTexts loads event texts from path, dispatching on the file extension.
// Blank rows are dropped.
func ReadTexts(path string, opts Options) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path, opts)
	case ".xlsx":
		return readXLSX(path, opts)
	default:
		return readLines(path)
	}
}

// readLines treats the file as one event text per line.
func readLines(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}

	var texts []string
	for _, line := range strings.Split(string(raw), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}

func readCSV(path string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	var texts []string
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read csv %s", path)
		}
		row++
		if row <= opts.SkipRows {
			continue
		}
		texts = appendCell(texts, record, opts.Column)
	}
	return texts, nil
}

func readXLSX(path string, opts Options) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}

	sheet, err := pickSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	var texts []string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		texts = appendCell(texts, cells, opts.Column)
	}
	return texts, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func appendCell(texts []string, record []string, col int) []string {
	if col >= len(record) {
		return texts
	}
	if t := strings.TrimSpace(record[col]); t != "" {
		return append(texts, t)
	}
	return texts
}
