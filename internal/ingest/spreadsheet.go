// Package ingest reads sampled measurements out of uploaded spreadsheets.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidSpreadsheet is returned when an upload cannot be turned into
	// a time/data series.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// DefaultMaxRows caps the number of data rows read from one upload
const DefaultMaxRows = 1000000

// Options control spreadsheet parsing
type Options struct {
	MaxRows int // 0 selects DefaultMaxRows
}

// ParseSpreadsheet reads column A as sample times and column B as measured
// values from the first sheet of an xlsx workbook or from a CSV file. Leading
// header rows that are not numeric are skipped, and so are blank rows. Any
// other non-numeric row is an error.
func ParseSpreadsheet(filename string, r io.Reader, opts Options) (analytics.Series, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "xlsx", "xlsm", "xltx", "xltm":
		rows, err = readWorkbook(r)
	case "xls":
		// legacy BIFF workbooks are only readable when they are OOXML in disguise
		rows, err = readWorkbook(r)
		if err != nil {
			return analytics.Series{}, fmt.Errorf("%w: legacy .xls workbooks are not supported, save the file as .xlsx or .csv", ErrUnsupportedFormat)
		}
	case "csv":
		rows, err = readCSV(r)
	default:
		return analytics.Series{}, fmt.Errorf("%w: %q (expected xlsx or csv)", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return analytics.Series{}, fmt.Errorf("%w: %w", ErrInvalidSpreadsheet, err)
	}

	return rowsToSeries(rows, opts.MaxRows)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func rowsToSeries(rows [][]string, maxRows int) (analytics.Series, error) {
	var s analytics.Series
	seenData := false

	for i, row := range rows {
		a, b := cell(row, 0), cell(row, 1)
		if a == "" && b == "" {
			continue
		}

		t, okT := parseCell(a)
		v, okV := parseCell(b)
		if !okT || !okV {
			if !seenData {
				// header
				continue
			}
			return analytics.Series{}, fmt.Errorf("%w: row %d is not numeric (%q, %q)", ErrInvalidSpreadsheet, i+1, a, b)
		}

		seenData = true
		if len(s.Time) >= maxRows {
			return analytics.Series{}, fmt.Errorf("%w: more than %d data rows", ErrInvalidSpreadsheet, maxRows)
		}
		s.Time = append(s.Time, t)
		s.Data = append(s.Data, v)
	}

	if !seenData {
		return analytics.Series{}, fmt.Errorf("%w: no numeric rows in columns A and B", ErrInvalidSpreadsheet)
	}
	return s, nil
}
