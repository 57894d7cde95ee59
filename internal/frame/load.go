package frame

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Load reads a frame from a CSV or XLSX file depending on the file extension.
// dateColumn names the period column; it may be empty when the file has none.
func Load(path, dateColumn string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, "", dateColumn)
	default:
		return LoadCSV(path, dateColumn)
	}
}

// LoadCSV reads a frame from a CSV file whose first row is the header.
func LoadCSV(path, dateColumn string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}

	f, err := fromRecords(records, dateColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// LoadXLSX reads a frame from a workbook sheet. An empty sheet name selects the
// first sheet of the workbook.
func LoadXLSX(path, sheet, dateColumn string) (*Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer wb.Close()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	slog.Debug("loaded workbook sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	f, err := fromRecords(rows, dateColumn)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", filepath.Base(path), sheet, err)
	}
	return f, nil
}

// fromRecords converts header + data rows into a frame. Columns whose cells all
// parse as numbers become numeric columns; anything else is kept as text.
func fromRecords(records [][]string, dateColumn string) (*Frame, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFrame
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = Normalize(h)
	}

	data := records[1:]
	// Workbooks often carry trailing blank rows.
	for len(data) > 0 && isBlank(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	f := New(len(data))
	dateColumn = Normalize(dateColumn)

	for col, name := range header {
		if name == "" {
			continue
		}
		cells := make([]string, len(data))
		for row, record := range data {
			if col < len(record) {
				cells[row] = strings.TrimSpace(record[col])
			}
		}

		if name == dateColumn {
			dates := make([]time.Time, len(cells))
			for row, cell := range cells {
				date, err := parseDate(cell)
				if err != nil {
					return nil, fmt.Errorf("parse date (line %d): %w", row+2, err)
				}
				dates[row] = date
			}
			if err := f.SetDates(name, dates); err != nil {
				return nil, err
			}
			continue
		}

		if values, ok := parseNumbers(cells); ok {
			if err := f.AddColumn(name, values); err != nil {
				return nil, err
			}
			continue
		}
		if err := f.AddTextColumn(name, cells); err != nil {
			return nil, err
		}
	}

	if dateColumn != "" && f.Dates() == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, dateColumn)
	}
	return f, nil
}

// parseNumbers parses every cell as a float. Thousands separators are tolerated.
func parseNumbers(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		cell = strings.ReplaceAll(cell, ",", "")
		if cell == "" {
			return nil, false
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// parseDate attempts to parse date strings in multiple formats
func parseDate(dateStr string) (time.Time, error) {
	dateFormats := []string{
		"2006-01-02",          // ISO format
		"01/02/2006",          // US format
		"02/01/2006",          // European format
		"2006/01/02",          // Alternative ISO
		"2006-01-02 15:04:05", // With time
		"01-02-2006",          // US with dashes
		"02-01-2006",          // European with dashes
		"1/2/06",              // Spreadsheet short date
		"2006-01",             // Monthly period
	}

	for _, format := range dateFormats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
