// Package frame holds the time-indexed input table: one row per period and one
// column per variable. Column names are case-folded on entry.
package frame

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrEmptyFrame is returned when a frame has no rows.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrMissingColumn is returned when a requested column does not exist.
	ErrMissingColumn = errors.New("missing column")
	// ErrNonNumeric is returned when a numeric column was requested but the column holds text.
	ErrNonNumeric = errors.New("non-numeric column")
	// ErrLengthMismatch is returned when a column length differs from the frame length.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Frame is a column-oriented table. A Frame is treated as read-only once it is
// handed to the training pipeline; slices returned by its accessors must not be
// modified by callers.
type Frame struct {
	rows       int
	names      []string
	numeric    map[string][]float64
	text       map[string][]string
	dateColumn string
	dates      []time.Time
}

// New creates an empty frame with the given number of rows.
func New(rows int) *Frame {
	return &Frame{
		rows:    rows,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
	}
}

// FromColumns builds a frame from numeric columns. order fixes the column order;
// when empty the column names are sorted lexically.
func FromColumns(columns map[string][]float64, order []string) (*Frame, error) {
	if len(order) == 0 {
		for name := range columns {
			order = append(order, name)
		}
		slices.Sort(order)
	}
	rows := -1
	for _, name := range order {
		values, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		if rows == -1 {
			rows = len(values)
		}
	}
	if rows < 0 {
		rows = 0
	}
	f := New(rows)
	for _, name := range order {
		if err := f.AddColumn(name, columns[name]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Normalize returns the case-folded form used for column names.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Names returns the column names in insertion order, date column excluded.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the frame has a column with the given name.
func (f *Frame) Has(name string) bool {
	name = Normalize(name)
	if _, ok := f.numeric[name]; ok {
		return true
	}
	_, ok := f.text[name]
	return ok
}

// AddColumn adds or replaces a numeric column.
func (f *Frame) AddColumn(name string, values []float64) error {
	name = Normalize(name)
	if len(values) != f.rows {
		return fmt.Errorf("%w: %s has %d values, frame has %d rows", ErrLengthMismatch, name, len(values), f.rows)
	}
	if !f.Has(name) {
		f.names = append(f.names, name)
	}
	delete(f.text, name)
	f.numeric[name] = values
	return nil
}

// AddTextColumn adds or replaces a non-numeric column.
func (f *Frame) AddTextColumn(name string, values []string) error {
	name = Normalize(name)
	if len(values) != f.rows {
		return fmt.Errorf("%w: %s has %d values, frame has %d rows", ErrLengthMismatch, name, len(values), f.rows)
	}
	if !f.Has(name) {
		f.names = append(f.names, name)
	}
	delete(f.numeric, name)
	f.text[name] = values
	return nil
}

// SetDates attaches the period index.
func (f *Frame) SetDates(column string, dates []time.Time) error {
	if len(dates) != f.rows {
		return fmt.Errorf("%w: dates have %d values, frame has %d rows", ErrLengthMismatch, len(dates), f.rows)
	}
	f.dateColumn = Normalize(column)
	f.dates = dates
	return nil
}

// DateColumn returns the name of the date column, if any.
func (f *Frame) DateColumn() string {
	return f.dateColumn
}

// Dates returns the period index, or nil when the frame has none.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Column returns the numeric values of a column.
func (f *Frame) Column(name string) ([]float64, error) {
	name = Normalize(name)
	if values, ok := f.numeric[name]; ok {
		return values, nil
	}
	if _, ok := f.text[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNonNumeric, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
}

// Require checks that the frame has rows and that every named column exists
// and is numeric.
func (f *Frame) Require(names ...string) error {
	if f == nil || f.rows == 0 {
		return ErrEmptyFrame
	}
	for _, name := range names {
		if _, err := f.Column(name); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns a new frame holding the given row indices, in that order.
func (f *Frame) Rows(idx []int) *Frame {
	out := New(len(idx))
	out.names = f.Names()
	for name, values := range f.numeric {
		col := make([]float64, len(idx))
		for i, r := range idx {
			col[i] = values[r]
		}
		out.numeric[name] = col
	}
	for name, values := range f.text {
		col := make([]string, len(idx))
		for i, r := range idx {
			col[i] = values[r]
		}
		out.text[name] = col
	}
	if f.dates != nil {
		dates := make([]time.Time, len(idx))
		for i, r := range idx {
			dates[i] = f.dates[r]
		}
		out.dates = dates
		out.dateColumn = f.dateColumn
	}
	return out
}

// Tail returns the trailing n rows, or the whole frame when it is shorter.
func (f *Frame) Tail(n int) *Frame {
	if n <= 0 || n >= f.rows {
		n = f.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = f.rows - n + i
	}
	return f.Rows(idx)
}
