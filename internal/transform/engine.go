package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"mmmcli/internal/frame"
)

// Variable names a frame column and its role.
type Variable struct {
	Name string
	Role Role
}

// Design is the transformed design matrix of one parameter combination, kept
// column-major together with the metadata of every variable.
type Design struct {
	// Features are the design-column names in variable order.
	Features []string
	// Variables are the source variable of each feature.
	Variables []string
	// Columns holds one transformed column per feature.
	Columns [][]float64
	// Metadata is keyed by variable name.
	Metadata map[string]Metadata
	rows     int
}

// Rows returns the number of rows of the design.
func (d *Design) Rows() int {
	return d.rows
}

// Column returns the transformed values of a feature.
func (d *Design) Column(feature string) ([]float64, bool) {
	for i, f := range d.Features {
		if f == feature {
			return d.Columns[i], true
		}
	}
	return nil, false
}

// Engine applies the per-variable pipelines to a frame.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a transformation engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply transforms every variable of the frame. params holds the media
// parameters keyed by variable name; roles without parameters ignore it.
func (e *Engine) Apply(ctx context.Context, f *frame.Frame, variables []Variable, params map[string]Params) (*Design, error) {
	if f == nil || f.Len() == 0 {
		return nil, frame.ErrEmptyFrame
	}

	d := &Design{
		Features:  make([]string, 0, len(variables)),
		Variables: make([]string, 0, len(variables)),
		Columns:   make([][]float64, 0, len(variables)),
		Metadata:  make(map[string]Metadata, len(variables)),
		rows:      f.Len(),
	}

	for _, v := range variables {
		x, err := f.Column(v.Name)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if err := checkFinite(v.Name, x); err != nil {
			return nil, err
		}

		t, err := Lookup(v.Role)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}

		name := frame.Normalize(v.Name)
		y, md := t.Apply(name, x, params[name])
		for _, note := range md.Substitutions {
			e.logger.WarnContext(ctx, "transformation parameter substituted",
				"variable", name,
				"note", note,
			)
		}

		d.Features = append(d.Features, md.Feature)
		d.Variables = append(d.Variables, name)
		d.Columns = append(d.Columns, y)
		d.Metadata[name] = md
	}

	return d, nil
}

// ApplyOne runs the pipeline of a single variable on x. It is used to re-apply
// the pipeline to a sub-window of the original frame.
func ApplyOne(variable string, role Role, x []float64, params Params) ([]float64, Metadata, error) {
	t, err := Lookup(role)
	if err != nil {
		return nil, Metadata{}, err
	}
	if err := checkFinite(variable, x); err != nil {
		return nil, Metadata{}, err
	}
	y, md := t.Apply(variable, x, params)
	return y, md, nil
}

func checkFinite(name string, x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s has a non-finite value at row %d", ErrNonFinite, name, i)
		}
	}
	return nil
}
