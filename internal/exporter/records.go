package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"mmmcli/internal/config"
	"mmmcli/internal/numeric"
	"mmmcli/internal/training"
	"mmmcli/internal/validation"
)

// Format is a tabular export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

const recordsSheet = "records"

// baseHeaders are the per-record columns that precede the per-variable ones.
var baseHeaders = []string{
	"model_name", "model_kind", "combination", "combination_key", "alpha",
	"mape_train", "mape_test", "r2_train", "r2_test", "aic", "bic",
	"n_parameters", "iterations", "converged", "violations",
	"price_elasticity", "csf", "mcv",
}

// RecordExporter flattens training records into one row per record.
type RecordExporter struct {
	csvWriter *CSVWriter
	validator *validation.FileValidator
	paths     *config.Paths
	logger    *slog.Logger
}

// NewRecordExporter creates a record exporter writing under paths.RunsDir
func NewRecordExporter(paths *config.Paths, logger *slog.Logger) *RecordExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordExporter{
		csvWriter: NewCSVWriter(paths),
		validator: validation.NewFileValidator(logger),
		paths:     paths,
		logger:    logger,
	}
}

// Table returns the headers and rows of records. Every variable that appears
// in any record gets a coefficient, elasticity and contribution column;
// records without that variable leave the cells empty.
func Table(records []training.Record) ([]string, [][]string) {
	var variables []string
	seen := make(map[string]bool)
	for _, r := range records {
		for name := range r.Coefficients {
			if !seen[name] {
				seen[name] = true
				variables = append(variables, name)
			}
		}
	}
	slices.Sort(variables)

	headers := slices.Clone(baseHeaders)
	for _, v := range variables {
		headers = append(headers, "coef_"+v, "elasticity_"+v, "contribution_"+v)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			r.ModelName,
			string(r.ModelKind),
			r.ParameterCombination.String(),
			r.ParameterCombination.Key(),
			formatFloat(r.Alpha),
			formatFloat(r.MAPETrain),
			formatFloat(r.MAPETest),
			formatFloat(r.R2Train),
			formatFloat(r.R2Test),
			formatFloat(r.AIC),
			formatFloat(r.BIC),
			formatInt(r.NParameters),
			formatInt(r.Iterations),
			formatBool(r.Converged),
			formatInt(len(r.Violations)),
			formatFloat(r.PriceElasticity),
			formatFloat(r.CSF),
			formatFloat(r.MCV),
		}
		for _, v := range variables {
			row = append(row,
				cell(r.Coefficients, v),
				cell(r.Elasticities, v),
				cell(r.Contributions, v),
			)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func cell(values map[string]numeric.Float, name string) string {
	v, ok := values[name]
	if !ok {
		return ""
	}
	return formatFloat(v)
}

// Export writes the run's records table next to its documents and returns
// the written path.
func (e *RecordExporter) Export(run *training.Run, format Format) (string, error) {
	headers, rows := Table(run.Records)
	name := filepath.Join(config.SafeName(run.ID), "records."+string(format))
	if err := e.validator.ValidateOutputDirectory(e.paths.GetRunDir(run.ID)); err != nil {
		return "", fmt.Errorf("export run %s: %w", run.ID, err)
	}

	var (
		path string
		err  error
	)
	switch format {
	case FormatCSV:
		path, err = e.csvWriter.WriteSimpleCSV(name, headers, rows)
	case FormatXLSX:
		path = filepath.Join(e.paths.RunsDir, name)
		err = writeXLSX(path, headers, rows)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("export run %s: %w", run.ID, err)
	}

	e.logger.Info("Exported records",
		slog.String("run_id", run.ID),
		slog.String("format", string(format)),
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// writeXLSX writes headers and rows to a single-sheet workbook.
func writeXLSX(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), recordsSheet); err != nil {
		return err
	}

	write := func(rowIdx int, values []string) error {
		start, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return wb.SetSheetRow(recordsSheet, start, &cells)
	}

	if err := write(1, headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return wb.SaveAs(path)
}
