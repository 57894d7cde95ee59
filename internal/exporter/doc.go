// Package exporter writes training records as flat tables.
//
// Each record becomes one row: model identity, the parameter combination, fit
// scores and one coefficient, elasticity and contribution column per variable.
// CSV output carries a UTF-8 BOM so spreadsheet applications pick the right
// encoding; XLSX output is a single "records" sheet.
//
//	exp := exporter.NewRecordExporter(paths, logger)
//	path, err := exp.Export(run, exporter.FormatXLSX)
package exporter
