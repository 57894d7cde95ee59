package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"mmmcli/internal/config"
	apperrors "mmmcli/internal/errors"
	"mmmcli/internal/training"
	"mmmcli/pkg/contracts"
)

// runDocument is the stored form of a run header.
type runDocument struct {
	Format string `json:"format"`
	training.Run
}

// RecordStore persists training runs.
type RecordStore interface {
	SaveRun(ctx context.Context, run *training.Run) error
	LoadRun(ctx context.Context, runID string) (*training.Run, error)
	ListRuns(ctx context.Context) ([]string, error)
}

// JSONRecordStore keeps each run in its own directory under the runs
// directory: run.json holds the run without its records, records.json the
// records.
type JSONRecordStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewJSONRecordStore creates a JSON file record store
func NewJSONRecordStore(paths *config.Paths, logger *slog.Logger) *JSONRecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONRecordStore{paths: paths, logger: logger}
}

// SaveRun implements RecordStore
func (s *JSONRecordStore) SaveRun(ctx context.Context, run *training.Run) error {
	if err := os.MkdirAll(s.paths.GetRunDir(run.ID), 0755); err != nil {
		return apperrors.NewStorageError("create run directory", err)
	}

	header := runDocument{Format: contracts.RecordFormatVersion, Run: *run}
	header.Records = nil
	if err := writeJSON(s.paths.GetRunFilePath(run.ID), header); err != nil {
		return apperrors.NewStorageError("write run document", err)
	}

	records := run.Records
	if records == nil {
		records = []training.Record{}
	}
	if err := writeJSON(s.paths.GetRecordsPath(run.ID), records); err != nil {
		return apperrors.NewStorageError("write records document", err)
	}

	s.logger.InfoContext(ctx, "Saved run",
		slog.String("run_id", run.ID),
		slog.Int("records", len(run.Records)),
		slog.String("directory", s.paths.GetRunDir(run.ID)))
	return nil
}

// LoadRun implements RecordStore
func (s *JSONRecordStore) LoadRun(ctx context.Context, runID string) (*training.Run, error) {
	var doc runDocument
	if err := readJSON(s.paths.GetRunFilePath(runID), &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", runID), ErrRunNotFound)
		}
		return nil, apperrors.NewStorageError("read run document", err)
	}
	if doc.Format != contracts.RecordFormatVersion {
		return nil, apperrors.NewStorageError(fmt.Sprintf("run %s has format %q", runID, doc.Format), ErrRecordFormat)
	}
	run := doc.Run
	if err := readJSON(s.paths.GetRecordsPath(runID), &run.Records); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewStorageError("read records document", err)
	}

	s.logger.DebugContext(ctx, "Loaded run",
		slog.String("run_id", runID),
		slog.Int("records", len(run.Records)))
	return &run, nil
}

// ListRuns implements RecordStore. IDs are sorted.
func (s *JSONRecordStore) ListRuns(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.paths.RunsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && config.FileExists(filepath.Join(s.paths.RunsDir, e.Name(), config.RunFileName)) {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// writeJSON writes v to a temporary file and renames it over path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
