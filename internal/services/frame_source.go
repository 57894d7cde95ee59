package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"mmmcli/internal/config"
	apperrors "mmmcli/internal/errors"
	"mmmcli/internal/frame"
	"mmmcli/internal/validation"
)

// FrameRef locates the input frame of a job.
type FrameRef struct {
	Scope      string
	File       string
	Sheet      string
	DateColumn string
}

// Ref returns the frame reference of the job.
func (j *Job) Ref() FrameRef {
	return FrameRef{Scope: j.Scope, File: j.DataFile, Sheet: j.Sheet, DateColumn: j.DateColumn}
}

// FrameSource loads input frames.
type FrameSource interface {
	Load(ctx context.Context, ref FrameRef) (*frame.Frame, error)
}

// FileFrameSource reads CSV and workbook files from the data directory. A
// reference without a file resolves to "<scope>.csv".
type FileFrameSource struct {
	paths     *config.Paths
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewFileFrameSource creates a filesystem frame source
func NewFileFrameSource(paths *config.Paths, logger *slog.Logger) *FileFrameSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileFrameSource{
		paths:     paths,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Path returns the file a reference resolves to.
func (s *FileFrameSource) Path(ref FrameRef) string {
	name := ref.File
	if name == "" {
		name = config.SafeName(ref.Scope) + ".csv"
	}
	return s.paths.GetDataPath(name)
}

// Load implements FrameSource
func (s *FileFrameSource) Load(ctx context.Context, ref FrameRef) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(ref)
	if err := s.validator.ValidateDataFile(path); err != nil {
		if n, cerr := s.validator.CountDataFiles(s.paths.DataDir); cerr == nil {
			s.logger.WarnContext(ctx, "Input frame unavailable",
				slog.String("path", path),
				slog.Int("data_files", n))
		}
		return nil, apperrors.NewDataError("input frame unavailable", err).
			WithContext("path", path)
	}

	var (
		f   *frame.Frame
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext != ".csv" && ref.Sheet != "":
		f, err = frame.LoadXLSX(path, ref.Sheet, ref.DateColumn)
	default:
		f, err = frame.Load(path, ref.DateColumn)
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("load %s", filepath.Base(path)), err)
	}

	s.logger.InfoContext(ctx, "Loaded input frame",
		slog.String("path", path),
		slog.String("scope", ref.Scope),
		slog.Int("rows", f.Len()),
		slog.Int("columns", len(f.Names())))
	return f, nil
}
