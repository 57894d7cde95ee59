package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths, resolved to absolute form.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir       string
	DataDir       string
	RunsDir       string
	TransformsDir string
	LogsDir       string
}

// ResolvePaths resolves the configured directories. Relative entries are
// joined to BaseDir; an empty BaseDir means the working directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:       base,
		DataDir:       resolve(c.Paths.DataDir),
		RunsDir:       resolve(c.Paths.RunsDir),
		TransformsDir: resolve(c.Paths.TransformsDir),
		LogsDir:       resolve(c.Paths.LogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RunsDir,
		p.TransformsDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists",
			slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetDataPath returns the path of an input data file. Absolute names are
// returned unchanged.
func (p *Paths) GetDataPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.DataDir, filename)
}

// GetRunDir returns the directory holding one run's documents.
func (p *Paths) GetRunDir(runID string) string {
	return filepath.Join(p.RunsDir, SafeName(runID))
}

// GetRunFilePath returns the path of a run's summary document.
func (p *Paths) GetRunFilePath(runID string) string {
	return filepath.Join(p.GetRunDir(runID), RunFileName)
}

// GetRecordsPath returns the path of a run's record document.
func (p *Paths) GetRecordsPath(runID string) string {
	return filepath.Join(p.GetRunDir(runID), RecordsFileName)
}

// GetJobPath returns the path of the job file a run was trained from.
func (p *Paths) GetJobPath(runID string) string {
	return filepath.Join(p.GetRunDir(runID), JobFileName)
}

// GetTransformPath returns the path of the saved create-column definitions of
// a scope. The empty scope uses the shared file.
func (p *Paths) GetTransformPath(scope string) string {
	if scope == "" {
		return filepath.Join(p.TransformsDir, TransformFileName)
	}
	return filepath.Join(p.TransformsDir, SafeName(scope)+".yaml")
}

// GetLogPath returns the path of a log file. Absolute names are returned
// unchanged.
func (p *Paths) GetLogPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.LogsDir, filename)
}

// SafeName maps an identifier to a single path element.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_", " ", "_")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		return "_"
	}
	return name
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("runs", p.RunsDir),
			slog.String("transforms", p.TransformsDir),
			slog.String("logs", p.LogsDir),
		))
}
