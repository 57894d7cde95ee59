package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmmcli/internal/shared/testutil"
)

func TestFileValidator_ValidateDataFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "sales.csv", "period,volume\n")
	testutil.WriteFile(t, dir, "sales.XLSX", "stub")
	testutil.WriteFile(t, dir, "~$sales.xlsx", "lock")
	testutil.WriteFile(t, dir, "notes.txt", "hello")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.csv"), 0755))

	tests := []struct {
		name          string
		file          string
		wantErr       bool
		errorContains string
	}{
		{name: "csv", file: "sales.csv"},
		{name: "workbook extension is case-insensitive", file: "sales.XLSX"},
		{name: "temporary workbook", file: "~$sales.xlsx", wantErr: true, errorContains: "temporary"},
		{name: "unsupported extension", file: "notes.txt", wantErr: true, errorContains: "not a data file"},
		{name: "missing file", file: "absent.csv", wantErr: true, errorContains: "does not exist"},
		{name: "directory", file: "folder.csv", wantErr: true, errorContains: "is a directory"},
	}

	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDataFile(filepath.Join(dir, tt.file))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_MissingFileWrapsNotExist(t *testing.T) {
	err := NewFileValidator(nil).ValidateFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	dir := filepath.Join(t.TempDir(), "runs", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
	testutil.AssertLogContains(t, handler, slog.LevelDebug, "Output directory validated")

	blocker := testutil.WriteFile(t, t.TempDir(), "file", "x")
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(blocker, "sub")))
}

func TestFileValidator_CountDataFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.xlsx", "c.xlsm", "~$b.xlsx", "d.json"} {
		testutil.WriteFile(t, dir, name, "x")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e.csv"), 0755))

	count, err := NewFileValidator(nil).CountDataFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = NewFileValidator(nil).CountDataFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
