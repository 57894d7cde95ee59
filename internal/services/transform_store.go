package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"mmmcli/internal/config"
	apperrors "mmmcli/internal/errors"
	"mmmcli/internal/metrics"
	"mmmcli/internal/validation"
)

// TransformStore persists create-column definitions per scope.
type TransformStore interface {
	Save(ctx context.Context, scope string, defs []metrics.ColumnTransform) error
	Load(ctx context.Context, scope string) (metrics.ColumnTransforms, error)
}

// transformDocument is the YAML layout of a definitions file.
type transformDocument struct {
	Transforms []metrics.ColumnTransform `yaml:"transforms" validate:"dive"`
}

// YAMLTransformStore keeps one YAML file per scope in the transforms
// directory.
type YAMLTransformStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewYAMLTransformStore creates a YAML transform store
func NewYAMLTransformStore(paths *config.Paths, logger *slog.Logger) *YAMLTransformStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &YAMLTransformStore{paths: paths, logger: logger}
}

// Save implements TransformStore
func (s *YAMLTransformStore) Save(ctx context.Context, scope string, defs []metrics.ColumnTransform) error {
	if _, err := metrics.NewColumnTransforms(defs); err != nil {
		return apperrors.NewValidationError("invalid column transforms", err)
	}

	data, err := yaml.Marshal(transformDocument{Transforms: defs})
	if err != nil {
		return apperrors.NewStorageError("encode column transforms", err)
	}

	path := s.paths.GetTransformPath(scope)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create transforms directory", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewStorageError("write column transforms", err)
	}

	s.logger.DebugContext(ctx, "Saved column transforms",
		slog.String("scope", scope),
		slog.Int("count", len(defs)),
		slog.String("path", path))
	return nil
}

// Load implements TransformStore. A scope without a definitions file has no
// transforms.
func (s *YAMLTransformStore) Load(_ context.Context, scope string) (metrics.ColumnTransforms, error) {
	defs, err := LoadTransformsFile(s.paths.GetTransformPath(scope))
	if errors.Is(err, fs.ErrNotExist) {
		return metrics.ColumnTransforms{}, nil
	}
	return defs, err
}

// LoadTransformsFile reads a definitions file.
func LoadTransformsFile(path string) (metrics.ColumnTransforms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc transformDocument
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("decode %s", filepath.Base(path)), err)
	}
	if err := validation.Struct(doc); err != nil {
		return nil, apperrors.NewValidationError("invalid column transforms", err)
	}
	defs, err := metrics.NewColumnTransforms(doc.Transforms)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid column transforms", err)
	}
	return defs, nil
}
