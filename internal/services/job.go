package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"mmmcli/internal/metrics"
	"mmmcli/internal/sweep"
	"mmmcli/internal/training"
	"mmmcli/internal/validation"
)

// Job describes one training request as read from a YAML job file.
type Job struct {
	RunID string `yaml:"run_id,omitempty"`
	Scope string `yaml:"scope,omitempty"`

	// DataFile is resolved against the data directory when relative. When
	// empty the frame is looked up by scope.
	DataFile   string `yaml:"data_file,omitempty"`
	Sheet      string `yaml:"sheet,omitempty"`
	DateColumn string `yaml:"date_column,omitempty"`

	Target        string                 `yaml:"target" validate:"required"`
	PriceVariable string                 `yaml:"price_variable,omitempty"`
	Variables     []sweep.VariableConfig `yaml:"variables" validate:"required,min=1,dive"`
	Interactions  []training.Interaction `yaml:"interactions,omitempty" validate:"omitempty,dive"`
	Models        []training.ModelSpec   `yaml:"models,omitempty"`

	Rates      RatesConfig               `yaml:"rates,omitempty"`
	Transforms []metrics.ColumnTransform `yaml:"transforms,omitempty" validate:"omitempty,dive"`
}

// RatesConfig holds cost-per-unit rates as decimal strings, e.g. "12.50".
type RatesConfig struct {
	Global  string                       `yaml:"global,omitempty"`
	Default map[string]string            `yaml:"default,omitempty"`
	Scopes  map[string]map[string]string `yaml:"scopes,omitempty"`
}

// LoadJob reads and validates a job file. Unknown keys are rejected.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	return ParseJob(data)
}

// ParseJob decodes and validates a YAML job document.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := yaml.UnmarshalStrict(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the struct rules, every variable and model, and the rates.
func (j *Job) Validate() error {
	if err := validation.Struct(j); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if j.DataFile == "" && j.Scope == "" {
		return fmt.Errorf("%w: data_file or scope is required", ErrInvalidJob)
	}
	for _, v := range j.Variables {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
	}
	for _, m := range j.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
	}
	if _, err := j.Rates.Table(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if _, err := metrics.NewColumnTransforms(j.Transforms); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return nil
}

// ModelsOrDefault returns the job's models, or the default pair when none
// are listed.
func (j *Job) ModelsOrDefault() []training.ModelSpec {
	if len(j.Models) == 0 {
		return training.DefaultModels()
	}
	return j.Models
}

// Table converts the rates into a rate table; nil when no rate is set.
func (r RatesConfig) Table() (*metrics.RateTable, error) {
	if r.Global == "" && len(r.Default) == 0 && len(r.Scopes) == 0 {
		return nil, nil
	}

	t := &metrics.RateTable{}
	if r.Global != "" {
		g, err := parseRate("global", r.Global)
		if err != nil {
			return nil, err
		}
		t.Global = &g
	}

	var err error
	if t.Default, err = parseRates("default", r.Default); err != nil {
		return nil, err
	}
	if len(r.Scopes) > 0 {
		t.Scopes = make(map[string]map[string]decimal.Decimal, len(r.Scopes))
		for scope, rates := range r.Scopes {
			if t.Scopes[scope], err = parseRates("scopes."+scope, rates); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func parseRates(section string, raw map[string]string) (map[string]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for name, s := range raw {
		d, err := parseRate(section+"."+name, s)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = d
	}
	return out, nil
}

func parseRate(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rates.%s: %q is not a decimal", field, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("rates.%s: rate must not be negative", field)
	}
	return d, nil
}
