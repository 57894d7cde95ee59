package training

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mmmcli/internal/estimator"
	"mmmcli/internal/validation"
)

// ModelKind selects the estimator variant.
type ModelKind string

const (
	// KindLinear fits without penalty.
	KindLinear ModelKind = "linear"
	// KindRidge fits with an L2 penalty.
	KindRidge ModelKind = "ridge"
)

// Alpha is a ridge penalty: a fixed value or "auto" for cross-validated
// selection.
type Alpha struct {
	Auto  bool
	Value float64
}

// AutoAlpha requests cross-validated penalty selection.
var AutoAlpha = Alpha{Auto: true}

// FixedAlpha returns a fixed penalty.
func FixedAlpha(v float64) Alpha {
	return Alpha{Value: v}
}

// String returns "auto" or the fixed value.
func (a Alpha) String() string {
	if a.Auto {
		return "auto"
	}
	return strconv.FormatFloat(a.Value, 'g', -1, 64)
}

func parseAlpha(s string) (Alpha, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return AutoAlpha, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Alpha{}, fmt.Errorf("alpha must be a number or \"auto\": %q", s)
	}
	if v < 0 {
		return Alpha{}, fmt.Errorf("alpha must not be negative: %g", v)
	}
	return FixedAlpha(v), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (a *Alpha) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := parseAlpha(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (a Alpha) MarshalYAML() (interface{}, error) {
	if a.Auto {
		return "auto", nil
	}
	return a.Value, nil
}

// MarshalJSON implements json.Marshaler
func (a Alpha) MarshalJSON() ([]byte, error) {
	if a.Auto {
		return json.Marshal("auto")
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Alpha) UnmarshalJSON(data []byte) error {
	parsed, err := parseAlpha(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ModelSpec is one estimator variant to fit for every combination.
type ModelSpec struct {
	Name        string                `yaml:"name" json:"name" validate:"required"`
	Kind        ModelKind             `yaml:"kind" json:"kind" validate:"required,oneof=linear ridge"`
	Alpha       Alpha                 `yaml:"alpha,omitempty" json:"alpha"`
	Method      estimator.Method      `yaml:"method,omitempty" json:"method,omitempty" validate:"omitempty,oneof=gd adam"`
	Constraints estimator.Constraints `yaml:"constraints,omitempty" json:"constraints"`
	Topology    estimator.Topology    `yaml:"topology,omitempty" json:"topology,omitempty" validate:"omitempty,oneof=simple combination"`
}

// Validate checks the struct rules of the spec.
func (m ModelSpec) Validate() error {
	if err := validation.Struct(m); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	if m.Kind == KindLinear && (m.Alpha.Auto || m.Alpha.Value != 0) {
		return fmt.Errorf("model %q: linear models take no alpha", m.Name)
	}
	return nil
}

// DefaultModels fits an unregularised and an auto-tuned ridge model.
func DefaultModels() []ModelSpec {
	return []ModelSpec{
		{Name: "linear", Kind: KindLinear},
		{Name: "ridge", Kind: KindRidge, Alpha: AutoAlpha},
	}
}

// Interaction is a product feature of two transformed variables, named
// "<a>_x_<b>".
type Interaction struct {
	A string `yaml:"a" json:"a" validate:"required"`
	B string `yaml:"b" json:"b" validate:"required"`
}

// Name returns the interaction feature name.
func (i Interaction) Name() string {
	return strings.ToLower(i.A) + estimator.InteractionSeparator + strings.ToLower(i.B)
}
