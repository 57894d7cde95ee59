package sweep

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"mmmcli/internal/frame"
	"mmmcli/internal/transform"
)

// ParameterCombination is one concrete assignment of transformation parameters
// to every media variable of a sweep. It is immutable: accessors return copies.
type ParameterCombination struct {
	index     int
	variables []string
	params    []transform.Params
}

// NewCombination builds a combination from a variable → params map. It is used
// to rebuild combinations read back from stored records.
func NewCombination(index int, params map[string]transform.Params) ParameterCombination {
	c := ParameterCombination{
		index:     index,
		variables: make([]string, 0, len(params)),
		params:    make([]transform.Params, 0, len(params)),
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c.variables = append(c.variables, frame.Normalize(name))
		c.params = append(c.params, params[name])
	}
	return c
}

// Index is the position of the combination in its sweep.
func (c ParameterCombination) Index() int {
	return c.index
}

// Variables returns the media variables the combination assigns, in sweep order.
func (c ParameterCombination) Variables() []string {
	return slices.Clone(c.variables)
}

// Params returns the parameters assigned to a media variable.
func (c ParameterCombination) Params(variable string) (transform.Params, bool) {
	i := slices.Index(c.variables, frame.Normalize(variable))
	if i < 0 {
		return transform.Params{}, false
	}
	return c.params[i], true
}

// Map returns a copy of the assignment keyed by variable.
func (c ParameterCombination) Map() map[string]transform.Params {
	m := make(map[string]transform.Params, len(c.variables))
	for i, v := range c.variables {
		m[v] = c.params[i]
	}
	return m
}

// Key returns a stable fingerprint of the assigned parameters. Two combinations
// with the same assignment share a key regardless of their sweep index.
func (c ParameterCombination) Key() string {
	b, _ := json.Marshal(c.Map())
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// String returns a compact representation used in logs.
func (c ParameterCombination) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d", c.index)
	for i, v := range c.variables {
		fmt.Fprintf(&sb, " %s(%s)", v, c.params[i])
	}
	return sb.String()
}

type combinationJSON struct {
	Index  int                         `json:"index"`
	Key    string                      `json:"key"`
	Params map[string]transform.Params `json:"params"`
}

// MarshalJSON implements json.Marshaler
func (c ParameterCombination) MarshalJSON() ([]byte, error) {
	return json.Marshal(combinationJSON{Index: c.index, Key: c.Key(), Params: c.Map()})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *ParameterCombination) UnmarshalJSON(data []byte) error {
	var raw combinationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewCombination(raw.Index, raw.Params)
	return nil
}
