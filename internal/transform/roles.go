package transform

import (
	"fmt"
	"sort"
	"sync"
)

// Transformer is the pipeline of one role.
type Transformer interface {
	// Feature returns the design-column name of a transformed variable.
	Feature(variable string) string
	// Apply transforms x. params is only meaningful for roles that take parameters.
	Apply(variable string, x []float64, params Params) ([]float64, Metadata)
}

var (
	registryMu sync.RWMutex
	registry   = map[Role]Transformer{}
)

func init() {
	Register(RoleMedia, mediaTransformer{})
	Register(RoleStandardize, standardizeTransformer{})
	Register(RoleMinMax, minmaxTransformer{})
	Register(RoleNone, identityTransformer{})
}

// Register installs the transformer of a role, replacing any previous one.
func Register(role Role, t Transformer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[role] = t
}

// Lookup returns the transformer registered for role.
func Lookup(role Role) (Transformer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[role]
	if !ok {
		return nil, fmt.Errorf("unknown transformation role %q", role)
	}
	return t, nil
}

// Roles returns the registered roles in lexical order.
func Roles() []Role {
	registryMu.RLock()
	defer registryMu.RUnlock()
	roles := make([]Role, 0, len(registry))
	for r := range registry {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

func newMetadata(variable, feature string, role Role, x []float64) Metadata {
	return Metadata{
		Variable: variable,
		Feature:  feature,
		Role:     role,
		Original: Describe(x),
	}
}

func (m *Metadata) record(step string, y []float64) {
	m.Steps = append(m.Steps, StepStats{Step: step, Stats: Describe(y)})
}

type mediaTransformer struct{}

func (mediaTransformer) Feature(variable string) string { return variable }

func (t mediaTransformer) Apply(variable string, x []float64, params Params) ([]float64, Metadata) {
	md := newMetadata(variable, t.Feature(variable), RoleMedia, x)

	adstocked, decay, substituted := Adstock(x, params.Decay)
	if substituted {
		md.Substitutions = append(md.Substitutions,
			fmt.Sprintf("decay %g outside (0,1), using %g", params.Decay, decay))
	}
	md.record(StepAdstock, adstocked)

	z, mean, std := Standardize(adstocked)
	md.record(StepStandardize, z)
	md.Mean, md.Std = mean, std
	md.AdstockStd = std

	l, growth, substituted := Logistic(z, params.Growth, params.Midpoint)
	if substituted {
		md.Substitutions = append(md.Substitutions,
			fmt.Sprintf("growth %g not positive, using %g", params.Growth, growth))
	}
	md.record(StepLogistic, l)
	ls, _ := md.Step(StepLogistic)
	md.LogisticMean, md.LogisticMin, md.LogisticMax = ls.Mean, ls.Min, ls.Max

	y, min, max := MinMax(l)
	md.record(StepMinMax, y)
	md.Min, md.Max, md.Range = min, max, max-min

	md.Params = &Params{Decay: decay, Growth: growth, Midpoint: params.Midpoint}
	md.TransformedMean = Describe(y).Mean
	return y, md
}

type standardizeTransformer struct{}

func (standardizeTransformer) Feature(variable string) string { return "standard_" + variable }

func (t standardizeTransformer) Apply(variable string, x []float64, _ Params) ([]float64, Metadata) {
	md := newMetadata(variable, t.Feature(variable), RoleStandardize, x)
	z, mean, std := Standardize(x)
	md.record(StepStandardize, z)
	md.Mean, md.Std = mean, std
	md.TransformedMean = Describe(z).Mean
	return z, md
}

type minmaxTransformer struct{}

func (minmaxTransformer) Feature(variable string) string { return "minmax_" + variable }

func (t minmaxTransformer) Apply(variable string, x []float64, _ Params) ([]float64, Metadata) {
	md := newMetadata(variable, t.Feature(variable), RoleMinMax, x)
	y, min, max := MinMax(x)
	md.record(StepMinMax, y)
	md.Min, md.Max, md.Range = min, max, max-min
	md.TransformedMean = Describe(y).Mean
	return y, md
}

type identityTransformer struct{}

func (identityTransformer) Feature(variable string) string { return variable }

func (t identityTransformer) Apply(variable string, x []float64, _ Params) ([]float64, Metadata) {
	md := newMetadata(variable, t.Feature(variable), RoleNone, x)
	y := make([]float64, len(x))
	copy(y, x)
	md.TransformedMean = md.Original.Mean
	return y, md
}
