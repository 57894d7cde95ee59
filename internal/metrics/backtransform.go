package metrics

import (
	"mmmcli/internal/numeric"
	"mmmcli/internal/transform"
)

// Coefficient is one fitted coefficient mapped back to original units.
type Coefficient struct {
	Feature  string
	Variable string
	Role     transform.Role
	// Transformed is the coefficient fitted on the transformed feature.
	Transformed float64
	// Original is the coefficient in original units. Media coefficients keep
	// the nominal transformed value; see ElasticityBeta.
	Original float64
	// ElasticityBeta is the media chain-rule beta used for elasticity; it
	// equals Original for every other role.
	ElasticityBeta float64
}

// BackTransformed is the original-scale view of one fitted model.
type BackTransformed struct {
	Coefficients []Coefficient
	Intercept    float64
}

// Find returns the coefficient of a variable or feature.
func (b BackTransformed) Find(name string) (Coefficient, bool) {
	for _, c := range b.Coefficients {
		if c.Variable == name || c.Feature == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// BackTransform maps transformed-space coefficients to original units.
// variables[i] names the source variable of features[i]; features without
// metadata, such as interactions, pass through unchanged.
func BackTransform(features, variables []string, coefficients []float64, intercept float64, metadata map[string]transform.Metadata) BackTransformed {
	out := BackTransformed{
		Coefficients: make([]Coefficient, 0, len(features)),
		Intercept:    intercept,
	}

	for i, feature := range features {
		beta := coefficients[i]
		c := Coefficient{
			Feature:     feature,
			Variable:    feature,
			Role:        transform.RoleNone,
			Transformed: beta,
			Original:    beta,
		}

		var variable string
		if i < len(variables) {
			variable = variables[i]
		}
		md, ok := metadata[variable]
		if ok {
			c.Variable = variable
			c.Role = md.Role
		}

		switch {
		case !ok:
		case md.Role == transform.RoleStandardize:
			c.Original = numeric.Div(beta, md.Std)
			out.Intercept -= correction(c.Original, md.Mean)
		case md.Role == transform.RoleMinMax:
			c.Original = numeric.Div(beta, md.Range)
			out.Intercept -= correction(c.Original, md.Min)
		case md.Role == transform.RoleMedia:
			c.ElasticityBeta = MediaElasticityBeta(beta, md)
		}

		if c.Role != transform.RoleMedia {
			c.ElasticityBeta = c.Original
		}
		out.Coefficients = append(out.Coefficients, c)
	}
	return out
}

// correction is the intercept shift of one rescaled coefficient. A constant
// column has no defined original-scale coefficient and contributes nothing.
func correction(original, offset float64) float64 {
	if !numeric.IsDefined(original) {
		return 0
	}
	return original * offset
}

// MediaElasticityBeta is the chain-rule derivative of the media feature with
// respect to adstocked spend, evaluated at the mean:
//
//	β · k·L_t·(1−L_t) / (σ_A·(L_max−L_min))
//
// It assumes min-max scaling is the last step of the media pipeline.
func MediaElasticityBeta(beta float64, md transform.Metadata) float64 {
	if md.Params == nil {
		return numeric.Undefined()
	}
	lt := md.LogisticMean
	slope := md.Params.Growth * lt * (1 - lt)
	return beta * numeric.Div(slope, md.AdstockStd*(md.LogisticMax-md.LogisticMin))
}
