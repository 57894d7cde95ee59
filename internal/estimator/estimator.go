package estimator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoRows is returned when the design has no rows.
	ErrNoRows = errors.New("no rows to fit")
	// ErrDimensionMismatch is returned when columns, target and feature names disagree in size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNonFiniteInput is returned when the design or the target contains NaN or Inf.
	ErrNonFiniteInput = errors.New("non-finite input")
)

// Method selects the update rule.
type Method string

const (
	// MethodGD is plain gradient descent.
	MethodGD Method = "gd"
	// MethodAdam uses Adam moment-adaptive updates.
	MethodAdam Method = "adam"
)

// Options configures a fit.
type Options struct {
	Method Method `yaml:"method" json:"method" validate:"omitempty,oneof=gd adam"`
	// Alpha is the L2 penalty; 0 fits the unregularised model.
	Alpha float64 `yaml:"alpha" json:"alpha" validate:"gte=0"`
	// LearningRate is the step size. 0 selects 1/L for gradient descent, where L
	// is the largest curvature of the loss, and 0.01 for Adam.
	LearningRate       float64 `yaml:"learning_rate" json:"learning_rate" validate:"gte=0"`
	MaxIterations      int     `yaml:"max_iterations" json:"max_iterations" validate:"gt=0"`
	Tolerance          float64 `yaml:"tolerance" json:"tolerance" validate:"gt=0"`
	CheckEvery         int     `yaml:"check_every" json:"check_every" validate:"gt=0"`
	ViolationTolerance float64 `yaml:"violation_tolerance" json:"violation_tolerance" validate:"gte=0"`

	Beta1   float64 `yaml:"beta1" json:"beta1" validate:"gte=0,lt=1"`
	Beta2   float64 `yaml:"beta2" json:"beta2" validate:"gte=0,lt=1"`
	Epsilon float64 `yaml:"epsilon" json:"epsilon" validate:"gte=0"`
}

// DefaultAdamLearningRate is used when Adam is selected without a learning rate.
const DefaultAdamLearningRate = 0.01

// DefaultOptions returns the default fit options.
func DefaultOptions() Options {
	return Options{
		Method:             MethodGD,
		MaxIterations:      10000,
		Tolerance:          1e-6,
		CheckEvery:         100,
		ViolationTolerance: 1e-10,
		Beta1:              0.9,
		Beta2:              0.999,
		Epsilon:            1e-8,
	}
}

// FittedModel is the result of one fit. It is owned by the caller and never
// touched by the estimator after Fit returns.
type FittedModel struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Method       Method    `json:"method"`
	Alpha        float64   `json:"alpha"`

	Iterations     int  `json:"iterations"`
	Converged      bool `json:"converged"`
	SkippedUpdates int  `json:"skipped_updates"`
	// Loss is the final training objective.
	Loss       float64     `json:"loss"`
	Violations []Violation `json:"violations,omitempty"`
}

// Coefficient returns the coefficient of a feature.
func (m *FittedModel) Coefficient(feature string) (float64, bool) {
	i := slices.Index(m.Features, feature)
	if i < 0 {
		return 0, false
	}
	return m.Coefficients[i], true
}

// Feasible reports whether the fit satisfies every constraint.
func (m *FittedModel) Feasible() bool {
	return len(m.Violations) == 0
}

// Predict evaluates the model on column-major data.
func (m *FittedModel) Predict(columns [][]float64) ([]float64, error) {
	if len(columns) != len(m.Coefficients) {
		return nil, fmt.Errorf("%w: %d columns for %d coefficients", ErrDimensionMismatch, len(columns), len(m.Coefficients))
	}
	n := 0
	if len(columns) > 0 {
		n = len(columns[0])
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = m.Intercept
	}
	for j, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("%w: column %d has %d rows, want %d", ErrDimensionMismatch, j, len(col), n)
		}
		floats.AddScaled(out, m.Coefficients[j], col)
	}
	return out, nil
}

// Estimator fits linear models by projected gradient descent.
type Estimator struct {
	opts   Options
	logger *slog.Logger
}

// New creates an estimator. Zero-valued iteration settings fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.CheckEvery <= 0 {
		opts.CheckEvery = def.CheckEvery
	}
	if opts.ViolationTolerance <= 0 {
		opts.ViolationTolerance = def.ViolationTolerance
	}
	if opts.Beta1 == 0 {
		opts.Beta1 = def.Beta1
	}
	if opts.Beta2 == 0 {
		opts.Beta2 = def.Beta2
	}
	if opts.Epsilon == 0 {
		opts.Epsilon = def.Epsilon
	}
	return &Estimator{opts: opts, logger: logger}
}

// Options returns the effective options.
func (e *Estimator) Options() Options {
	return e.opts
}

// problem is the centred least-squares problem. Columns are centred internally
// so the intercept decouples from the weights; the loss is unchanged.
type problem struct {
	x     *mat.Dense
	y     *mat.VecDense
	xbar  []float64
	n, p  int
	alpha float64

	resid *mat.VecDense
	gw    *mat.VecDense
}

func newProblem(columns [][]float64, y []float64, alpha float64) *problem {
	n, p := len(y), len(columns)
	x := mat.NewDense(n, p, nil)
	xbar := make([]float64, p)
	for j, col := range columns {
		xbar[j] = stat.Mean(col, nil)
		for i, v := range col {
			x.Set(i, j, v-xbar[j])
		}
	}
	return &problem{
		x:     x,
		y:     mat.NewVecDense(n, slices.Clone(y)),
		xbar:  xbar,
		n:     n,
		p:     p,
		alpha: alpha,
		resid: mat.NewVecDense(n, nil),
		gw:    mat.NewVecDense(p, nil),
	}
}

// residuals computes Xw + b - y.
func (pr *problem) residuals(theta []float64) *mat.VecDense {
	w := mat.NewVecDense(pr.p, theta[:pr.p])
	pr.resid.MulVec(pr.x, w)
	b := theta[pr.p]
	for i := 0; i < pr.n; i++ {
		pr.resid.SetVec(i, pr.resid.AtVec(i)+b-pr.y.AtVec(i))
	}
	return pr.resid
}

// gradient of MSE + (alpha/n)‖w‖² with respect to (w, b).
func (pr *problem) gradient(theta []float64) []float64 {
	r := pr.residuals(theta)
	scale := 2 / float64(pr.n)

	pr.gw.MulVec(pr.x.T(), r)
	g := make([]float64, pr.p+1)
	for j := 0; j < pr.p; j++ {
		g[j] = scale * (pr.gw.AtVec(j) + pr.alpha*theta[j])
	}
	g[pr.p] = scale * mat.Sum(r)
	return g
}

func (pr *problem) loss(theta []float64) float64 {
	r := pr.residuals(theta)
	rss := mat.Dot(r, r)
	penalty := pr.alpha * floats.Dot(theta[:pr.p], theta[:pr.p])
	return (rss + penalty) / float64(pr.n)
}

// lipschitz returns the largest eigenvalue of the loss Hessian.
func (pr *problem) lipschitz() float64 {
	var gram mat.SymDense
	gram.SymOuterK(1, pr.x.T())
	for j := 0; j < pr.p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+pr.alpha)
	}

	var eig mat.EigenSym
	largest := 0.0
	if eig.Factorize(&gram, false) {
		largest = floats.Max(eig.Values(nil))
	} else {
		// Trace bounds the largest eigenvalue of a PSD matrix.
		largest = mat.Trace(&gram)
	}
	return math.Max(2*largest/float64(pr.n), 2)
}

// Fit estimates y = Xw + b on column-major data. cm must have been built from
// the same feature names. Numerical failures never abort the fit: non-finite
// updates are skipped and infeasibility is reported in Violations.
func (e *Estimator) Fit(columns [][]float64, y []float64, features []string, cm ConstraintMap) (*FittedModel, error) {
	if len(y) == 0 {
		return nil, ErrNoRows
	}
	if len(features) != len(columns) {
		return nil, fmt.Errorf("%w: %d feature names for %d columns", ErrDimensionMismatch, len(features), len(columns))
	}
	for j, col := range columns {
		if len(col) != len(y) {
			return nil, fmt.Errorf("%w: column %s has %d rows, target has %d", ErrDimensionMismatch, features[j], len(col), len(y))
		}
		if !allFinite(col) {
			return nil, fmt.Errorf("%w: column %s", ErrNonFiniteInput, features[j])
		}
	}
	if !allFinite(y) {
		return nil, fmt.Errorf("%w: target", ErrNonFiniteInput)
	}

	if len(columns) == 0 {
		mean := stat.Mean(y, nil)
		rss := 0.0
		for _, v := range y {
			rss += (v - mean) * (v - mean)
		}
		return &FittedModel{
			Features:     []string{},
			Coefficients: []float64{},
			Intercept:    mean,
			Method:       e.opts.Method,
			Alpha:        e.opts.Alpha,
			Converged:    true,
			Loss:         rss / float64(len(y)),
		}, nil
	}

	pr := newProblem(columns, y, e.opts.Alpha)
	p := pr.p

	// Weights start at zero, which is feasible for every constraint.
	theta := make([]float64, p+1)
	theta[p] = stat.Mean(y, nil)

	opt := e.optimizer(pr)

	model := &FittedModel{
		Features: slices.Clone(features),
		Method:   e.opts.Method,
		Alpha:    e.opts.Alpha,
	}

	lastCheck := slices.Clone(theta[:p])
	accepted := false
	for it := 1; it <= e.opts.MaxIterations; it++ {
		model.Iterations = it

		if next, ok := e.step(pr, opt, theta, cm); ok {
			theta = next
			accepted = true
		} else {
			model.SkippedUpdates++
		}

		if it%e.opts.CheckEvery != 0 {
			continue
		}
		if accepted && floats.Distance(theta[:p], lastCheck, 2) < e.opts.Tolerance {
			model.Converged = true
			break
		}
		copy(lastCheck, theta[:p])
		accepted = false
	}

	w := theta[:p]
	model.Coefficients = slices.Clone(w)
	model.Intercept = theta[p] - floats.Dot(pr.xbar, w)
	model.Loss = pr.loss(theta)
	model.Violations = Validate(model.Coefficients, features, cm, e.opts.ViolationTolerance)

	e.logger.Debug("fit finished",
		slog.String("method", string(e.opts.Method)),
		slog.Int("iterations", model.Iterations),
		slog.Bool("converged", model.Converged),
		slog.Int("skipped_updates", model.SkippedUpdates),
		slog.Int("violations", len(model.Violations)),
	)

	return model, nil
}

// step computes one projected update. It reports false, leaving the optimizer
// untouched, when the gradient or the candidate is not finite.
func (e *Estimator) step(pr *problem, opt optimizer, theta []float64, cm ConstraintMap) ([]float64, bool) {
	grads := pr.gradient(theta)
	if !allFinite(grads) {
		return nil, false
	}

	next := opt.propose(theta, grads)
	if !allFinite(next) {
		return nil, false
	}

	if !cm.Empty() {
		copy(next[:pr.p], Project(next[:pr.p], cm))
	}
	opt.accept()
	return next, true
}

func (e *Estimator) optimizer(pr *problem) optimizer {
	lr := e.opts.LearningRate
	if e.opts.Method == MethodAdam {
		if lr <= 0 {
			lr = DefaultAdamLearningRate
		}
		return newAdam(pr.p+1, lr, e.opts.Beta1, e.opts.Beta2, e.opts.Epsilon)
	}
	if lr <= 0 {
		lr = 1 / pr.lipschitz()
	}
	return &gradientDescent{lr: lr}
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
