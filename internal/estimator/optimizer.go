package estimator

import "math"

// optimizer proposes the next parameter vector from the current one and its
// gradient. A proposal only changes optimizer state once it is accepted.
type optimizer interface {
	propose(params, grads []float64) []float64
	accept()
}

// gradientDescent takes fixed steps against the gradient.
type gradientDescent struct {
	lr float64
}

func (g *gradientDescent) propose(params, grads []float64) []float64 {
	next := make([]float64, len(params))
	for i := range params {
		next[i] = params[i] - g.lr*grads[i]
	}
	return next
}

func (g *gradientDescent) accept() {}

// adam uses bias-corrected first and second moment estimates.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	m, v   []float64
	nm, nv []float64
	t      int
}

func newAdam(n int, lr, beta1, beta2, eps float64) *adam {
	return &adam{
		lr:    lr,
		beta1: beta1,
		beta2: beta2,
		eps:   eps,
		m:     make([]float64, n),
		v:     make([]float64, n),
		nm:    make([]float64, n),
		nv:    make([]float64, n),
	}
}

func (a *adam) propose(params, grads []float64) []float64 {
	t := a.t + 1

	// Bias correction factors
	bc1 := 1.0 - math.Pow(a.beta1, float64(t))
	bc2 := 1.0 - math.Pow(a.beta2, float64(t))

	next := make([]float64, len(params))
	for i := range params {
		g := grads[i]
		a.nm[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.nv[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.nm[i] / bc1
		vHat := a.nv[i] / bc2
		next[i] = params[i] - a.lr*mHat/(math.Sqrt(vHat)+a.eps)
	}
	return next
}

func (a *adam) accept() {
	a.t++
	a.m, a.nm = a.nm, a.m
	a.v, a.nv = a.nv, a.v
}
