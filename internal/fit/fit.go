// Package fit provides small nonlinear least-squares fitters for peak shapes.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTooFewPoints is returned when there are fewer points than free
	// parameters plus one.
	ErrTooFewPoints = errors.New("fit: too few points")
	// ErrNoConvergence is returned when the iteration budget is exhausted.
	ErrNoConvergence = errors.New("fit: no convergence")
	// ErrNonFinite is returned when the fit produced NaN or Inf parameters.
	ErrNonFinite = errors.New("fit: non-finite parameters")
)

// Gaussian is a one-dimensional Gaussian A*exp(-(x-Mean)²/(2*StdDev²)).
type Gaussian struct {
	Amplitude float64
	Mean      float64
	StdDev    float64
}

// Eval returns the Gaussian at x.
func (g Gaussian) Eval(x float64) float64 {
	d := (x - g.Mean) / g.StdDev
	return g.Amplitude * math.Exp(-0.5*d*d)
}

// Config controls the Levenberg-Marquardt iteration.
type Config struct {
	MaxIter int
	// Tol is the relative tolerance on both cost reduction and step size.
	Tol    float64
	Lambda float64
}

// DefaultConfig returns iteration settings suitable for periodogram peaks.
func DefaultConfig() Config {
	return Config{MaxIter: 200, Tol: 1e-10, Lambda: 1e-3}
}

const maxLambda = 1e16

// FitGaussian fits a Gaussian to (x, y) starting from init using
// Levenberg-Marquardt with Marquardt's diagonal scaling. The returned
// StdDev is non-negative.
func FitGaussian(x, y []float64, init Gaussian) (Gaussian, error) {
	return DefaultConfig().FitGaussian(x, y, init)
}

// FitGaussian is like the package-level FitGaussian with explicit settings.
//
//nolint:cyclop
func (cfg Config) FitGaussian(x, y []float64, init Gaussian) (Gaussian, error) {
	if len(x) != len(y) {
		return Gaussian{}, fmt.Errorf("fit: x/y length mismatch: %d != %d", len(x), len(y))
	}
	if len(x) < 4 {
		return Gaussian{}, fmt.Errorf("%w: %d", ErrTooFewPoints, len(x))
	}
	if init.StdDev == 0 {
		return Gaussian{}, fmt.Errorf("%w: zero initial width", ErrNonFinite)
	}

	n := len(x)
	jac := mat.NewDense(n, 3, nil)
	res := mat.NewVecDense(n, nil)
	var jtj mat.Dense
	var jtr mat.VecDense
	var delta mat.VecDense
	a := mat.NewDense(3, 3, nil)

	p := init
	cost := sse(x, y, p)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return Gaussian{}, ErrNonFinite
	}
	lambda := cfg.Lambda

	for iter := 0; iter < cfg.MaxIter; iter++ {
		if cost == 0 {
			return finish(p)
		}
		for i, xi := range x {
			d := (xi - p.Mean) / p.StdDev
			e := math.Exp(-0.5 * d * d)
			jac.Set(i, 0, e)
			jac.Set(i, 1, p.Amplitude*e*d/p.StdDev)
			jac.Set(i, 2, p.Amplitude*e*d*d/p.StdDev)
			res.SetVec(i, y[i]-p.Amplitude*e)
		}
		jtj.Mul(jac.T(), jac)
		jtr.MulVec(jac.T(), res)

		for {
			a.Copy(&jtj)
			for k := 0; k < 3; k++ {
				dk := jtj.At(k, k)
				if dk == 0 {
					dk = 1
				}
				a.Set(k, k, jtj.At(k, k)+lambda*dk)
			}
			err := delta.SolveVec(a, &jtr)
			if err == nil {
				next := Gaussian{
					Amplitude: p.Amplitude + delta.AtVec(0),
					Mean:      p.Mean + delta.AtVec(1),
					StdDev:    p.StdDev + delta.AtVec(2),
				}
				nextCost := sse(x, y, next)
				if next.StdDev != 0 && nextCost < cost {
					step := math.Abs(delta.AtVec(0)) + math.Abs(delta.AtVec(1)) + math.Abs(delta.AtVec(2))
					size := math.Abs(p.Amplitude) + math.Abs(p.Mean) + math.Abs(p.StdDev)
					converged := cost-nextCost <= cfg.Tol*cost || step <= cfg.Tol*(size+cfg.Tol)
					p, cost = next, nextCost
					lambda /= 10
					if converged {
						return finish(p)
					}
					break
				}
			}
			lambda *= 10
			if lambda > maxLambda {
				// No downhill step exists: p is a local minimum.
				return finish(p)
			}
		}
	}
	return Gaussian{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, cfg.MaxIter)
}

func finish(g Gaussian) (Gaussian, error) {
	g.StdDev = math.Abs(g.StdDev)
	for _, v := range []float64{g.Amplitude, g.Mean, g.StdDev} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Gaussian{}, ErrNonFinite
		}
	}
	return g, nil
}

func sse(x, y []float64, g Gaussian) float64 {
	var s float64
	for i, xi := range x {
		r := y[i] - g.Eval(xi)
		s += r * r
	}
	return s
}
