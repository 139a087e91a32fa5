package soc

import "math"

// Strategy selects how Solve combines the Newton and enumerative
// phases of the hybrid local SOCCP solver (spec.md §4.4).
type Strategy int

const (
	// Hybrid tries Newton first and falls back to the enumerative
	// solve only if Newton fails to reach tolerance. This is the
	// default strategy.
	Hybrid Strategy = iota
	// RevHybrid tries the enumerative solve first and polishes with
	// Newton only if it fails to reach tolerance.
	RevHybrid
	// PureNewton never engages the enumerative fallback.
	PureNewton
	// PureEnumerative never engages the Newton phase.
	PureEnumerative
)

// Options configures a single local SOCCP solve.
type Options struct {
	Strategy Strategy
	Tol      float64
	MaxIters int
}

// DefaultOptions mirrors the local tolerance convention used by the
// enclosing non-smooth law (eps^0.75, spec.md §6): callers that solve
// many contacts at a shared global tolerance should derive Tol that
// way themselves; DefaultOptions picks a reasonable per-contact value.
func DefaultOptions() Options {
	return Options{Strategy: Hybrid, Tol: 1e-12, MaxIters: 50}
}

// Result is the outcome of a single local SOCCP solve: the reaction r,
// the induced velocity u = W*r+b, and the achieved natural-map residual
// norm (the square root of the squared residual that Residual returns).
type Result struct {
	R        []float64
	U        []float64
	Residual float64
	Solved   bool
}

// Residual evaluates the squared natural-map residual of a candidate r
// without modifying it or iterating, used by callers (package nslaw)
// that need a convergence score decoupled from solving.
func Residual(dim int, w, b []float64, mu float64, r []float64) float64 {
	p := &problem{dim: dim, w: w, b: b, mu: mu}
	return p.residualNorm2(r)
}

// Solve finds r such that u = w*r+b satisfies the mu-Coulomb friction
// complementarity condition over the dim-dimensional second-order cone
// (dim is 2 or 3), per spec.md §4. w is a dense dim x dim row-major
// matrix (a single diagonal block of the global Delassus operator);
// r0 is the warm-start (the previous PGS iterate for this contact).
func Solve(dim int, w, b []float64, mu float64, r0 []float64, opts Options) Result {
	p := &problem{dim: dim, w: w, b: b, mu: mu}
	if opts.Tol <= 0 {
		opts.Tol = 1e-12
	}
	if opts.MaxIters <= 0 {
		opts.MaxIters = 50
	}

	start := r0
	if start == nil {
		start = make([]float64, dim)
	}

	var res newtonResult
	switch opts.Strategy {
	case PureNewton:
		res = solveNewton(p, start, opts.Tol, opts.MaxIters)
	case PureEnumerative:
		res = solveEnumerative(p)
	case RevHybrid:
		res = solveEnumerative(p)
		if !res.ok || res.residual > opts.Tol*opts.Tol {
			fromStart := start
			if res.ok {
				fromStart = res.r
			}
			nr := solveNewton(p, fromStart, opts.Tol, opts.MaxIters)
			if !res.ok || nr.residual < res.residual {
				res = nr
			}
		}
	default: // Hybrid
		res = solveNewton(p, start, opts.Tol, opts.MaxIters)
		if !res.ok || res.residual > opts.Tol*opts.Tol {
			er := solveEnumerative(p)
			if er.ok && er.residual < res.residual {
				res = er
			}
		}
	}

	return Result{
		R:        res.r,
		U:        p.u(res.r),
		Residual: math.Sqrt(math.Max(res.residual, 0)),
		Solved:   res.residual <= opts.Tol*opts.Tol*1e6,
	}
}
