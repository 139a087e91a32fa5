package soc

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	newtonSigma2   = 1e-4
	newtonHalfStep = 0.5
)

// newtonResult carries the best iterate the non-smooth Newton loop
// produced, mirroring NonSmoothNewton.impl.hpp's Phi_best/x_best
// bookkeeping: the loop always returns its best-seen point even if it
// terminates on a line-search failure rather than full convergence.
type newtonResult struct {
	r        []float64
	residual float64
	iters    int
	ok       bool
}

// solveNewton runs a semismooth Newton iteration on the natural-map
// residual, with a projected half-step line search (spec.md §4.4,
// grounded on the hybrid solver's non-smooth Newton phase):
//
//	dx solves  J(r) dx = -F(r)
//	accept a step length alpha in {1, 1/2, 1/4, ...} as soon as either
//	the residual strictly decreases, or the projected-descent test
//	proj > 0 || proj^2 < sigma2*||dx||^2*||dPhi/dx||^2 holds.
func solveNewton(p *problem, r0 []float64, tol float64, maxIters int) newtonResult {
	d := p.dim
	r := append([]float64(nil), r0...)

	phi := p.residualNorm2(r)
	best := append([]float64(nil), r...)
	bestPhi := phi

	for it := 0; it < maxIters; it++ {
		if phi < tol*tol {
			return newtonResult{r: append([]float64(nil), r...), residual: phi, iters: it, ok: true}
		}

		f := p.residual(r)
		jac := p.jacobian(r)

		dx, ok := solveDense(jac, f, d)
		if !ok {
			break
		}

		dPhiDx := gradResidualNorm2(p, r, f, jac)
		proj := dot(dPhiDx, dx)

		alpha := 1.0
		accepted := false
		for ls := 0; ls < 48; ls++ {
			cand := make([]float64, d)
			for i := range cand {
				cand[i] = r[i] + alpha*dx[i]
			}
			candPhi := p.residualNorm2(cand)

			dxNorm2 := norm2(dx) * norm2(dx)
			dPhiNorm2 := norm2(dPhiDx) * norm2(dPhiDx)
			if candPhi < phi || proj > 0 || proj*proj < newtonSigma2*dxNorm2*dPhiNorm2 {
				r = cand
				phi = candPhi
				accepted = true
				break
			}
			alpha *= newtonHalfStep
		}
		if !accepted {
			break
		}
		if phi < bestPhi {
			bestPhi = phi
			copy(best, r)
		}
	}

	return newtonResult{r: best, residual: bestPhi, iters: maxIters, ok: bestPhi < tol*tol}
}

// gradResidualNorm2 returns the gradient of ||F(r)||^2 via the chain
// rule (2 J^T F), reusing the already-evaluated residual and Jacobian.
func gradResidualNorm2(p *problem, r, f, jac []float64) []float64 {
	d := p.dim
	g := make([]float64, d)
	for j := 0; j < d; j++ {
		s := 0.0
		for i := 0; i < d; i++ {
			s += jac[i*d+j] * f[i]
		}
		g[j] = 2 * s
	}
	return g
}

func dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// solveDense solves jac*x = -rhs for x, first attempting LU
// factorization (gonum mat.LU); if the Jacobian's condition number is
// too high, it retries with a QR factorization (gonum mat.QR), which
// degrades more gracefully than LU on a near-singular system. Returns
// ok=false only if both attempts fail.
func solveDense(jac, rhs []float64, d int) ([]float64, bool) {
	a := mat.NewDense(d, d, append([]float64(nil), jac...))
	b := mat.NewDense(d, 1, nil)
	for i := 0; i < d; i++ {
		b.Set(i, 0, -rhs[i])
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); cond <= 1e14 {
		var x mat.Dense
		if err := lu.SolveTo(&x, false, b); err == nil {
			return denseColumn(&x, d), true
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var x mat.Dense
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, false
	}
	return denseColumn(&x, d), true
}

func denseColumn(x *mat.Dense, d int) []float64 {
	out := make([]float64, d)
	for i := 0; i < d; i++ {
		out[i] = x.At(i, 0)
	}
	return out
}
