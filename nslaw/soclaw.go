package nslaw

import (
	"math"

	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/soc"
)

// SOCLaw is the Coulomb-friction second-order-cone non-smooth law
// (spec.md §6): contact i has friction coefficient Mu[i] and a fixed
// block dimension (3 for spatial friction, 2 for planar).
type SOCLaw struct {
	Mu       []float64
	Dim      int
	Strategy soc.Strategy

	// Eps is the global PGS tolerance this law's local tolerance is
	// derived from: m_localTol = eps^0.75, mirroring the original C++
	// SOCLaw's "tighten the local solve far below the global one"
	// convention.
	Eps float64
}

// NewSOCLaw builds a law over len(mu) contacts, each of block
// dimension dim, with friction coefficients mu.
func NewSOCLaw(mu []float64, dim int) *SOCLaw {
	return &SOCLaw{Mu: mu, Dim: dim, Strategy: soc.Hybrid, Eps: 1e-6}
}

func (l *SOCLaw) Dimension(i int) int { return l.Dim }

func (l *SOCLaw) IsSymmetric() bool { return false }

func (l *SOCLaw) localTol() float64 {
	eps := l.Eps
	if eps <= 0 {
		eps = 1e-6
	}
	return math.Pow(eps, 0.75)
}

func (l *SOCLaw) SolveLocal(i int, w, b, r []float64) (float64, error) {
	res := soc.Solve(l.Dim, w, b, l.Mu[i], r, soc.Options{
		Strategy: l.Strategy,
		Tol:      l.localTol(),
		MaxIters: 50,
	})
	copy(r, res.R)
	return res.Residual * res.Residual, nil
}

func (l *SOCLaw) LocalResidual(i int, w, b, r []float64) float64 {
	return soc.Residual(l.Dim, w, b, l.Mu[i], r)
}

// BlockValues exposes blockVal for callers (package pgs) that need to
// flatten a block.Block into the row-major slice soc.Solve expects.
func BlockValues(b block.Block) []float64 { return blockVal(b) }
