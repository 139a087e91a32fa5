package friction

import (
	"math"

	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/nslaw"
	"github.com/soccp-go/soccp/pgs"
)

// SolveCadoux solves the full Coulomb friction contact problem via
// Cadoux's fixed-point iteration (spec.md §9): each outer round solves
// the local SOCCP problem over the assembled Delassus operator with
// package pgs, then checks how much the per-contact sliding-velocity
// magnitude changed since the previous round. Convergence of that
// outer quantity is what Cadoux's theorem actually certifies;
// package pgs's own inner tolerance only certifies the per-round local
// complementarity. law is injected rather than built from p.Mu here,
// so a caller can choose its own Strategy/Eps (or reuse one law across
// several problems) instead of always getting dim-3 defaults.
func (p *Problem[B]) SolveCadoux(w *block.Matrix[B], law *nslaw.SOCLaw, maxOuterIters int, outerTol float64, innerSolver *pgs.Solver[B]) ([]float64, error) {
	n := w.RowsOfBlocks()
	x := make([]float64, w.Rows())

	prevSlide := make([]float64, n)
	for outer := 0; outer < maxOuterIters; outer++ {
		errFinal, err := innerSolver.Solve(law, p.FreeVel, x)
		if err != nil {
			return nil, err
		}

		// Contact velocities u = W*x + b.
		u := append([]float64(nil), p.FreeVel...)
		if err := block.SpMV(1, w, block.Identity, x, 1, u, innerSolver.MaxThreads); err != nil {
			return nil, err
		}

		maxDelta := 0.0
		for row := 0; row < n; row++ {
			off := w.RowOffset(row)
			size := w.RowBlockSize(row)
			if size < 2 {
				continue
			}
			slide := tangentialNorm(u[off : off+size])
			delta := math.Abs(slide - prevSlide[row])
			if delta > maxDelta {
				maxDelta = delta
			}
			prevSlide[row] = slide
		}

		p.Log.Debug().
			Str("problem", p.ID.String()).
			Int("outer_iter", outer).
			Float64("inner_residual", errFinal).
			Float64("outer_delta", maxDelta).
			Msg("cadoux outer iteration")

		if maxDelta < outerTol {
			break
		}
	}
	return x, nil
}

func tangentialNorm(r []float64) float64 {
	s := 0.0
	for i := 1; i < len(r); i++ {
		s += r[i] * r[i]
	}
	return math.Sqrt(s)
}
