package pgs

import (
	"math"

	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/nslaw"
	"gonum.org/v1/gonum/floats"
)

// EvalGlobal computes the solver's global convergence criterion: the
// L2 norm of every row's local residual, normalized by ||b||+1 so the
// tolerance is scale-invariant. It is exported standalone (not just a
// Solver method) because it is also the natural error metric for an
// outer loop wrapped around PGS, such as the friction package's
// Cadoux fixed-point iteration (spec.md §9, "alternate consumer").
func EvalGlobal[B block.Block](m *block.Matrix[B], law nslaw.Law, b, x []float64) float64 {
	sum := 0.0
	for row := 0; row < m.RowsOfBlocks(); row++ {
		size := m.RowBlockSize(row)
		off := m.RowOffset(row)
		local := getFloats(size)
		copy(local, b[off:off+size])
		_ = block.SplitRowMultiply(m, row, x, local)
		diag, ok := m.Diagonal(row)
		w := make([]float64, size*size)
		if ok {
			w = nslaw.BlockValues(diag)
		}
		sum += law.LocalResidual(row, w, local, x[off:off+size])
		putFloats(local)
	}
	return math.Sqrt(sum) / (norm(b) + 1)
}

func norm(v []float64) float64 {
	return floats.Norm(v, 2)
}
