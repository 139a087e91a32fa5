package nslaw

import "github.com/soccp-go/soccp/block"

// Law is the non-smooth law interface the projected Gauss-Seidel
// solver delegates local block solves to (spec.md §6): given contact
// index i, the diagonal Delassus block w for that contact, and the
// current local free velocity b (the split-row residual), SolveLocal
// updates r in place to the local solution, and LocalResidual scores
// how far a candidate r is from solving it.
type Law interface {
	// Dimension returns the block size of contact i (2 or 3).
	Dimension(i int) int
	// IsSymmetric reports whether the law's Jacobian is symmetric,
	// letting the caller skip a transpose cache.
	IsSymmetric() bool
	// SolveLocal solves the local complementarity problem w*r+b,
	// overwriting r with the result, warm-started from its current
	// value. It returns the squared residual actually achieved.
	SolveLocal(i int, w, b, r []float64) (float64, error)
	// LocalResidual evaluates the (squared) residual of a candidate r
	// without modifying it, used by the solver's periodic global
	// convergence check.
	LocalResidual(i int, w, b, r []float64) float64
}

// blockVal copies a row-major dense block's entries into a flat
// row-major slice, the shape soc.Solve expects.
func blockVal(b block.Block) []float64 {
	nr, nc := b.Dims()
	out := make([]float64, nr*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			out[i*nc+j] = b.At(i, j)
		}
	}
	return out
}
