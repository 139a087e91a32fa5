package friction_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/friction"
	"github.com/soccp-go/soccp/nslaw"
	"github.com/soccp-go/soccp/pgs"
	"github.com/stretchr/testify/require"
)

func newDense3() *block.Dense3 { return &block.Dense3{} }

// singleBodyTwoContacts builds a minimal problem: one free body (6
// scalar DOF collapsed to 3 for this block-shape test) touched by two
// contacts, so AssembleDelassus exercises Cholesky-inverting M and
// composing H*M^-1*H^T end to end.
func singleBodyTwoContacts(t *testing.T) *friction.Problem[*block.Dense3] {
	t.Helper()

	h := block.NewMatrix(false, false, false, newDense3)
	h.SetRows([]int{3, 3})
	h.SetCols([]int{3})
	h0, err := h.InsertBack(0, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		h0.Set(i, i, 1)
	}
	h1, err := h.InsertBack(1, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		h1.Set(i, i, 0.5)
	}
	require.NoError(t, h.Finalize(0))

	m := block.NewMatrix(false, false, false, newDense3)
	m.SetRows([]int{3})
	m.SetCols([]int{3})
	mb, err := m.InsertBack(0, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		mb.Set(i, i, 0.5)
	}
	require.NoError(t, m.Finalize(0))

	freeVel := []float64{0, 0, 0.3, 0, 0, 0.2}
	mu := []float64{0.5, 0.5}

	return friction.NewProblem(h, m, mu, freeVel, newDense3, zerolog.Nop())
}

func TestAssembleDelassusIsSymmetricPositive(t *testing.T) {
	p := singleBodyTwoContacts(t)
	w, err := p.AssembleDelassus()
	require.NoError(t, err)
	require.Equal(t, 6, w.Rows())

	d0, ok := w.BlockPtr(0, 0)
	require.True(t, ok)
	require.Greater(t, d0.At(0, 0), 0.0)

	w01, ok := w.BlockPtr(0, 1)
	require.True(t, ok)
	w10, ok := w.BlockPtr(1, 0)
	require.True(t, ok)
	for a := 0; a < 3; a++ {
		for c := 0; c < 3; c++ {
			require.InDelta(t, w01.At(a, c), w10.At(c, a), 1e-12)
		}
	}
}

func TestSolveCadouxConverges(t *testing.T) {
	p := singleBodyTwoContacts(t)
	w, err := p.AssembleDelassus()
	require.NoError(t, err)

	inner := pgs.NewSolver(w)
	inner.Tol = 1e-6
	inner.MaxIters = 200

	law := nslaw.NewSOCLaw(p.Mu, 3)
	x, err := p.SolveCadoux(w, law, 10, 1e-6, inner)
	require.NoError(t, err)
	require.Len(t, x, 6)
	require.GreaterOrEqual(t, x[0], -1e-6)
}
