package block_test

import (
	"testing"

	"github.com/soccp-go/soccp/block"
	"github.com/stretchr/testify/require"
)

// identityMatrix builds a block-diagonal identity with the given block
// sizes, used as a neutral element to sanity-check Product.
func identityMatrix(t *testing.T, sizes []int) *block.Matrix[*block.Dense3] {
	t.Helper()
	m := block.NewMatrix(false, false, false, newDense3)
	m.SetRows(sizes)
	m.SetCols(sizes)
	for i := range sizes {
		b, err := m.InsertBack(i, i)
		require.NoError(t, err)
		for k := 0; k < 3; k++ {
			b.Set(k, k, 1)
		}
	}
	require.NoError(t, m.Finalize(0))
	return m
}

func TestProductWithIdentityRowWise(t *testing.T) {
	a := scenario1Matrix(t, false)
	id := identityMatrix(t, []int{3, 3, 3})

	prod, err := block.Product(a, id, false, false, false, newDense3, 0)
	require.NoError(t, err)

	x := Scalar9(1)
	yA := make([]float64, 9)
	yP := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Identity, x, 0, yA, 0))
	require.NoError(t, block.SpMV(1, prod, block.Identity, x, 0, yP, 0))
	for i := range yA {
		require.InDelta(t, yA[i], yP[i], 1e-9)
	}
}

func TestProductColWiseMatchesRowWise(t *testing.T) {
	a := scenario1Matrix(t, false)
	id := identityMatrix(t, []int{3, 3, 3})

	rowWise, err := block.Product(a, id, false, false, false, newDense3, 0)
	require.NoError(t, err)
	colWise, err := block.Product(a, id, false, false, true, newDense3, 0)
	require.NoError(t, err)

	x := Scalar9(1)
	y1 := make([]float64, 9)
	y2 := make([]float64, 9)
	require.NoError(t, block.SpMV(1, rowWise, block.Identity, x, 0, y1, 0))
	require.NoError(t, block.SpMV(1, colWise, block.Identity, x, 0, y2, 0))
	for i := range y1 {
		require.InDelta(t, y1[i], y2[i], 1e-9)
	}
}

// TestProductAssociativity checks (A*B)*x == A*(B*x) (spec.md §8).
func TestProductAssociativity(t *testing.T) {
	a := scenario1Matrix(t, false)
	b := scenario1Matrix(t, false)

	ab, err := block.Product(a, b, false, false, false, newDense3, 0)
	require.NoError(t, err)

	x := Scalar9(1)
	bx := make([]float64, 9)
	require.NoError(t, block.SpMV(1, b, block.Identity, x, 0, bx, 0))
	aBx := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Identity, bx, 0, aBx, 0))

	abx := make([]float64, 9)
	require.NoError(t, block.SpMV(1, ab, block.Identity, x, 0, abx, 0))

	for i := range abx {
		require.InDelta(t, aBx[i], abx[i], 1e-9)
	}
}
