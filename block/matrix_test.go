package block_test

import (
	"testing"

	"github.com/soccp-go/soccp/block"
	"github.com/stretchr/testify/require"
)

func newDense3() *block.Dense3 { return &block.Dense3{} }

// scenario1Matrix builds the 3x3-block example from spec.md §8 scenario
// 1: B[0,0]=ones(3,3), B[1,0]=[[2,0,0],[2,2,0],[2,2,2]],
// B[2,2]=3*ones(3,3).
func scenario1Matrix(t *testing.T, symmetric bool) *block.Matrix[*block.Dense3] {
	t.Helper()
	m := block.NewMatrix(false, false, symmetric, newDense3)
	m.SetRows([]int{3, 3, 3})
	m.SetCols([]int{3, 3, 3})

	b00, err := m.InsertBack(0, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b00.Set(i, j, 1)
		}
	}

	if !symmetric {
		b10, err := m.InsertBack(1, 0)
		require.NoError(t, err)
		b10.Set(0, 0, 2)
		b10.Set(1, 0, 2)
		b10.Set(1, 1, 2)
		b10.Set(2, 0, 2)
		b10.Set(2, 1, 2)
		b10.Set(2, 2, 2)
	} else {
		// symmetric storage only keeps inner <= outer (col <= row in
		// row-major); (1,0) satisfies that already.
		b10, err := m.InsertBack(1, 0)
		require.NoError(t, err)
		b10.Set(0, 0, 2)
		b10.Set(1, 0, 2)
		b10.Set(1, 1, 2)
		b10.Set(2, 0, 2)
		b10.Set(2, 1, 2)
		b10.Set(2, 2, 2)
	}

	b22, err := m.InsertBack(2, 2)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b22.Set(i, j, 3)
		}
	}

	require.NoError(t, m.Finalize(0))
	return m
}

func TestSpMVScenario1(t *testing.T) {
	m := scenario1Matrix(t, false)
	x := Scalar9(1)
	y := make([]float64, 9)
	err := block.SpMV(1, m, block.Identity, x, 0, y, 0)
	require.NoError(t, err)
	want := []float64{3, 3, 3, 2, 4, 6, 9, 9, 9}
	for i := range want {
		require.InDelta(t, want[i], y[i], 1e-12)
	}
}

func TestSpMVScenario2SymmetricExpansion(t *testing.T) {
	m := scenario1Matrix(t, true)
	x := Scalar9(1)
	y := make([]float64, 9)
	err := block.SpMV(1, m, block.Identity, x, 0, y, 0)
	require.NoError(t, err)
	want := []float64{9, 7, 5, 2, 4, 6, 9, 9, 9}
	for i := range want {
		require.InDelta(t, want[i], y[i], 1e-12)
	}
}

func TestSplitRowMultiplyScenario3(t *testing.T) {
	m := scenario1Matrix(t, false)
	x := Scalar9(1)

	y1 := []float64{1, 1, 1}
	require.NoError(t, block.SplitRowMultiply(m, 1, x, y1))
	require.InDelta(t, 3.0, y1[0], 1e-12)
	require.InDelta(t, 5.0, y1[1], 1e-12)
	require.InDelta(t, 7.0, y1[2], 1e-12)

	y0 := []float64{1, 1, 1}
	require.NoError(t, block.SplitRowMultiply(m, 0, x, y0))
	require.InDelta(t, 1.0, y0[0], 1e-12)
	require.InDelta(t, 1.0, y0[1], 1e-12)
	require.InDelta(t, 1.0, y0[2], 1e-12)

	y2 := []float64{1, 1, 1}
	require.NoError(t, block.SplitRowMultiply(m, 2, x, y2))
	require.InDelta(t, 1.0, y2[0], 1e-12)
	require.InDelta(t, 1.0, y2[1], 1e-12)
	require.InDelta(t, 1.0, y2[2], 1e-12)
}

func Scalar9(v float64) []float64 {
	x := make([]float64, 9)
	for i := range x {
		x[i] = v
	}
	return x
}

func TestDiagonalSymmetricFastPath(t *testing.T) {
	m := scenario1Matrix(t, true)
	d, ok := m.Diagonal(2)
	require.True(t, ok)
	require.InDelta(t, 3.0, d.At(2, 2), 1e-12)

	// Row 1 stores only the off-diagonal block (1,0).
	_, ok = m.Diagonal(1)
	require.False(t, ok)
}

func TestBlockPtrMiss(t *testing.T) {
	m := scenario1Matrix(t, false)
	_, ok := m.BlockPtr(0, 2)
	require.False(t, ok)
}

func TestInsertBackOrderViolationCompressed(t *testing.T) {
	m := block.NewMatrix(true, false, false, newDense3)
	m.SetRows([]int{3, 3})
	m.SetCols([]int{3, 3})
	_, err := m.InsertBack(1, 1)
	require.NoError(t, err)
	_, err = m.InsertBack(1, 0)
	require.ErrorIs(t, err, block.ErrOrderViolation)
}

func TestInsertBackSymmetryViolation(t *testing.T) {
	m := block.NewMatrix(false, false, true, newDense3)
	m.SetRows([]int{3, 3})
	m.SetCols([]int{3, 3})
	_, err := m.InsertBack(0, 1)
	require.ErrorIs(t, err, block.ErrSymmetryViolation)
}

func TestPruneIdempotence(t *testing.T) {
	m2 := block.NewMatrix(false, false, false, newDense3)
	m2.SetRows([]int{3, 3})
	m2.SetCols([]int{3, 3})
	b, _ := m2.InsertBack(0, 0)
	for i := 0; i < 3; i++ {
		b.Set(i, i, 1)
	}
	z, _ := m2.InsertBack(0, 1)
	_ = z // all-zero block
	require.NoError(t, m2.Finalize(0))
	require.Equal(t, 2, m2.NBlocks())

	require.NoError(t, m2.Prune(1e-9, 0))
	require.Equal(t, 1, m2.NBlocks())
	nbz := m2.NBlocks()
	require.NoError(t, m2.Prune(1e-9, 0))
	require.Equal(t, nbz, m2.NBlocks())
}

func TestApplyPermutationRoundTrip(t *testing.T) {
	m := scenario1Matrix(t, false)
	perm := []int{2, 0, 1}
	inv := []int{1, 2, 0}

	permuted, err := m.ApplyPermutation(perm, 0)
	require.NoError(t, err)
	roundTrip, err := permuted.ApplyPermutation(inv, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			orig, origOk := m.BlockPtr(i, j)
			rt, rtOk := roundTrip.BlockPtr(i, j)
			require.Equal(t, origOk, rtOk)
			if origOk {
				for a := 0; a < 3; a++ {
					for b := 0; b < 3; b++ {
						require.InDelta(t, orig.At(a, b), rt.At(a, b), 1e-12)
					}
				}
			}
		}
	}
}
