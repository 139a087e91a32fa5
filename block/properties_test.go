package block_test

import (
	"math/rand"
	"testing"

	"github.com/soccp-go/soccp/block"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// TestSpMVTransposeDuality checks <A.x, y> == <x, A^T.y> (spec.md §8),
// both without and with a cached transpose.
func TestSpMVTransposeDuality(t *testing.T) {
	a := scenario1Matrix(t, false)
	rng := rand.New(rand.NewSource(1))
	x := randVec(rng, 9)
	y := randVec(rng, 9)

	ax := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Identity, x, 0, ax, 0))
	lhs := floats.Dot(ax, y)

	aty := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Transpose, y, 0, aty, 0))
	rhs := floats.Dot(x, aty)

	require.InDelta(t, lhs, rhs, 1e-9)

	require.NoError(t, a.CacheTranspose())
	aty2 := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Transpose, y, 0, aty2, 0))
	require.InDelta(t, rhs, floats.Dot(x, aty2), 1e-9)
}

// TestSpMVLinearity checks A.(ax+y) == a(A.x) + A.y (spec.md §8).
func TestSpMVLinearity(t *testing.T) {
	a := scenario1Matrix(t, false)
	rng := rand.New(rand.NewSource(2))
	x := randVec(rng, 9)
	y := randVec(rng, 9)
	alpha := 1.7

	combo := make([]float64, 9)
	for i := range combo {
		combo[i] = alpha*x[i] + y[i]
	}
	lhs := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Identity, combo, 0, lhs, 0))

	ax := make([]float64, 9)
	ay := make([]float64, 9)
	require.NoError(t, block.SpMV(1, a, block.Identity, x, 0, ax, 0))
	require.NoError(t, block.SpMV(1, a, block.Identity, y, 0, ay, 0))
	rhs := make([]float64, 9)
	for i := range rhs {
		rhs[i] = alpha*ax[i] + ay[i]
	}

	for i := range lhs {
		require.InDelta(t, rhs[i], lhs[i], 1e-9)
	}
}

// TestCompressedUncompressedRebuild checks that converting a compressed
// matrix's contents into an uncompressed matrix (and vice versa) yields
// the same SpMV output (spec.md §8).
func TestCompressedUncompressedRebuild(t *testing.T) {
	uncompressed := scenario1Matrix(t, false)

	compressed := block.NewMatrix(true, false, false, newDense3)
	compressed.SetRows([]int{3, 3, 3})
	compressed.SetCols([]int{3, 3, 3})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			src, ok := uncompressed.BlockPtr(i, j)
			if !ok {
				continue
			}
			dst, err := compressed.InsertBack(i, j)
			require.NoError(t, err)
			dst.Add(src)
		}
	}
	require.NoError(t, compressed.Finalize(0))

	x := randVec(rand.New(rand.NewSource(3)), 9)
	y1 := make([]float64, 9)
	y2 := make([]float64, 9)
	require.NoError(t, block.SpMV(1, uncompressed, block.Identity, x, 0, y1, 0))
	require.NoError(t, block.SpMV(1, compressed, block.Identity, x, 0, y2, 0))
	for i := range y1 {
		require.InDelta(t, y1[i], y2[i], 1e-12)
	}
}

func randVec(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	return v
}
