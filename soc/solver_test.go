package soc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRealRootsQuadratic matches spec.md §8 scenario 5: x^2-1 has
// roots {-1,1}; x^2-2x+1 has the double root {1,1}.
func TestRealRootsQuadratic(t *testing.T) {
	roots := RealRoots([]float64{-1, 0})
	require.Len(t, roots, 2)
	require.ElementsMatch(t, []float64{-1, 1}, roundAll(roots))

	roots = RealRoots([]float64{1, -2})
	require.Len(t, roots, 2)
	require.InDelta(t, 1, roots[0], 1e-9)
	require.InDelta(t, 1, roots[1], 1e-9)
}

func TestRealRootsQuadraticNoRealRoots(t *testing.T) {
	roots := RealRoots([]float64{1, 0}) // x^2+1
	require.Empty(t, roots)
}

// TestRealRootsQuartic checks the quartic path against a polynomial
// with known integer roots: (x-1)(x+1)(x-2)(x+2) = x^4-5x^2+4.
func TestRealRootsQuartic(t *testing.T) {
	roots := RealRoots([]float64{4, 0, -5, 0})
	require.Len(t, roots, 4)
	require.ElementsMatch(t, []float64{-2, -1, 1, 2}, roundAll(roots))
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = round9(x)
	}
	return out
}

func round9(x float64) float64 {
	const scale = 1e9
	if x < 0 {
		return -float64(int64(-x*scale+0.5)) / scale
	}
	return float64(int64(x*scale+0.5)) / scale
}

// TestSolveQuarticSOCCPScenario matches spec.md §8 scenario 4: the
// hybrid solver on W=diag(0.4,0.9,0.9), b=(0,0,0.542629), mu=0.8
// produces (r,u=Wr+b) with u^N ≈ mu*||u^T|| and <u,r> ~ 0.
func TestSolveQuarticSOCCPScenario(t *testing.T) {
	w := []float64{
		0.4, 0, 0,
		0, 0.9, 0,
		0, 0, 0.9,
	}
	b := []float64{0, 0, 0.542629}
	mu := 0.8

	res := Solve(3, w, b, mu, nil, DefaultOptions())
	require.True(t, res.Solved)
	require.Greater(t, res.R[0], 0.0)
	require.Greater(t, res.U[0], 0.0)

	tnorm := tangentNorm(res.U)
	require.InDelta(t, mu*tnorm, res.U[0], 1e-6)

	require.Less(t, dot(res.U, res.R), 1e-9)
}

// TestSolveStickCandidate checks a separating contact (free velocity
// already non-penetrating) resolves to r=0.
func TestSolveStickCandidate(t *testing.T) {
	w := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	b := []float64{1, 0, 0}
	res := Solve(3, w, b, 0.5, nil, DefaultOptions())
	require.True(t, res.Solved)
	require.InDelta(t, 0, res.R[0], 1e-9)
	require.InDelta(t, 0, res.R[1], 1e-9)
	require.InDelta(t, 0, res.R[2], 1e-9)
}

// TestSolvePureEnumerativeScenario4 drives spec.md §8 scenario 4
// directly through Strategy: PureEnumerative (never touching Newton),
// exercising the isotropic sliding-candidate path end to end rather
// than relying on Hybrid's fallback order to reach it incidentally.
func TestSolvePureEnumerativeScenario4(t *testing.T) {
	w := []float64{
		0.4, 0, 0,
		0, 0.9, 0,
		0, 0, 0.9,
	}
	b := []float64{0, 0, 0.542629}
	mu := 0.8

	opts := DefaultOptions()
	opts.Strategy = PureEnumerative
	res := Solve(3, w, b, mu, nil, opts)

	require.True(t, res.Solved)
	require.Greater(t, res.R[0], 0.0)
	require.Greater(t, res.U[0], 0.0)

	tnorm := tangentNorm(res.U)
	require.InDelta(t, mu*tnorm, res.U[0], 1e-6)
	require.Less(t, dot(res.U, res.R), 1e-9)
}

func TestSolvePureNewtonMatchesHybrid(t *testing.T) {
	w := []float64{0.4, 0, 0, 0, 0.9, 0, 0, 0, 0.9}
	b := []float64{0, 0, 0.542629}
	mu := 0.8

	hybrid := Solve(3, w, b, mu, nil, DefaultOptions())
	opts := DefaultOptions()
	opts.Strategy = PureNewton
	newton := Solve(3, w, b, mu, nil, opts)

	require.InDelta(t, hybrid.R[0], newton.R[0], 1e-6)
	require.InDelta(t, hybrid.R[2], newton.R[2], 1e-6)
}
