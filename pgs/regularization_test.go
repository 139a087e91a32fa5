package pgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegularizationShiftLiftsIndefiniteBlock checks the Gershgorin
// bound against a hand-computed case: W = [[0.01,0.5],[0.5,0.01]] has
// eigenvalues 0.51 and -0.49, so its Gershgorin lower bound is
// 0.01-0.5 = -0.49 and reaching auto_reg=1.0 needs alpha=1.49.
func TestRegularizationShiftLiftsIndefiniteBlock(t *testing.T) {
	w := []float64{0.01, 0.5, 0.5, 0.01}
	alpha := regularizationShift(w, 2, 1.0)
	require.InDelta(t, 1.49, alpha, 1e-9)
}

// TestRegularizationShiftNoOpWhenAlreadyAboveFloor checks that a
// diagonally dominant block already at or above auto_reg needs no
// shift.
func TestRegularizationShiftNoOpWhenAlreadyAboveFloor(t *testing.T) {
	w := []float64{5, 0, 0, 0, 5, 0, 0, 0, 5}
	alpha := regularizationShift(w, 3, 1.0)
	require.Equal(t, 0.0, alpha)
}
