package block

import "errors"

// Structural errors are fatal and reported at the point of violation: they
// signal a programmer mistake (bad dimensions, insertion out of order,
// use of a non-finalized index) rather than a numerical failure to
// converge, which is instead signalled through return values (see the
// soc and pgs packages).
var (
	// ErrDimensionMismatch is returned when operand dimensions are
	// inconsistent with a matrix's declared row/column block sizes.
	ErrDimensionMismatch = errors.New("block: dimension mismatch")

	// ErrOrderViolation is returned by InsertBack on a COMPRESSED matrix
	// when the (outer, inner) pair being inserted does not strictly
	// exceed the previously inserted one.
	ErrOrderViolation = errors.New("block: index insertion out of order")

	// ErrSymmetryViolation is returned by Insert/InsertBack on a
	// SYMMETRIC matrix when inner > outer in row-major orientation.
	ErrSymmetryViolation = errors.New("block: symmetric storage requires inner <= outer")

	// ErrIndexNotFinalized is returned by any operation that requires a
	// finalized major index (lookup, SpMV, products) when Finalize has
	// not been called since the last structural mutation.
	ErrIndexNotFinalized = errors.New("block: index not finalized")
)
