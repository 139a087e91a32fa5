package block

// This file realizes Design Notes §9 "Expression templates → explicit
// intermediates": rather than a deferred-evaluation expression tree, the
// client-visible algebra operators (spec.md §6) are plain functions and
// methods that evaluate immediately: the only view type is Trans, and
// there is no deferred evaluation step. A*B always materializes
// (Product, in product.go); A*x does not need to — it writes directly
// into the caller's destination slice.

// Trans is a non-owning transposed view of a Matrix, valid only while
// the underlying matrix is unmodified (spec.md §3 "Ownership").
type Trans[B Block] struct {
	M *Matrix[B]
}

// MulVec evaluates alpha*A*x + beta*y into y. The transposed product is
// Trans.MulVec.
func MulVec[B Block](m *Matrix[B], alpha Scalar, x []Scalar, beta Scalar, y []Scalar, maxThreads int) error {
	return SpMV(alpha, m, Identity, x, beta, y, maxThreads)
}

// MulVec evaluates alpha*A^T*x + beta*y into y.
func (t Trans[B]) MulVec(alpha Scalar, x []Scalar, beta Scalar, y []Scalar, maxThreads int) error {
	return SpMV(alpha, t.M, Transpose, x, beta, y, maxThreads)
}

// Scale multiplies every stored block by s in place (A *= s).
func (m *Matrix[B]) Scale(s Scalar) {
	for i := range m.blocks {
		m.blocks[i].Scale(s)
	}
	if m.transposeBlocks != nil {
		for i := range m.transposeBlocks {
			m.transposeBlocks[i].Scale(s)
		}
	}
}

// AXPY computes m += alpha*other in place. It requires other to share
// the receiver's exact sparsity structure (same finalized major index
// shape); combining matrices with different structure would require
// materializing a new structural union, which is the job of Product's
// symbolic phase, not of a simple scaled add — so that case returns
// ErrDimensionMismatch rather than silently reshaping the receiver.
func (m *Matrix[B]) AXPY(alpha Scalar, other *Matrix[B]) error {
	if m.NBlocks() != other.NBlocks() || m.RowsOfBlocks() != other.RowsOfBlocks() || m.ColsOfBlocks() != other.ColsOfBlocks() {
		return ErrDimensionMismatch
	}
	for o := 0; o < m.major.OuterSize(); o++ {
		var err error
		m.major.Each(o, func(inner, ptr int) bool {
			otherPtr, ok := other.major.Lookup(o, inner)
			if !ok {
				err = ErrDimensionMismatch
				return false
			}
			scaled := other.blocks[otherPtr].Clone()
			scaled.Scale(alpha)
			m.blocks[ptr].Add(scaled)
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}
