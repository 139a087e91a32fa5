package block

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Op selects whether SpMV multiplies by the matrix itself or its
// transpose (spec.md §4.3.1).
type Op int

const (
	Identity Op = iota
	Transpose
)

// SpMV computes y <- alpha*op(A)*x + beta*y (spec.md §4.3.1). Dimension
// compatibility is checked once up front (ErrDimensionMismatch). For
// SYMMETRIC matrices op is ignored: A == Aᵀ numerically, so both
// triangles are always expanded regardless of which orientation was
// requested.
func SpMV[B Block](alpha Scalar, m *Matrix[B], op Op, x []Scalar, beta Scalar, y []Scalar, maxThreads int) error {
	if !m.major.Valid() {
		return ErrIndexNotFinalized
	}

	outDim, inDim := m.Rows(), m.Cols()
	if op == Transpose && !m.Symmetric {
		outDim, inDim = inDim, outDim
	}
	if len(x) != inDim || len(y) != outDim {
		return ErrDimensionMismatch
	}

	scaleVec(y, beta)

	if m.Symmetric {
		return spmvSymmetric(alpha, m, x, y, maxThreads)
	}

	aligned := (op == Identity) != m.ColMajor
	if aligned {
		return spmvAligned(alpha, m.major, m.blocks, m.outerSizes(), m.innerSizes(), op == Transpose, x, y, maxThreads)
	}

	// Opposing orientation: realign via the cached transpose if present,
	// else the minor index (computed and cached lazily), else fail
	// closed rather than silently serializing, per spec.md §4.3.1's
	// "the implementation must either compute the minor index first or
	// use atomic/serial accumulation" — we always choose the former.
	if m.transposeIndex != nil {
		return spmvAligned(alpha, m.transposeIndex, m.transposeBlocks, m.innerSizes(), m.outerSizes(), op == Identity, x, y, maxThreads)
	}
	if m.minor == nil {
		if err := m.ComputeMinorIndex(); err != nil {
			return err
		}
	}
	return spmvAligned(alpha, m.minor, m.blocks, m.innerSizes(), m.outerSizes(), op == Transpose, x, y, maxThreads)
}

func scaleVec(y []Scalar, beta Scalar) {
	if beta == 1 {
		return
	}
	for i := range y {
		y[i] *= beta
	}
}

// spmvAligned runs the parallel-over-outer-slice accumulation common to
// every non-symmetric SpMV case: idx's outer axis is aligned with the
// output vector y, its inner axis with the input vector x.
func spmvAligned[B Block](alpha Scalar, idx *Index, blocks []B, outSizes, inSizes []int, trans bool, x, y []Scalar, maxThreads int) error {
	outOff := offsets(outSizes)
	inOff := offsets(inSizes)

	g, ctx := errgroup.WithContext(context.Background())
	sem := newSemaphore(maxThreads)
	for o := 0; o < idx.OuterSize(); o++ {
		o := o
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			dst := y[outOff[o]:outOff[o+1]]
			idx.Each(o, func(inner, ptr int) bool {
				blockMatVec(dst, blocks[ptr], trans, x[inOff[inner]:inOff[inner+1]], alpha)
				return true
			})
			return nil
		})
	}
	return g.Wait()
}

// spmvSymmetric expands the implicit stored-once triangle of a
// Symmetric matrix in two sequential (each internally parallel) phases:
// phase 1 walks the stored (lower, row-major) triangle contributing to
// y at the outer (row) index; phase 2 walks the minor index (the
// strict upper triangle, no diagonal) contributing the transposed
// mirror to y at its outer (column) index. The two phases must not run
// concurrently with each other since both may write the same y segment
// from different source rows.
func spmvSymmetric[B Block](alpha Scalar, m *Matrix[B], x, y []Scalar, maxThreads int) error {
	rowOff := offsets(m.rowBlockSizes)
	colOff := offsets(m.colBlockSizes)

	g, ctx := errgroup.WithContext(context.Background())
	sem := newSemaphore(maxThreads)
	for i := 0; i < m.major.OuterSize(); i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			dst := y[rowOff[i]:rowOff[i+1]]
			m.major.Each(i, func(j, ptr int) bool {
				blockMatVec(dst, m.blocks[ptr], false, x[colOff[j]:colOff[j+1]], alpha)
				return true
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if m.minor == nil {
		if err := m.ComputeMinorIndex(); err != nil {
			return err
		}
	}

	g2, ctx2 := errgroup.WithContext(context.Background())
	sem2 := newSemaphore(maxThreads)
	for j := 0; j < m.minor.OuterSize(); j++ {
		j := j
		if err := sem2.Acquire(ctx2, 1); err != nil {
			return err
		}
		g2.Go(func() error {
			defer sem2.Release(1)
			dst := y[rowOff[j]:rowOff[j+1]]
			m.minor.Each(j, func(i, ptr int) bool {
				blockMatVec(dst, m.blocks[ptr], true, x[colOff[i]:colOff[i+1]], alpha)
				return true
			})
			return nil
		})
	}
	return g2.Wait()
}

// SplitRowMultiply computes y += sum_{j != k} A[k,j]*x[j]: the full
// block-row k excluding the diagonal block, used inside projected
// Gauss-Seidel (spec.md §4.3.2). For Symmetric storage, it reads both
// the half-stored row (major, j < k) and the transposed half (the
// minor index column at k, i > k), since neither alone holds the full
// row.
func SplitRowMultiply[B Block](m *Matrix[B], k int, x, y []Scalar) error {
	if !m.major.Valid() {
		return ErrIndexNotFinalized
	}
	colOff := offsets(m.colBlockSizes)

	if m.Symmetric {
		m.major.Each(k, func(j, ptr int) bool {
			if j == k {
				return true
			}
			blockMatVec(y, m.blocks[ptr], false, x[colOff[j]:colOff[j+1]], 1)
			return true
		})
		if m.minor == nil {
			if err := m.ComputeMinorIndex(); err != nil {
				return err
			}
		}
		m.minor.Each(k, func(i, ptr int) bool {
			blockMatVec(y, m.blocks[ptr], true, x[colOff[i]:colOff[i+1]], 1)
			return true
		})
		return nil
	}

	if m.ColMajor {
		// Row k of a column-major matrix is scattered across the minor
		// index (each column's entry whose inner == k).
		if m.minor == nil {
			if err := m.ComputeMinorIndex(); err != nil {
				return err
			}
		}
		m.minor.Each(k, func(j, ptr int) bool {
			if j == k {
				return true
			}
			blockMatVec(y, m.blocks[ptr], false, x[colOff[j]:colOff[j+1]], 1)
			return true
		})
		return nil
	}

	m.major.Each(k, func(j, ptr int) bool {
		if j == k {
			return true
		}
		blockMatVec(y, m.blocks[ptr], false, x[colOff[j]:colOff[j+1]], 1)
		return true
	})
	return nil
}

// RowNeighbors returns the block-column indices that block-row k has a
// structural (non-diagonal) coupling with, used by the projected
// Gauss-Seidel solver's deterministic coloring (spec.md §7.3) to find
// independent sets of rows.
func (m *Matrix[B]) RowNeighbors(k int) []int {
	if !m.major.Valid() {
		return nil
	}
	var out []int
	m.major.Each(k, func(j, _ int) bool {
		if j != k {
			out = append(out, j)
		}
		return true
	})
	if m.Symmetric {
		if m.minor == nil {
			if err := m.ComputeMinorIndex(); err != nil {
				return out
			}
		}
		m.minor.Each(k, func(j, _ int) bool {
			out = append(out, j)
			return true
		})
	}
	return out
}
