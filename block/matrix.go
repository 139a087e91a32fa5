package block

import (
	"fmt"
	"sync"
)

// Matrix is a block-sparse matrix (spec.md C3): it owns block storage
// plus one major Index (oriented per ColMajor) and optionally a cached
// minor Index and a cached transpose. B is the concrete Block
// implementation stored by this matrix (Dense2, Dense3 or DenseBlock).
type Matrix[B Block] struct {
	rowBlockSizes []int
	colBlockSizes []int
	rowCount      int
	colCount      int

	blocks []B
	newBlk func(r, c int) B

	major *Index
	minor *Index

	transposeIndex  *Index
	transposeBlocks []B

	Compressed bool
	ColMajor   bool
	Symmetric  bool

	mu sync.Mutex
}

// NewMatrix creates an empty matrix with the given storage flags. newBlk
// constructs a zeroed r x c block of the concrete type B; it is supplied
// explicitly because B is a generic type parameter and Go generics have
// no way to default-construct an arbitrary interface implementation.
func NewMatrix[B Block](compressed, colMajor, symmetric bool, newBlk func(r, c int) B) *Matrix[B] {
	return &Matrix[B]{
		Compressed: compressed,
		ColMajor:   colMajor,
		Symmetric:  symmetric,
		newBlk:     newBlk,
		major:      NewIndex(compressed, 0),
	}
}

// RowsOfBlocks returns the number of block-rows.
func (m *Matrix[B]) RowsOfBlocks() int { return len(m.rowBlockSizes) }

// ColsOfBlocks returns the number of block-columns.
func (m *Matrix[B]) ColsOfBlocks() int { return len(m.colBlockSizes) }

// Rows returns the scalar row dimension.
func (m *Matrix[B]) Rows() int { return m.rowCount }

// Cols returns the scalar column dimension.
func (m *Matrix[B]) Cols() int { return m.colCount }

// NBlocks returns the number of stored blocks.
func (m *Matrix[B]) NBlocks() int { return len(m.blocks) }

// RowBlockSize returns the scalar size of block-row i.
func (m *Matrix[B]) RowBlockSize(i int) int { return m.rowBlockSizes[i] }

// ColBlockSize returns the scalar size of block-column j.
func (m *Matrix[B]) ColBlockSize(j int) int { return m.colBlockSizes[j] }

// RowOffset returns the scalar offset of block-row i's first entry.
func (m *Matrix[B]) RowOffset(i int) int { return sum(m.rowBlockSizes[:i]) }

// ColOffset returns the scalar offset of block-column j's first entry.
func (m *Matrix[B]) ColOffset(j int) int { return sum(m.colBlockSizes[:j]) }

func sum(sizes []int) int {
	s := 0
	for _, v := range sizes {
		s += v
	}
	return s
}

func offsets(sizes []int) []int {
	off := make([]int, len(sizes)+1)
	for i, v := range sizes {
		off[i+1] = off[i] + v
	}
	return off
}

// outerSizes/innerSizes return the block-size arrays in (outer,inner)
// order given the matrix's orientation: row-major has outer=rows,
// inner=cols; column-major swaps them (spec.md §3, "Outer / inner").
func (m *Matrix[B]) outerSizes() []int {
	if m.ColMajor {
		return m.colBlockSizes
	}
	return m.rowBlockSizes
}

func (m *Matrix[B]) innerSizes() []int {
	if m.ColMajor {
		return m.rowBlockSizes
	}
	return m.colBlockSizes
}

// SetRows declares the block-row sizes, recomputing dimensions and
// invalidating all cached indices (major, minor, transpose).
func (m *Matrix[B]) SetRows(sizes []int) {
	m.rowBlockSizes = append([]int(nil), sizes...)
	m.rowCount = sum(sizes)
	m.resetIndices()
}

// SetCols declares the block-column sizes, recomputing dimensions and
// invalidating all cached indices.
func (m *Matrix[B]) SetCols(sizes []int) {
	m.colBlockSizes = append([]int(nil), sizes...)
	m.colCount = sum(sizes)
	m.resetIndices()
}

func (m *Matrix[B]) resetIndices() {
	m.blocks = nil
	m.minor = nil
	m.transposeIndex = nil
	m.transposeBlocks = nil
	outerN := len(m.outerSizes())
	m.major = NewIndex(m.Compressed, outerN)
	m.major.SetInnerSize(len(m.innerSizes()))
	if len(m.innerSizes()) > 0 {
		m.major.InnerOffsets = offsets(m.innerSizes())
	}
}

// Reserve hints the expected number of blocks to the storage allocator;
// it has no behavioural effect beyond avoiding reallocation.
func (m *Matrix[B]) Reserve(n int) {
	if cap(m.blocks)-len(m.blocks) < n {
		grown := make([]B, len(m.blocks), len(m.blocks)+n)
		copy(grown, m.blocks)
		m.blocks = grown
	}
}

// outerInner maps a (row, col) pair to (outer, inner) according to
// orientation.
func (m *Matrix[B]) outerInner(row, col int) (outer, inner int) {
	if m.ColMajor {
		return col, row
	}
	return row, col
}

// InsertBack appends a new block at (row, col) in block-index
// coordinates and returns it for the caller to fill in. For a
// Compressed matrix, (outer, inner) must strictly exceed the previously
// inserted pair (ErrOrderViolation otherwise). If Symmetric, row-major
// orientation requires col <= row (ErrSymmetryViolation otherwise).
func (m *Matrix[B]) InsertBack(row, col int) (B, error) {
	var zero B
	if m.Symmetric && col > row {
		return zero, fmt.Errorf("%w: (%d,%d)", ErrSymmetryViolation, row, col)
	}
	outer, inner := m.outerInner(row, col)
	rs, cs := m.rowBlockSizes[row], m.colBlockSizes[col]
	blk := m.newBlk(rs, cs)
	ptr := len(m.blocks)
	m.blocks = append(m.blocks, blk)
	if err := m.major.InsertBack(outer, inner, ptr); err != nil {
		m.blocks = m.blocks[:ptr]
		return zero, err
	}
	m.minor = nil
	m.transposeIndex = nil
	return blk, nil
}

// Insert appends a new block as InsertBack does, but is safe to call
// concurrently from multiple goroutines provided each call targets a
// distinct outer slice (spec.md §5, "Assembly via insert"). Only valid
// for Uncompressed matrices; concurrent inserts into the *same* outer
// slice still require external synchronization by the caller.
func (m *Matrix[B]) Insert(row, col int) (B, error) {
	var zero B
	if m.Compressed {
		return zero, fmt.Errorf("block: Insert requires an uncompressed matrix")
	}
	if m.Symmetric && col > row {
		return zero, fmt.Errorf("%w: (%d,%d)", ErrSymmetryViolation, row, col)
	}
	outer, inner := m.outerInner(row, col)
	rs, cs := m.rowBlockSizes[row], m.colBlockSizes[col]
	blk := m.newBlk(rs, cs)

	m.mu.Lock()
	ptr := len(m.blocks)
	m.blocks = append(m.blocks, blk)
	m.mu.Unlock()

	// The inner-sequence append below mutates only outer slice `outer`
	// and is therefore safe without the mutex as long as callers respect
	// the "distinct outer slice" contract documented above.
	if err := m.major.InsertBack(outer, inner, ptr); err != nil {
		return zero, err
	}
	m.minor = nil
	m.transposeIndex = nil
	return blk, nil
}

// Finalize sorts uncompressed rows, marks the major index valid, and
// invalidates the minor/transpose caches. If Symmetric, it additionally
// triggers ComputeMinorIndex eagerly, since symmetric SpMV always needs
// to walk the minor index to expand the implicit other triangle.
func (m *Matrix[B]) Finalize(maxThreads int) error {
	if err := m.major.Finalize(maxThreads); err != nil {
		return err
	}
	m.minor = nil
	m.transposeIndex = nil
	if m.Symmetric {
		return m.ComputeMinorIndex()
	}
	return nil
}

// ComputeMinorIndex (re)derives the minor (transposed) index from the
// major index. For Symmetric storage the minor index omits diagonal
// blocks (spec.md I2).
func (m *Matrix[B]) ComputeMinorIndex() error {
	if !m.major.Valid() {
		return ErrIndexNotFinalized
	}
	minor := NewIndex(false, len(m.innerSizes()))
	minor.SetInnerSize(len(m.outerSizes()))
	if err := minor.SetToTranspose(m.major, m.Symmetric); err != nil {
		return err
	}
	m.minor = minor
	return nil
}

// CacheTranspose builds a contiguous transposeBlocks array so that future
// SpMV calls with the opposing orientation can avoid recomputing
// structure (spec.md §4.3.4). It ensures the minor index first.
func (m *Matrix[B]) CacheTranspose() error {
	if m.minor == nil {
		if err := m.ComputeMinorIndex(); err != nil {
			return err
		}
	}
	// Indexed by the original block pointer, which is what the minor
	// index's entries carry and what SpMV looks up.
	blocks := make([]B, len(m.blocks))
	for o := 0; o < m.minor.OuterSize(); o++ {
		m.minor.Each(o, func(_, ptr int) bool {
			blocks[ptr] = m.blocks[ptr].Transpose().(B)
			return true
		})
	}
	m.transposeIndex = m.minor
	m.transposeBlocks = blocks
	return nil
}

// BlockPtr returns the block stored at (row, col), if any. The major
// index must be finalized. For Symmetric storage, row/col are swapped as
// necessary so the lookup always queries with inner <= outer.
func (m *Matrix[B]) BlockPtr(row, col int) (B, bool) {
	var zero B
	if !m.major.Valid() {
		return zero, false
	}
	if m.Symmetric && col > row {
		row, col = col, row
	}
	outer, inner := m.outerInner(row, col)
	ptr, ok := m.major.Lookup(outer, inner)
	if !ok {
		return zero, false
	}
	return m.blocks[ptr], true
}

// Diagonal returns the diagonal block of block-row k. For Symmetric,
// row-major storage this is a fast path (when present, the diagonal is
// the last entry of the outer slice); otherwise it is equivalent to
// BlockPtr(k, k).
func (m *Matrix[B]) Diagonal(k int) (B, bool) {
	var zero B
	if m.Symmetric && !m.ColMajor {
		ptr, ok := m.major.Last(k)
		if !ok {
			return zero, false
		}
		// The last entry is the diagonal only if its inner index is k; a
		// row without a stored diagonal block reports ok=false.
		var lastInner int
		if m.major.Compressed {
			lastInner = m.major.inner[m.major.rowPtr[k+1]-1]
		} else {
			row := m.major.outer[k]
			lastInner = row[len(row)-1].inner
		}
		if lastInner != k {
			return zero, false
		}
		return m.blocks[ptr], true
	}
	return m.BlockPtr(k, k)
}

// Block returns the block at (row, col) or the zero value with ok=false.
func (m *Matrix[B]) Block(row, col int) (B, bool) { return m.BlockPtr(row, col) }
