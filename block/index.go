package block

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// entry is an (inner, block pointer) pair, the payload of one position in
// an Index's outer slice (spec.md C2).
type entry struct {
	inner int
	ptr   int
}

// Index is a sparse block index: for every outer slice it records the
// ordered list of (inner, block pointer) pairs that are non-zero. It
// implements both encodings named in spec.md §3:
//
//   - Uncompressed: outer[k] is an unsorted-until-Finalize slice of
//     entries, sorted in parallel across outer slices by Finalize.
//   - Compressed: a single rowPtr[0..outerSize] plus parallel inner/
//     blockPtr arrays; InsertBack requires strictly ascending (outer,
//     inner) order.
//
// A single type serves both encodings (selected by the Compressed field)
// because the two share every read-side operation (Lookup, Last,
// iteration, SetToTranspose) and only differ in how entries are appended
// — the same economy of representation the teacher's compressedSparse
// applies to CSR/CSC.
type Index struct {
	Compressed bool
	valid      bool

	outerN int
	innerN int

	// InnerOffsets gives the element-row (or -column) offsets of blocks
	// along the inner axis: offsets[k]..offsets[k+1]-1 are the scalar
	// rows of block-row k. Required before any linear algebra operation.
	InnerOffsets []int

	// uncompressed storage
	outer [][]entry

	// compressed storage
	rowPtr   []int
	inner    []int
	blockPtr []int

	lastOuter, lastInner int
	hasLast              bool
}

// NewIndex allocates an Index over outerN outer slices.
func NewIndex(compressed bool, outerN int) *Index {
	idx := &Index{Compressed: compressed, outerN: outerN}
	if compressed {
		idx.rowPtr = make([]int, outerN+1)
	} else {
		idx.outer = make([][]entry, outerN)
	}
	return idx
}

// OuterSize returns the number of outer slices.
func (idx *Index) OuterSize() int { return idx.outerN }

// Valid reports whether the index reflects a finalized, query-able state.
func (idx *Index) Valid() bool { return idx.valid }

// Clear empties the index back to outerN empty slices, preserving
// InnerOffsets (which are a function of block sizes, not content).
func (idx *Index) Clear() {
	if idx.Compressed {
		idx.rowPtr = make([]int, idx.outerN+1)
		idx.inner = nil
		idx.blockPtr = nil
	} else {
		idx.outer = make([][]entry, idx.outerN)
	}
	idx.valid = true
	idx.hasLast = false
}

// Resize changes the outer dimension, clearing content.
func (idx *Index) Resize(outerN int) {
	idx.outerN = outerN
	idx.valid = false
	idx.hasLast = false
	if idx.Compressed {
		idx.rowPtr = make([]int, outerN+1)
		idx.inner = nil
		idx.blockPtr = nil
	} else {
		idx.outer = make([][]entry, outerN)
	}
}

// InsertBack appends (outer, inner, ptr). For a compressed index this
// requires (outer, inner) to strictly exceed the previously inserted
// pair, returning ErrOrderViolation otherwise. For an uncompressed index
// any order is accepted; Finalize sorts each outer slice afterwards.
func (idx *Index) InsertBack(outer, inner, ptr int) error {
	if outer < 0 || outer >= idx.outerN {
		return fmt.Errorf("%w: outer index %d out of range [0,%d)", ErrDimensionMismatch, outer, idx.outerN)
	}
	if idx.Compressed {
		if idx.hasLast {
			if outer < idx.lastOuter || (outer == idx.lastOuter && inner <= idx.lastInner) {
				return fmt.Errorf("%w: (%d,%d) does not exceed previous (%d,%d)",
					ErrOrderViolation, outer, inner, idx.lastOuter, idx.lastInner)
			}
		}
		// rowPtr entries for any outer slices we skipped over stay equal
		// to the running count until we reach them.
		for o := idx.lastOuterFilled() + 1; o <= outer; o++ {
			idx.rowPtr[o] = len(idx.inner)
		}
		idx.inner = append(idx.inner, inner)
		idx.blockPtr = append(idx.blockPtr, ptr)
		idx.lastOuter, idx.lastInner, idx.hasLast = outer, inner, true
		idx.rowPtr[idx.outerN] = len(idx.inner)
		return nil
	}

	idx.outer[outer] = append(idx.outer[outer], entry{inner: inner, ptr: ptr})
	idx.valid = false
	return nil
}

// lastOuterFilled returns the highest outer index for which rowPtr has
// already been set during a compressed build (private bookkeeping used
// only by InsertBack).
func (idx *Index) lastOuterFilled() int {
	if !idx.hasLast {
		return -1
	}
	return idx.lastOuter
}

// Finalize sorts each uncompressed outer slice by inner index (in
// parallel across slices, mirroring the source's
// "#pragma omp parallel for" over SparseBlockIndex::finalize) and marks
// the index valid. It is a no-op (beyond validity bookkeeping and
// forward-filling rowPtr) for compressed indices, which are already
// sorted by construction.
func (idx *Index) Finalize(maxThreads int) error {
	if idx.Compressed {
		for o := idx.lastOuterFilled() + 1; o <= idx.outerN; o++ {
			idx.rowPtr[o] = len(idx.inner)
		}
		idx.valid = true
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	sem := newSemaphore(maxThreads)
	for i := range idx.outer {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			row := idx.outer[i]
			sort.Slice(row, func(a, b int) bool { return row[a].inner < row[b].inner })
			for k := 1; k < len(row); k++ {
				if row[k].inner == row[k-1].inner {
					return fmt.Errorf("block: duplicate inner index %d in outer slice %d after finalize", row[k].inner, i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	idx.valid = true
	return nil
}

// NonZeros returns the total number of (outer,inner) entries.
func (idx *Index) NonZeros() int {
	if idx.Compressed {
		return len(idx.inner)
	}
	n := 0
	for _, row := range idx.outer {
		n += len(row)
	}
	return n
}

// Size returns the number of entries in outer slice o.
func (idx *Index) Size(o int) int {
	if idx.Compressed {
		return idx.rowPtr[o+1] - idx.rowPtr[o]
	}
	return len(idx.outer[o])
}

// Last returns the block pointer of the greatest-inner entry of outer
// slice o (used to locate the diagonal block of a symmetric, row-major
// matrix, which is always stored last in its row).
func (idx *Index) Last(o int) (ptr int, ok bool) {
	if idx.Size(o) == 0 {
		return 0, false
	}
	if idx.Compressed {
		return idx.blockPtr[idx.rowPtr[o+1]-1], true
	}
	row := idx.outer[o]
	return row[len(row)-1].ptr, true
}

// Lookup performs an O(log k) binary search for (outer, inner), returning
// the stored block pointer if present. The index must be valid.
func (idx *Index) Lookup(o, inner int) (ptr int, ok bool) {
	if !idx.valid {
		return 0, false
	}
	if idx.Compressed {
		lo, hi := idx.rowPtr[o], idx.rowPtr[o+1]
		i := sort.Search(hi-lo, func(k int) bool { return idx.inner[lo+k] >= inner }) + lo
		if i < hi && idx.inner[i] == inner {
			return idx.blockPtr[i], true
		}
		return 0, false
	}
	row := idx.outer[o]
	i := sort.Search(len(row), func(k int) bool { return row[k].inner >= inner })
	if i < len(row) && row[i].inner == inner {
		return row[i].ptr, true
	}
	return 0, false
}

// Each calls fn(inner, ptr) for every entry of outer slice o, in
// ascending inner order (requires the index to be valid for
// uncompressed storage; compressed storage is always sorted).
func (idx *Index) Each(o int, fn func(inner, ptr int) bool) {
	if idx.Compressed {
		for k := idx.rowPtr[o]; k < idx.rowPtr[o+1]; k++ {
			if !fn(idx.inner[k], idx.blockPtr[k]) {
				return
			}
		}
		return
	}
	for _, e := range idx.outer[o] {
		if !fn(e.inner, e.ptr) {
			return
		}
	}
}

// SetToTranspose rebuilds the receiver as the transpose of src: entries
// (outer, inner, ptr) of src become (inner, outer, ptr) of the receiver.
// When symmetric is true, diagonal entries (inner == outer in src) are
// omitted, matching the invariant that the minor index of a
// symmetric-storage matrix carries no diagonal blocks (spec.md I2).
func (idx *Index) SetToTranspose(src *Index, symmetric bool) error {
	if !src.valid {
		return ErrIndexNotFinalized
	}
	idx.Compressed = false
	idx.Resize(src.innerSizeHint())
	for o := 0; o < src.OuterSize(); o++ {
		var insErr error
		src.Each(o, func(inner, ptr int) bool {
			if symmetric && inner >= o {
				return true
			}
			if err := idx.InsertBack(inner, o, ptr); err != nil {
				insErr = err
				return false
			}
			return true
		})
		if insErr != nil {
			return insErr
		}
	}
	return idx.Finalize(0)
}

// innerSizeHint returns the inner dimension recorded by SetInnerSize if
// set, else derives it from InnerOffsets if present, else falls back to
// the outer size (square matrix assumption used only when neither is
// known).
func (idx *Index) innerSizeHint() int {
	if idx.innerN > 0 {
		return idx.innerN
	}
	if len(idx.InnerOffsets) > 0 {
		return len(idx.InnerOffsets) - 1
	}
	return idx.outerN
}

// SetInnerSize records the inner dimension explicitly (set by Matrix
// whenever row/col block sizes are assigned).
func (idx *Index) SetInnerSize(n int) { idx.innerN = n }

// newSemaphore returns a counting semaphore bounding fan-out to
// maxThreads (0 meaning runtime.GOMAXPROCS(0)), the mechanism spec.md §5
// names as the replacement for the source's OpenMP thread cap.
func newSemaphore(maxThreads int) *semaphore.Weighted {
	if maxThreads <= 0 {
		maxThreads = runtime.GOMAXPROCS(0)
	}
	return semaphore.NewWeighted(int64(maxThreads))
}
