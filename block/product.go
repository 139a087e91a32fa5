package block

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// opView exposes a Matrix (optionally as its transpose) through an index
// whose outer axis is the *logical rows* of op(m): if m's own major
// index is already oriented that way it is used directly; otherwise the
// (lazily computed) minor index is used instead. transposeBlock records
// whether individual stored blocks must additionally be transposed
// before use — this is the "Transpose view ... flag pair" machinery of
// spec.md §4.3.3/§4.3.4 collapsed to the single boolean that Product
// needs.
type opView[B Block] struct {
	idx            *Index
	blocks         []B
	transposeBlock bool
	outSizes       []int
	inSizes        []int
}

// rowView returns a view whose outer axis enumerates logical rows of
// op(m) (m transposed iff transposed is true).
func rowView[B Block](m *Matrix[B], transposed bool) (opView[B], error) {
	aligned := (!transposed) != m.ColMajor
	if aligned {
		outSizes, inSizes := m.rowBlockSizes, m.colBlockSizes
		if transposed {
			outSizes, inSizes = m.colBlockSizes, m.rowBlockSizes
		}
		return opView[B]{idx: m.major, blocks: m.blocks, transposeBlock: transposed, outSizes: outSizes, inSizes: inSizes}, nil
	}
	if m.minor == nil {
		if err := m.ComputeMinorIndex(); err != nil {
			return opView[B]{}, err
		}
	}
	outSizes, inSizes := m.rowBlockSizes, m.colBlockSizes
	if transposed {
		outSizes, inSizes = m.colBlockSizes, m.rowBlockSizes
	}
	return opView[B]{idx: m.minor, blocks: m.blocks, transposeBlock: transposed, outSizes: outSizes, inSizes: inSizes}, nil
}

// colView returns a view whose outer axis enumerates logical columns of
// op(m): identical machinery to rowView applied to the complementary
// transpose flag.
func colView[B Block](m *Matrix[B], transposed bool) (opView[B], error) {
	return rowView(m, !transposed)
}

func (v opView[B]) block(ptr int) Block {
	b := v.blocks[ptr]
	if v.transposeBlock {
		return b.Transpose()
	}
	return b
}

type contribution struct {
	lhsPtr, rhsPtr int
}

// Product computes C = op(lhs) * op(rhs) and materializes it as a new
// Matrix (spec.md §4.3.3): assignment of a product expression always
// materializes, per Design Notes §9. colWise selects the row-wise
// (false) or column-wise (true) symbolic strategy. Both run the
// mandatory two-phase algorithm: a symbolic phase determining non-empty
// (row,col) output pairs and their contribution lists, then a numeric
// phase computing each output block — in this implementation the
// numeric phase is parallel across output blocks while each individual
// block's contributions are summed in the fixed order they were
// discovered, which is what gives the operation its determinism
// guarantee (spec.md §5, §8 "Product associativity").
func Product[B Block](lhs, rhs *Matrix[B], transLhs, transRhs, colWise bool, newBlk func(r, c int) B, maxThreads int) (*Matrix[B], error) {
	lhsRows, err := rowView(lhs, transLhs)
	if err != nil {
		return nil, err
	}
	rhsCols, err := colView(rhs, transRhs)
	if err != nil {
		return nil, err
	}

	contractLhs := lhsRows.inSizes
	contractRhs := func() []int {
		v, _ := rowView(rhs, transRhs)
		return v.outSizes
	}()
	if len(contractLhs) != len(contractRhs) {
		return nil, ErrDimensionMismatch
	}
	for i := range contractLhs {
		if contractLhs[i] != contractRhs[i] {
			return nil, ErrDimensionMismatch
		}
	}

	outRows := len(lhsRows.outSizes)
	outCols := len(rhsCols.outSizes)

	var symbolic map[int]map[int][]contribution
	if colWise {
		symbolic, err = symbolicColWise(lhs, rhs, transLhs, transRhs)
	} else {
		symbolic, err = symbolicRowWise(lhs, rhs, transLhs, transRhs, outRows)
	}
	if err != nil {
		return nil, err
	}

	out := NewMatrix(false, false, false, newBlk)
	out.SetRows(lhsRows.outSizes)
	out.SetCols(rhsCols.outSizes)

	rowsSorted := make([]int, 0, len(symbolic))
	for i := range symbolic {
		rowsSorted = append(rowsSorted, i)
	}
	sort.Ints(rowsSorted)

	type pending struct {
		i, j   int
		contrs []contribution
	}
	var plan []pending
	for _, i := range rowsSorted {
		cols := symbolic[i]
		colsSorted := make([]int, 0, len(cols))
		for j := range cols {
			colsSorted = append(colsSorted, j)
		}
		sort.Ints(colsSorted)
		for _, j := range colsSorted {
			plan = append(plan, pending{i: i, j: j, contrs: cols[j]})
		}
	}

	blocksOut := make([]B, len(plan))
	g, ctx := errgroup.WithContext(context.Background())
	sem := newSemaphore(maxThreads)
	for pi, p := range plan {
		pi, p := pi, p
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			rs, cs := lhsRows.outSizes[p.i], rhsCols.outSizes[p.j]
			acc := newBlk(rs, cs)
			for _, c := range p.contrs {
				lb := lhsViewBlock(lhs, transLhs, c.lhsPtr)
				rb := rhsViewBlock(rhs, transRhs, c.rhsPtr)
				tmp := newBlk(rs, cs)
				tmp.Mul(lb, rb)
				acc.Add(tmp)
			}
			blocksOut[pi] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for pi, p := range plan {
		dst, err := out.InsertBack(p.i, p.j)
		if err != nil {
			return nil, err
		}
		dst.Add(blocksOut[pi])
	}
	return out, out.Finalize(maxThreads)
}

func lhsViewBlock[B Block](m *Matrix[B], trans bool, ptr int) Block {
	b := Block(m.blocks[ptr])
	if trans {
		return b.Transpose()
	}
	return b
}

func rhsViewBlock[B Block](m *Matrix[B], trans bool, ptr int) Block {
	b := Block(m.blocks[ptr])
	if trans {
		return b.Transpose()
	}
	return b
}

// symbolicRowWise implements spec.md's row-wise strategy: for output row
// i, gather op(lhs) row i into a k->ptr map, then for every output
// column j walk op(rhs) column j and keep entries whose contracted
// index k is present in the map.
func symbolicRowWise[B Block](lhs, rhs *Matrix[B], transLhs, transRhs bool, outRows int) (map[int]map[int][]contribution, error) {
	lhsRows, err := rowView(lhs, transLhs)
	if err != nil {
		return nil, err
	}
	rhsCols, err := colView(rhs, transRhs)
	if err != nil {
		return nil, err
	}

	result := make(map[int]map[int][]contribution)
	for i := 0; i < lhsRows.idx.OuterSize(); i++ {
		rowMap := make(map[int]int)
		lhsRows.idx.Each(i, func(k, ptr int) bool {
			rowMap[k] = ptr
			return true
		})
		if len(rowMap) == 0 {
			continue
		}
		for j := 0; j < rhsCols.idx.OuterSize(); j++ {
			var contribs []contribution
			rhsCols.idx.Each(j, func(k, ptr int) bool {
				if lptr, ok := rowMap[k]; ok {
					contribs = append(contribs, contribution{lhsPtr: lptr, rhsPtr: ptr})
				}
				return true
			})
			if len(contribs) > 0 {
				if result[i] == nil {
					result[i] = make(map[int][]contribution)
				}
				result[i][j] = contribs
			}
		}
	}
	return result, nil
}

// symbolicColWise implements spec.md's column-wise strategy: for every
// contracted index k, cross op(lhs) column k with op(rhs) row k and
// scatter contributions into a per-(row) map, enabling higher
// parallelism across k at the cost of the merge performed here.
func symbolicColWise[B Block](lhs, rhs *Matrix[B], transLhs, transRhs bool) (map[int]map[int][]contribution, error) {
	lhsCols, err := colView(lhs, transLhs)
	if err != nil {
		return nil, err
	}
	rhsRows, err := rowView(rhs, transRhs)
	if err != nil {
		return nil, err
	}
	if lhsCols.idx.OuterSize() != rhsRows.idx.OuterSize() {
		return nil, ErrDimensionMismatch
	}

	result := make(map[int]map[int][]contribution)
	for k := 0; k < lhsCols.idx.OuterSize(); k++ {
		var lefts, rights []struct{ idx, ptr int }
		lhsCols.idx.Each(k, func(i, ptr int) bool {
			lefts = append(lefts, struct{ idx, ptr int }{i, ptr})
			return true
		})
		if len(lefts) == 0 {
			continue
		}
		rhsRows.idx.Each(k, func(j, ptr int) bool {
			rights = append(rights, struct{ idx, ptr int }{j, ptr})
			return true
		})
		for _, l := range lefts {
			for _, r := range rights {
				if result[l.idx] == nil {
					result[l.idx] = make(map[int][]contribution)
				}
				result[l.idx][r.idx] = append(result[l.idx][r.idx], contribution{lhsPtr: l.ptr, rhsPtr: r.ptr})
			}
		}
	}
	return result, nil
}
