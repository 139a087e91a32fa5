package friction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/nslaw"
	"gonum.org/v1/gonum/mat"
)

// Problem is a single frictional contact problem: H is the contact
// Jacobian (one block-row per contact, one block-column per body), M
// is the block-diagonal mass matrix (each diagonal block SPD), FreeVel
// is the free (unconstrained) relative contact velocity, and Mu holds
// each contact's Coulomb friction coefficient.
type Problem[B block.Block] struct {
	ID uuid.UUID

	H  *block.Matrix[B]
	M  *block.Matrix[B]
	Mu []float64

	FreeVel []float64

	NewBlock   func(r, c int) B
	MaxThreads int

	Log zerolog.Logger
}

// NewProblem builds a Problem, stamping it with a fresh identifier for
// log correlation.
func NewProblem[B block.Block](h, m *block.Matrix[B], mu []float64, freeVel []float64, newBlock func(r, c int) B, log zerolog.Logger) *Problem[B] {
	return &Problem[B]{
		ID:       uuid.New(),
		H:        h,
		M:        m,
		Mu:       mu,
		FreeVel:  freeVel,
		NewBlock: newBlock,
		Log:      log,
	}
}

// AssembleDelassus computes W = H*M^-1*H^T (spec.md §9, "friction
// problem façade"), the block-sparse matrix the local SOCCP solver and
// PGS iteration actually operate on. M^-1 is never formed as a dense
// global inverse: each diagonal mass block is Cholesky-factorized
// (gonum mat.Cholesky, mirroring the teacher's own dense-factorization-
// as-a-kernel-over-a-sparse-structure pattern in cholesky.go) and
// inverted individually, since a block-diagonal matrix's inverse is
// exactly the per-block inverse.
func (p *Problem[B]) AssembleDelassus() (*block.Matrix[B], error) {
	p.Log.Debug().Str("problem", p.ID.String()).Msg("assembling delassus operator")

	minv, err := p.invertMassBlocks()
	if err != nil {
		return nil, fmt.Errorf("friction: invert mass blocks: %w", err)
	}

	hMinv, err := block.Product(p.H, minv, false, false, false, p.NewBlock, p.MaxThreads)
	if err != nil {
		return nil, fmt.Errorf("friction: H*Minv: %w", err)
	}
	w, err := block.Product(hMinv, p.H, false, true, false, p.NewBlock, p.MaxThreads)
	if err != nil {
		return nil, fmt.Errorf("friction: (H*Minv)*H^T: %w", err)
	}
	return w, nil
}

// invertMassBlocks Cholesky-factorizes each diagonal block of M and
// solves it against the identity to produce the corresponding block
// of M^-1, failing loudly if a mass block is not symmetric positive
// definite (a malformed physical mass matrix, not a numerical near-
// miss worth tolerating silently).
func (p *Problem[B]) invertMassBlocks() (*block.Matrix[B], error) {
	minv := block.NewMatrix(false, false, false, p.NewBlock)
	n := p.M.RowsOfBlocks()
	sizes := make([]int, n)
	for i := 0; i < n; i++ {
		sizes[i] = p.M.RowBlockSize(i)
	}
	minv.SetRows(sizes)
	minv.SetCols(sizes)

	for i := 0; i < n; i++ {
		diag, ok := p.M.Diagonal(i)
		if !ok {
			continue
		}
		size := p.M.RowBlockSize(i)
		vals := nslaw.BlockValues(diag)

		sym := mat.NewSymDense(size, nil)
		for r := 0; r < size; r++ {
			for c := r; c < size; c++ {
				sym.SetSym(r, c, vals[r*size+c])
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(sym); !ok {
			return nil, fmt.Errorf("friction: mass block %d is not symmetric positive definite", i)
		}
		var inv mat.Dense
		if err := chol.InverseTo(&inv); err != nil {
			return nil, fmt.Errorf("friction: invert mass block %d: %w", i, err)
		}

		blk, err := minv.InsertBack(i, i)
		if err != nil {
			return nil, err
		}
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				blk.Set(r, c, inv.At(r, c))
			}
		}
	}
	if err := minv.Finalize(p.MaxThreads); err != nil {
		return nil, fmt.Errorf("friction: finalize Minv: %w", err)
	}
	return minv, nil
}
