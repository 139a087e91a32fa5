package pgs

import (
	"context"
	"math"
	"runtime"

	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/nslaw"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Solver runs the projected block Gauss-Seidel iteration over a square
// block-sparse matrix M (spec.md C7), grounded on the original C++
// GaussSeidelBase parameter set: a periodic full-residual evaluation
// (EvalEvery), a post-warm-up freeze heuristic for already-converged
// rows (SkipIters/SkipTol), an optional per-row Tikhonov
// regularization for ill-conditioned diagonal blocks
// (AutoRegularization), and tracking of the best iterate seen so far
// (returned even if the run does not fully converge).
type Solver[B block.Block] struct {
	M *block.Matrix[B]

	MaxIters           int
	Tol                float64
	EvalEvery          int
	SkipIters          int
	SkipTol            float64
	AutoRegularization float64
	MaxThreads         int
	Deterministic      bool

	Callback func(iter int, err float64)

	colors [][]int
}

// NewSolver builds a Solver over m with its default tuning.
func NewSolver[B block.Block](m *block.Matrix[B]) *Solver[B] {
	return &Solver[B]{
		M:         m,
		MaxIters:  250,
		Tol:       1e-6,
		EvalEvery: 25,
		SkipIters: 10,
		SkipTol:   1e-6,
	}
}

// Solve runs the PGS iteration solving M*x + b's local complementarity
// problems via law, warm-started from (and overwriting) x. It returns
// the best global residual achieved.
func (s *Solver[B]) Solve(law nslaw.Law, b, x []float64) (float64, error) {
	n := s.M.RowsOfBlocks()
	if n == 0 {
		return 0, nil
	}
	if s.Deterministic && s.colors == nil {
		s.colors = colorRows(s.M)
	}

	maxIters := s.MaxIters
	if maxIters <= 0 {
		maxIters = 250
	}
	evalEvery := s.EvalEvery
	if evalEvery <= 0 {
		evalEvery = 25
	}
	skipIters := s.SkipIters
	if skipIters <= 0 {
		skipIters = 10
	}
	skipTol := s.SkipTol
	if skipTol <= 0 {
		skipTol = 1e-6
	}

	frozen := make([]bool, n)
	calmRounds := make([]int, n)

	best := append([]float64(nil), x...)
	bestErr := math.Inf(1)

	for iter := 0; iter < maxIters; iter++ {
		if err := s.sweep(law, b, x, frozen); err != nil {
			return bestErr, err
		}

		if (iter+1)%evalEvery == 0 || iter == maxIters-1 {
			errNow := s.globalResidual(law, b, x)
			if errNow < bestErr {
				bestErr = errNow
				copy(best, x)
			} else {
				// spec.md step 4: a non-improving periodic check
				// rejects the current step and restores x* before
				// the next eval_every block of sweeps.
				copy(x, best)
			}
			if s.Callback != nil {
				s.Callback(iter, errNow)
			}
			if errNow < s.Tol {
				copy(x, best)
				return bestErr, nil
			}
			if iter >= skipIters {
				s.updateFreeze(law, b, x, frozen, calmRounds, skipTol)
			}
		}
	}

	copy(x, best)
	return bestErr, nil
}

// sweep performs one full pass over all non-frozen rows, either
// deterministically (by color class, each class parallel) or
// non-deterministically (every row dispatched at once, racing).
func (s *Solver[B]) sweep(law nslaw.Law, b, x []float64, frozen []bool) error {
	if s.Deterministic {
		for _, class := range s.colors {
			g, ctx := errgroup.WithContext(context.Background())
			sem := newSemaphore(s.MaxThreads)
			for _, row := range class {
				row := row
				if frozen[row] {
					continue
				}
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				g.Go(func() error {
					defer sem.Release(1)
					s.solveRow(law, b, x, row)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	sem := newSemaphore(s.MaxThreads)
	for row := 0; row < s.M.RowsOfBlocks(); row++ {
		row := row
		if frozen[row] {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			s.solveRow(law, b, x, row)
			return nil
		})
	}
	return g.Wait()
}

func (s *Solver[B]) solveRow(law nslaw.Law, b, x []float64, row int) {
	size := s.M.RowBlockSize(row)
	off := s.M.RowOffset(row)

	local := getFloats(size)
	defer putFloats(local)
	copy(local, b[off:off+size])
	_ = block.SplitRowMultiply(s.M, row, x, local)

	diag, ok := s.M.Diagonal(row)
	var w []float64
	if ok {
		w = nslaw.BlockValues(diag)
	} else {
		w = make([]float64, size*size)
	}
	if s.AutoRegularization > 0 {
		alpha := regularizationShift(w, size, s.AutoRegularization)
		if alpha > 0 {
			w = append([]float64(nil), w...)
			for i := 0; i < size; i++ {
				w[i*size+i] += alpha
				local[i] -= alpha * x[off+i]
			}
		}
	}

	r := getFloats(size)
	defer putFloats(r)
	copy(r, x[off:off+size])
	_, _ = law.SolveLocal(row, w, local, r)
	copy(x[off:off+size], r)
}

// globalResidual evaluates EvalGlobal (eval.go) once per periodic
// check, the shared convergence metric for both the callback and the
// best-iterate bookkeeping.
func (s *Solver[B]) globalResidual(law nslaw.Law, b, x []float64) float64 {
	return EvalGlobal(s.M, law, b, x)
}

// updateFreeze marks rows whose local residual has stayed under
// skipTol for skipIters consecutive periodic checks as frozen, so
// subsequent sweeps skip their (already negligible) local solve.
func (s *Solver[B]) updateFreeze(law nslaw.Law, b, x []float64, frozen []bool, calm []int, skipTol float64) {
	n := s.M.RowsOfBlocks()
	for row := 0; row < n; row++ {
		if frozen[row] {
			continue
		}
		size := s.M.RowBlockSize(row)
		off := s.M.RowOffset(row)
		local := getFloats(size)
		copy(local, b[off:off+size])
		_ = block.SplitRowMultiply(s.M, row, x, local)
		diag, ok := s.M.Diagonal(row)
		w := make([]float64, size*size)
		if ok {
			w = nslaw.BlockValues(diag)
		}
		res := law.LocalResidual(row, w, local, x[off:off+size])
		putFloats(local)
		if res < skipTol*skipTol {
			calm[row]++
			if calm[row] >= s.SkipIters {
				frozen[row] = true
			}
		} else {
			calm[row] = 0
		}
	}
}

// regularizationShift returns the Tikhonov shift alpha such that
// W+alpha*I's smallest eigenvalue is bounded below by autoReg, using a
// Gershgorin disc bound (spec.md:165: "perturb W_kk by alpha*I with
// alpha chosen so that its smallest eigenvalue >= auto_reg"). The
// Gershgorin bound is conservative (it can demand a larger alpha than
// strictly necessary) but never under-regularizes, and avoids an
// actual eigendecomposition on every row solve.
func regularizationShift(w []float64, size int, autoReg float64) float64 {
	lowerBound := math.Inf(1)
	for i := 0; i < size; i++ {
		radius := 0.0
		for j := 0; j < size; j++ {
			if j != i {
				radius += math.Abs(w[i*size+j])
			}
		}
		center := w[i*size+i] - radius
		if center < lowerBound {
			lowerBound = center
		}
	}
	alpha := autoReg - lowerBound
	if alpha < 0 {
		return 0
	}
	return alpha
}

func newSemaphore(maxThreads int) *semaphore.Weighted {
	n := maxThreads
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return semaphore.NewWeighted(int64(n))
}
