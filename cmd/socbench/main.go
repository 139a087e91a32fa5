// Command socbench builds a synthetic block-sparse friction problem
// and benchmarks the projected Gauss-Seidel solver against it.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/soccp-go/soccp/block"
	"github.com/soccp-go/soccp/friction"
	"github.com/soccp-go/soccp/nslaw"
	"github.com/soccp-go/soccp/pgs"
	"github.com/spf13/cobra"
)

func newDense3() *block.Dense3 { return &block.Dense3{} }

func main() {
	var (
		contacts   int
		bodies     int
		seed       int64
		maxIters   int
		tol        float64
		maxThreads int
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "socbench",
		Short: "Benchmark the block-sparse SOCCP friction solver on a synthetic problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			rng := rand.New(rand.NewSource(seed))
			h, m, mu, freeVel := buildSynthetic(rng, bodies, contacts)

			p := friction.NewProblem(h, m, mu, freeVel, newDense3, log.Logger)
			p.MaxThreads = maxThreads

			start := time.Now()
			w, err := p.AssembleDelassus()
			if err != nil {
				return fmt.Errorf("assemble: %w", err)
			}
			assembleElapsed := time.Since(start)

			solver := pgs.NewSolver(w)
			solver.MaxIters = maxIters
			solver.Tol = tol
			solver.MaxThreads = maxThreads

			law := nslaw.NewSOCLaw(mu, 3)

			solveStart := time.Now()
			x, err := p.SolveCadoux(w, law, 20, tol, solver)
			if err != nil {
				return fmt.Errorf("solve: %w", err)
			}
			solveElapsed := time.Since(solveStart)

			residual := pgs.EvalGlobal(w, law, freeVel, x)

			log.Info().
				Int("contacts", contacts).
				Int("bodies", bodies).
				Dur("assemble", assembleElapsed).
				Dur("solve", solveElapsed).
				Float64("residual", residual).
				Msg("socbench run complete")
			return nil
		},
	}

	flags := root.Flags()
	flags.IntVar(&contacts, "contacts", 8, "number of synthetic contacts")
	flags.IntVar(&bodies, "bodies", 4, "number of synthetic bodies")
	flags.Int64Var(&seed, "seed", 1, "random seed")
	flags.IntVar(&maxIters, "max-iters", 250, "PGS max iterations per outer round")
	flags.Float64Var(&tol, "tol", 1e-6, "convergence tolerance")
	flags.IntVar(&maxThreads, "max-threads", 0, "max worker goroutines (0 = GOMAXPROCS)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildSynthetic assembles a random contact Jacobian H (one block-row
// per contact, one block-column per body, each contact touching one
// randomly chosen body) and a block-diagonal mass matrix (SPD, Cholesky-
// invertible by friction.Problem.AssembleDelassus), loosely modeled on
// the kind of synthetic rig benchmark harnesses in this domain
// generate.
func buildSynthetic(rng *rand.Rand, bodies, contacts int) (h, m *block.Matrix[*block.Dense3], mu, freeVel []float64) {
	bodySizes := make([]int, bodies)
	for i := range bodySizes {
		bodySizes[i] = 3
	}
	contactSizes := make([]int, contacts)
	for i := range contactSizes {
		contactSizes[i] = 3
	}

	h = block.NewMatrix(false, false, false, newDense3)
	h.SetRows(contactSizes)
	h.SetCols(bodySizes)

	mu = make([]float64, contacts)
	freeVel = make([]float64, 3*contacts)
	for c := 0; c < contacts; c++ {
		body := rng.Intn(bodies)
		blk, _ := h.InsertBack(c, body)
		for i := 0; i < 3; i++ {
			blk.Set(i, i, 0.5+rng.Float64())
		}
		mu[c] = 0.3 + 0.4*rng.Float64()
		freeVel[3*c] = rng.Float64() * 0.5
		freeVel[3*c+1] = (rng.Float64() - 0.5) * 0.2
		freeVel[3*c+2] = (rng.Float64() - 0.5) * 0.2
	}
	if err := h.Finalize(0); err != nil {
		panic(err)
	}

	m = block.NewMatrix(false, false, false, newDense3)
	m.SetRows(bodySizes)
	m.SetCols(bodySizes)
	for i := 0; i < bodies; i++ {
		blk, _ := m.InsertBack(i, i)
		for k := 0; k < 3; k++ {
			blk.Set(k, k, 1.0+rng.Float64())
		}
	}
	if err := m.Finalize(0); err != nil {
		panic(err)
	}

	return h, m, mu, freeVel
}
