package pgs

import "sync"

// floatPool recycles the small scratch slices (local right-hand sides,
// per-row reaction copies) that every row solve needs, adapted from
// the teacher's sync.Pool-backed workspace allocator: a PGS sweep
// calls solveRow/updateFreeze/EvalGlobal once per row per pass, so
// reusing these buffers avoids reallocating on every one of them.
var floatPool = sync.Pool{
	New: func() interface{} {
		return make([]float64, 0, 3)
	},
}

// getFloats returns a zeroed []float64 of length n, reused from the
// pool when its backing array is already large enough.
func getFloats(n int) []float64 {
	w := floatPool.Get().([]float64)
	if cap(w) < n {
		w = make([]float64, n)
	} else {
		w = w[:n]
		for i := range w {
			w[i] = 0
		}
	}
	return w
}

// putFloats returns w to the pool. Callers must not retain any
// reference to w's backing array afterward.
func putFloats(w []float64) {
	floatPool.Put(w)
}
