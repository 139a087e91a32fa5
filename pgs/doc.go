/*
Package pgs implements the projected block Gauss-Seidel solver
(spec.md C7): given a block-sparse matrix M, a right-hand side b and a
non-smooth law, it iterates local solves row by row until the global
residual falls below tolerance or the iteration budget is exhausted.

It supports a deterministic mode (rows are partitioned into
structurally-independent colors, each color's rows solved in parallel,
colors processed in sequence — bit-identical to a sequential sweep) and
a non-deterministic mode (every row is dispatched to a goroutine each
sweep with no coloring barrier; faster, but reads may race against
concurrent writes to neighboring rows, so results are not
reproducible run to run).
*/
package pgs
