/*
Package block provides a block-sparse matrix engine for discrete contact
mechanics and other problems whose natural unit of sparsity is a small
dense sub-matrix rather than a scalar.

A Matrix stores one Block per non-zero (row-block, col-block) pair. Blocks
are addressed through a major Index oriented row-major or column-major
(the COL_MAJOR-equivalent Matrix.ColMajor flag); an optional minor Index
and a cached transpose let symmetric-storage matrices and non-aligned
products avoid rebuilding structure on every access.

This package intentionally does not provide a dense matrix type or
general linear-algebra decompositions: those concerns live in
gonum.org/v1/gonum/mat and are used internally only where a block itself
needs a small dense factorization.
*/
package block
