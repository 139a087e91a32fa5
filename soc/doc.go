/*
Package soc implements the local per-contact Second-Order-Cone
Complementarity solve that the projected Gauss-Seidel iteration (package
pgs) invokes once per block row: given a diagonal Delassus block W, a
right-hand side b, and a friction coefficient mu, find r such that
u = W*r + b satisfies the Coulomb friction complementarity condition
over the d-dimensional friction cone (d is 2 or 3).

The solver is hybrid (spec.md §4.4): a non-smooth Newton iteration on a
natural-map reformulation (the projection-based equivalent of the
Fischer-Burmeister merit function for second-order cones) is tried
first; on non-descent or a singular Jacobian it falls back to an
enumerative closed-form/candidate-evaluation scheme (enumerative.go).
The quartic/quadratic root finder in quartic.go (RealRoots) is a
separate utility; the enumerative scheme does not call it.
*/
package soc
