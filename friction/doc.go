/*
Package friction is the external façade spec.md places out of the
block-sparse engine's core scope: it assembles a Delassus operator
W = H*M^-1*H^T from a contact Jacobian H and a block-diagonal mass
matrix M (inverted block by block), then drives the projected Gauss-Seidel solver (package pgs) through
Cadoux's fixed-point outer iteration to solve the full Coulomb
friction contact problem.

Every call is logged structurally (zerolog) and tagged with a
per-problem identifier (google/uuid, stamped by NewProblem) so a caller
can correlate log lines across a batch of solves.
*/
package friction
