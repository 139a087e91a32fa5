// Package nslaw defines the non-smooth law interface that the
// projected Gauss-Seidel solver (package pgs) delegates local block
// solves to, and its Coulomb-friction second-order-cone
// implementation backed by package soc (spec.md §6).
package nslaw
