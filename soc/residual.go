package soc

import "gonum.org/v1/gonum/floats"

// problem bundles the local SOCCP data W*r+b = u, r in K_mu, against
// which the friction complementarity condition is posed (spec.md
// §4.1-§4.2).
type problem struct {
	dim int // 2 or 3
	w   []float64
	b   []float64
	mu  float64
}

func (p *problem) u(r []float64) []float64 {
	u := make([]float64, p.dim)
	for i := 0; i < p.dim; i++ {
		s := p.b[i]
		for j := 0; j < p.dim; j++ {
			s += p.w[i*p.dim+j] * r[j]
		}
		u[i] = s
	}
	return u
}

// deSaxce returns ũ(r) = u + mu*||u_T||*e_N, the De Saxcé change of
// variable that turns the (non-associative) Coulomb VI into a
// complementarity problem over the single cone K_mu (spec.md §4.2).
func (p *problem) deSaxce(r []float64) []float64 {
	u := p.u(r)
	ut := tangentNorm(u)
	u[0] += p.mu * ut
	return u
}

// residual evaluates the natural-map reformulation
//
//	F(r) = r - Proj_{K_mu}(r - ũ(r))
//
// the projection-based stand-in for the Fischer-Burmeister merit
// function used throughout: F(r) = 0 iff r solves the local SOCCP
// (r in K_mu, ũ(r) in K_mu, <r,ũ(r)> = 0).
func (p *problem) residual(r []float64) []float64 {
	util := p.deSaxce(r)
	z := make([]float64, p.dim)
	for i := range z {
		z[i] = r[i] - util[i]
	}
	proj := projectCone(z, p.mu)
	f := make([]float64, p.dim)
	for i := range f {
		f[i] = r[i] - proj[i]
	}
	return f
}

func (p *problem) residualNorm2(r []float64) float64 {
	f := p.residual(r)
	n := floats.Norm(f, 2)
	return n * n
}

// jacobian returns dF/dr as a dense dim x dim row-major matrix,
// assembled from the chain rule through the De Saxcé map and the cone
// projection (cone.go).
func (p *problem) jacobian(r []float64) []float64 {
	d := p.dim
	u := p.u(r)
	ut := tangentNorm(u)

	// dũ/dr: starts as W, then row 0 gets + mu * d(||u_T||)/dr.
	dutil := make([]float64, d*d)
	copy(dutil, p.w)
	if ut > 1e-14 {
		for j := 0; j < d; j++ {
			s := 0.0
			for i := 1; i < d; i++ {
				s += u[i] * p.w[i*d+j]
			}
			dutil[0*d+j] += p.mu * s / ut
		}
	}

	z := make([]float64, d)
	util := p.deSaxce(r)
	for i := range z {
		z[i] = r[i] - util[i]
	}
	jp := projectConeJacobian(z, p.mu)

	// dz/dr = I - dũ/dr
	dz := make([]float64, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			id := 0.0
			if i == j {
				id = 1
			}
			dz[i*d+j] = id - dutil[i*d+j]
		}
	}

	// dF/dr = I - Jp * dz
	jpdz := matMulDense(jp, dz, d)
	jac := make([]float64, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			id := 0.0
			if i == j {
				id = 1
			}
			jac[i*d+j] = id - jpdz[i*d+j]
		}
	}
	return jac
}

func matMulDense(a, b []float64, n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			if aik == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i*n+j] += aik * b[k*n+j]
			}
		}
	}
	return out
}

func norm2(v []float64) float64 {
	return floats.Norm(v, 2)
}
