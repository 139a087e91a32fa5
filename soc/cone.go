package soc

import "gonum.org/v1/gonum/floats"

// projectCone projects z onto the Coulomb friction cone
//
//	K_mu = { (n, t) : ||t|| <= mu*n }
//
// where z[0] is the normal component and z[1:] the tangential
// components (d-1 of them, d in {2,3}). This is the ice-cream-cone
// projection used by the natural-map residual in residual.go.
func projectCone(z []float64, mu float64) []float64 {
	n := z[0]
	tnorm := tangentNorm(z)

	out := make([]float64, len(z))
	switch {
	case tnorm <= mu*n:
		copy(out, z)
	case mu*tnorm <= -n:
		// out stays zero
	default:
		alpha := (n + mu*tnorm) / (1 + mu*mu)
		out[0] = alpha
		scale := mu * alpha / tnorm
		for i := 1; i < len(z); i++ {
			out[i] = scale * z[i]
		}
	}
	return out
}

// coneRegion classifies z relative to K_mu: 0 interior (identity
// Jacobian), 1 polar region (zero Jacobian), 2 boundary region.
func coneRegion(z []float64, mu float64) int {
	n := z[0]
	tnorm := tangentNorm(z)
	switch {
	case tnorm <= mu*n:
		return 0
	case mu*tnorm <= -n:
		return 1
	default:
		return 2
	}
}

// projectConeJacobian returns d Proj_{K_mu}(z)/dz, a dense d x d
// matrix in row-major order. It is the generalized (Clarke) Jacobian:
// exact on the three smooth pieces of the projection, undefined
// exactly on the measure-zero boundaries between them (same caveat
// the non-smooth Newton iteration it feeds is built to tolerate).
func projectConeJacobian(z []float64, mu float64) []float64 {
	d := len(z)
	jac := make([]float64, d*d)

	switch coneRegion(z, mu) {
	case 0:
		for i := 0; i < d; i++ {
			jac[i*d+i] = 1
		}
	case 1:
		// all zero
	default:
		tnorm := tangentNorm(z)
		n := z[0]
		alpha := (n + mu*tnorm) / (1 + mu*mu)
		inv := 1 / (1 + mu*mu)

		// d(alpha)/dn = inv, d(alpha)/dt_i = mu*t_i/tnorm*inv
		jac[0] = inv
		for i := 1; i < d; i++ {
			jac[i] = mu * z[i] / tnorm * inv
		}

		// proj_t_i = mu*alpha*t_i/tnorm
		for i := 1; i < d; i++ {
			// d/dn
			jac[i*d+0] = mu * z[i] / tnorm * inv
			for j := 1; j < d; j++ {
				dAlphaDtj := mu * z[j] / tnorm * inv
				delta := 0.0
				if i == j {
					delta = 1
				}
				dRatio := delta/tnorm - z[i]*z[j]/(tnorm*tnorm*tnorm)
				jac[i*d+j] = mu * (dAlphaDtj*z[i]/tnorm + alpha*dRatio)
			}
		}
	}
	return jac
}

func tangentNorm(z []float64) float64 {
	if len(z) <= 1 {
		return 0
	}
	return floats.Norm(z[1:], 2)
}
