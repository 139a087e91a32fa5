package soc

import "math"

// candidate is a trial reaction paired with the (squared) natural-map
// residual it produces; the enumerative solver evaluates several and
// keeps the minimizer (spec.md §4.4).
type candidate struct {
	r   []float64
	res float64
}

// solveEnumerative runs the closed-form/candidate-evaluation fallback
// described in spec.md §4.4: a stick candidate (r = 0), a take-off
// candidate (r = -W^-1*b), and a sliding candidate, scored by the shared natural-map
// residual and the best of the three returned.
func solveEnumerative(p *problem) newtonResult {
	var cands []candidate

	if c, ok := stickCandidate(p); ok {
		cands = append(cands, c)
	}
	if c, ok := takeOffCandidate(p); ok {
		cands = append(cands, c)
	}
	if c, ok := slidingCandidate(p); ok {
		cands = append(cands, c)
	}

	if len(cands) == 0 {
		r := make([]float64, p.dim)
		return newtonResult{r: r, residual: p.residualNorm2(r), ok: false}
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.res < best.res {
			best = c
		}
	}
	return newtonResult{r: best.r, residual: best.res, ok: true}
}

// stickCandidate is r=0, valid whenever the free normal velocity is
// already non-penetrating (b_N >= 0, spec.md §4.4).
func stickCandidate(p *problem) (candidate, bool) {
	if p.b[0] < 0 {
		return candidate{}, false
	}
	r := make([]float64, p.dim)
	return candidate{r: r, res: p.residualNorm2(r)}, true
}

// takeOffCandidate is r = -W^-1*b, i.e. the reaction that exactly
// cancels the free velocity; only meaningful when it lands strictly
// inside the cone (spec.md §4.4).
func takeOffCandidate(p *problem) (candidate, bool) {
	// solveDense solves W*r = -b.
	r, ok := solveDense(p.w, p.b, p.dim)
	if !ok {
		return candidate{}, false
	}
	if r[0] <= 0 || tangentNorm(r) >= p.mu*r[0] {
		return candidate{}, false
	}
	return candidate{r: r, res: p.residualNorm2(r)}, true
}

// slidingCandidate handles the common isotropic-tangential-block case
// (the tangential sub-block is a multiple of the identity and
// decoupled from the normal direction, as with a diagonal Delassus
// operator): the sliding direction is then fixed by -b_T/||b_T|| and
// the normal reaction magnitude follows in closed form, without
// needing the general quartic reduction in direction angle.
//
// Solving the fully anisotropic case exactly requires reducing a
// coupled 2-variable system to a single quartic in the sliding
// direction's tangent-half-angle; that reduction is not carried here,
// so an anisotropic block yields no sliding candidate. RealRoots
// (quartic.go) is not called by this fast path: its normal magnitude is
// a linear closed form.
func slidingCandidate(p *problem) (candidate, bool) {
	d := p.dim
	if d != 3 {
		return candidate{}, false
	}
	a := p.w[0]
	wnt0, wnt1 := p.w[1], p.w[2]
	wtn0, wtn1 := p.w[3], p.w[6]
	m00, m01, m10, m11 := p.w[4], p.w[5], p.w[7], p.w[8]

	const eps = 1e-12
	if math.Abs(wnt0) > eps || math.Abs(wnt1) > eps ||
		math.Abs(wtn0) > eps || math.Abs(wtn1) > eps ||
		math.Abs(m01) > eps || math.Abs(m10) > eps ||
		math.Abs(m00-m11) > eps {
		return candidate{}, false
	}
	m := m00

	bt0, bt1 := p.b[1], p.b[2]
	btNorm := math.Hypot(bt0, bt1)
	if btNorm < eps {
		return candidate{}, false
	}

	mu := p.mu
	denom := a + mu*mu*m
	if denom <= 0 {
		return candidate{}, false
	}
	rho := (mu*btNorm - p.b[0]) / denom
	if rho <= 0 {
		return candidate{}, false
	}

	dir0, dir1 := -bt0/btNorm, -bt1/btNorm
	r := []float64{rho, mu * rho * dir0, mu * rho * dir1}
	return candidate{r: r, res: p.residualNorm2(r)}, true
}
