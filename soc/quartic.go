package soc

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RealRoots returns the real roots of the monic polynomial of degree
// len(c) whose coefficients are c[i] = coefficient of x^i, i.e.
//
//	x^n + c[n-1]*x^(n-1) + ... + c[1]*x + c[0] = 0
//
// len(c) must be 2 (quadratic) or 4 (quartic); other lengths return
// nil. It is a standalone root finder: the local SOCCP solver's
// enumerative fallback (enumerative.go) does not call it. It is
// exercised directly by spec.md §8 scenario 5.
func RealRoots(c []float64) []float64 {
	switch len(c) {
	case 2:
		return quadraticRoots(c[0], c[1])
	case 4:
		return quarticRoots(c[0], c[1], c[2], c[3])
	default:
		return nil
	}
}

// quadraticRoots solves x^2 + c1*x + c0 = 0.
func quadraticRoots(c0, c1 float64) []float64 {
	disc := c1*c1 - 4*c0
	if disc < 0 {
		return nil
	}
	if disc == 0 {
		r := -c1 / 2
		return []float64{r, r}
	}
	sq := math.Sqrt(disc)
	r1 := (-c1 - sq) / 2
	r2 := (-c1 + sq) / 2
	return []float64{r1, r2}
}

// cubicRealRoot returns one real root of the depressed cubic
// t^3 + p*t + q = 0, used as the resolvent step of Ferrari's method.
// A depressed cubic always has at least one real root.
func cubicRealRoot(p, q float64) float64 {
	if p == 0 && q == 0 {
		return 0
	}
	disc := (q*q)/4 + (p*p*p)/27
	if disc >= 0 {
		sq := math.Sqrt(disc)
		u := cbrt(-q/2 + sq)
		v := cbrt(-q/2 - sq)
		return u + v
	}
	// three real roots (casus irreducibilis): trigonometric form.
	r := math.Sqrt(-p * p * p / 27)
	phi := math.Acos(clamp(-q/(2*r), -1, 1))
	t := 2 * math.Sqrt(-p/3) * math.Cos(phi/3)
	return t
}

func cbrt(x float64) float64 {
	if x < 0 {
		return -math.Cbrt(-x)
	}
	return math.Cbrt(x)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// quarticRoots solves x^4 + c3*x^3 + c2*x^2 + c1*x + c0 = 0 via
// Ferrari's method: depress to y^4 + p*y^2 + q*y + r = 0 (y = x +
// c3/4), solve the resolvent cubic for a value m that makes the
// quartic's left side a perfect-square difference, then factor into
// two quadratics. Every root returned is additionally polished with a
// few Newton steps on the original quartic, per spec.md §4.4's
// Newton-polish requirement.
func quarticRoots(c0, c1, c2, c3 float64) []float64 {
	shift := c3 / 4
	p := c2 - 3*c3*c3/8
	q := c1 - c2*c3/2 + c3*c3*c3/8
	r := c0 - c1*c3/4 + c2*c3*c3/16 - 3*c3*c3*c3*c3/256

	if q == 0 {
		// biquadratic: y^4 + p*y^2 + r = 0
		roots := quadraticRoots(r, p)
		var out []float64
		for _, y2 := range roots {
			if y2 < 0 {
				continue
			}
			sy := math.Sqrt(y2)
			out = append(out, sy-shift, -sy-shift)
		}
		return finalizeQuartic(out, c0, c1, c2, c3)
	}

	// resolvent cubic in m: 8m^3 + 8p*m^2 + (2p^2-8r)*m - q^2 = 0
	a3, a2, a1, a0 := 8.0, 8*p, 2*p*p-8*r, -q*q
	// depress: m = t - a2/(3*a3)
	pp := (3*a3*a1 - a2*a2) / (3 * a3 * a3)
	qq := (2*a2*a2*a2 - 9*a3*a2*a1 + 27*a3*a3*a0) / (27 * a3 * a3 * a3)
	t := cubicRealRoot(pp, qq)
	m := t - a2/(3*a3)
	if m <= 0 {
		m = 1e-12
	}

	sqrt2m := math.Sqrt(2 * m)
	// y^2 + sqrt(2m)*y + (p/2+m - q/(2*sqrt(2m))) = 0
	// y^2 - sqrt(2m)*y + (p/2+m + q/(2*sqrt(2m))) = 0
	half := p/2 + m
	corr := q / (2 * sqrt2m)

	roots1 := quadraticRoots(half-corr, sqrt2m)
	roots2 := quadraticRoots(half+corr, -sqrt2m)

	var out []float64
	for _, y := range roots1 {
		out = append(out, y-shift)
	}
	for _, y := range roots2 {
		out = append(out, y-shift)
	}
	return finalizeQuartic(out, c0, c1, c2, c3)
}

// finalizeQuartic polishes Ferrari's roots with Newton steps, then
// cross-checks the real-root count against the eigenvalues of the
// quartic's companion matrix (companionRealRoots). Ferrari's resolvent
// cubic picks one of several algebraically valid factorizations; on
// the rare case its branch choice loses a real root to a near-zero
// denominator, the companion-matrix eigenvalues (computed by an
// entirely different route) catch it.
func finalizeQuartic(roots []float64, c0, c1, c2, c3 float64) []float64 {
	polished := polish(roots, c0, c1, c2, c3)
	if cross := companionRealRoots(c0, c1, c2, c3); len(cross) > len(polished) {
		return polish(cross, c0, c1, c2, c3)
	}
	return polished
}

// companionRealRoots returns the real eigenvalues of the companion
// matrix of x^4 + c3*x^3 + c2*x^2 + c1*x + c0, via gonum's general
// eigendecomposition (mat.Eigen) — an independent cross-check of
// Ferrari's method that does not depend on the resolvent cubic's
// branch selection.
func companionRealRoots(c0, c1, c2, c3 float64) []float64 {
	comp := mat.NewDense(4, 4, nil)
	comp.Set(1, 0, 1)
	comp.Set(2, 1, 1)
	comp.Set(3, 2, 1)
	comp.Set(0, 3, -c0)
	comp.Set(1, 3, -c1)
	comp.Set(2, 3, -c2)
	comp.Set(3, 3, -c3)

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenRight) {
		return nil
	}
	var roots []float64
	for _, v := range eig.Values(nil) {
		if math.Abs(imag(v)) < 1e-7*(1+math.Abs(real(v))) {
			roots = append(roots, real(v))
		}
	}
	return roots
}

func polish(roots []float64, c0, c1, c2, c3 float64) []float64 {
	eval := func(x float64) (float64, float64) {
		f := x*x*x*x + c3*x*x*x + c2*x*x + c1*x + c0
		df := 4*x*x*x + 3*c3*x*x + 2*c2*x + c1
		return f, df
	}
	out := make([]float64, 0, len(roots))
	for _, x := range roots {
		for i := 0; i < 4; i++ {
			f, df := eval(x)
			if df == 0 {
				break
			}
			x -= f / df
		}
		out = append(out, x)
	}
	return out
}
