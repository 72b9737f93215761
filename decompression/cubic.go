package decompression

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// depressedCubicRoot solves x^3 - b*x - c = 0 for its physically meaningful
// real root, used by VPM-B's allowable-gradient calculation (spec.md §4.4).
// b and c are both non-negative for every physical input this package
// produces.
//
// Mirrors utils.py's Polynomial.roots() fast path: a trigonometric formula
// when the discriminant implies three real roots, Cardano's formula
// otherwise. When three real roots exist, the single root in (0,
// bottomGradient] is selected; if more than one qualifies the input is
// ambiguous and ErrMultipleRealRoots is returned.
// DepressedCubicRoot is the exported entry point VPM-B's allowable-gradient
// calculation uses to solve x^3 - b*x - c = 0.
func DepressedCubicRoot(b, c, bottomGradient float64) (float64, error) {
	return depressedCubicRoot(b, c, bottomGradient)
}

func depressedCubicRoot(b, c, bottomGradient float64) (float64, error) {
	discriminant := 27*c*c - 4*b*b*b

	if discriminant < 0 {
		// Three real roots: x_k = 2*sqrt(b/3)*cos((1/3)*acos(3c/(2b)*sqrt(3/b)) - 2*pi*k/3), k=0,1,2.
		r := 2 * math.Sqrt(b/3)
		theta := math.Acos(3 * c / (2 * b) * math.Sqrt(3/b))
		var candidates []float64
		for k := 0; k < 3; k++ {
			x := r * math.Cos(theta/3-2*math.Pi*float64(k)/3)
			if x > 0 && x <= bottomGradient+1e-9 {
				candidates = append(candidates, x)
			}
		}
		if len(candidates) == 0 {
			// Floating-point edge case near the domain boundary: fall back
			// to the general companion-matrix eigen decomposition before
			// giving up, the same escape hatch utils.py's Polynomial.roots()
			// has via numpy when the fast path's assumptions don't quite
			// hold.
			roots, err := generalCubicRealRoots(1, 0, -b, -c)
			if err != nil {
				return 0, err
			}
			for _, x := range roots {
				if x > 0 && x <= bottomGradient+1e-9 {
					candidates = append(candidates, x)
				}
			}
		}
		return selectUnique(candidates)
	}

	// One real root: Cardano's formula for x^3 - b*x - c = 0, q = -c, p = -b.
	denominator := math.Cbrt(9*c + math.Sqrt(3*discriminant))
	root := math.Cbrt(2.0/3.0)*b/denominator + denominator/math.Cbrt(18)
	return root, nil
}

func selectUnique(candidates []float64) (float64, error) {
	switch len(candidates) {
	case 0:
		return 0, ErrMultipleRealRoots
	case 1:
		return candidates[0], nil
	default:
		return 0, ErrMultipleRealRoots
	}
}

// generalCubicRealRoots returns the real roots (within the original's
// relative tolerance of 1e-6) of a*x^3 + b*x^2 + c*x + d = 0 via the
// companion matrix's eigenvalues, the same technique numpy's
// Polynomial.roots() uses internally and the one gonum/mat exposes
// directly through mat.Eigen. Used as the general-case fallback; the
// package's own allowable-gradient cubic is always depressed and goes
// through depressedCubicRoot instead.
func generalCubicRealRoots(a, b, c, d float64) ([]float64, error) {
	if a == 0 {
		return nil, ErrMultipleRealRoots
	}
	companion := mat.NewDense(3, 3, []float64{
		-b / a, -c / a, -d / a,
		1, 0, 0,
		0, 1, 0,
	})

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenRight) {
		return nil, ErrNonConvergent
	}

	roots := make([]float64, 0, 3)
	for _, v := range eig.Values(nil) {
		if math.Abs(real(v)) >= math.Abs(imag(v))*1e6 {
			roots = append(roots, real(v))
		}
	}
	return roots, nil
}
