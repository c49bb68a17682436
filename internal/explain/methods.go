package explain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// Method selects the quadrature rule used to approximate the path integral.
type Method string

// Integration methods.
const (
	RiemannLeft      Method = "riemann_left"
	RiemannRight     Method = "riemann_right"
	RiemannMiddle    Method = "riemann_middle"
	RiemannTrapezoid Method = "riemann_trapezoid"
	GaussLegendre    Method = "gausslegendre"
)

// Methods lists every supported method.
func Methods() []Method {
	return []Method{RiemannLeft, RiemannRight, RiemannMiddle, RiemannTrapezoid, GaussLegendre}
}

// ParseMethod converts a method name. The empty string selects GaussLegendre.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return GaussLegendre, nil
	}
	for _, m := range Methods() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// ApproximationParameters returns the n path positions alphas in [0, 1] and
// their quadrature weights for method. Weights always sum to 1.
func ApproximationParameters(method Method, n int) (alphas, weights []float64, err error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: %d (need at least 1)", ErrInvalidSteps, n)
	}

	alphas = make([]float64, n)
	weights = make([]float64, n)
	uniform := 1 / float64(n)

	switch method {
	case RiemannLeft:
		span(alphas, 0, 1-uniform)
		fill(weights, uniform)
	case RiemannRight:
		span(alphas, uniform, 1)
		fill(weights, uniform)
	case RiemannMiddle:
		span(alphas, uniform/2, 1-uniform/2)
		fill(weights, uniform)
	case RiemannTrapezoid:
		if n < 2 {
			return nil, nil, fmt.Errorf("%w: %s needs at least 2 steps, got %d", ErrInvalidSteps, method, n)
		}
		floats.Span(alphas, 0, 1)
		fill(weights, 1/float64(n-1))
		weights[0] /= 2
		weights[n-1] /= 2
	case GaussLegendre:
		if n == 1 {
			alphas[0], weights[0] = 0.5, 1
			break
		}
		quad.Legendre{}.FixedLocations(alphas, weights, 0, 1)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	return alphas, weights, nil
}

// span is floats.Span that also accepts a single point, placed at lo.
func span(dst []float64, lo, hi float64) {
	if len(dst) == 1 {
		dst[0] = lo
		return
	}
	floats.Span(dst, lo, hi)
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
