package manipulate

import (
	"fmt"
	"math"
	"sort"
)

// boundaryTol absorbs float noise when a query lands a hair outside the
// knot range, as grid snapping can produce.
const boundaryTol = 1e-9

// Interpolator evaluates a piecewise linear curve through a set of knots.
// Knots are sorted by x on construction, so descending measurement series
// (gap shrinking over time) work unchanged.
type Interpolator struct {
	xs []float64
	ys []float64
}

// NewInterpolator builds an interpolator over the given knots. The input
// slices are copied and may be modified afterwards.
func NewInterpolator(xs, ys []float64) (*Interpolator, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values against %d y values", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(xs))
	}

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return xs[order[i]] < xs[order[j]] })

	ip := &Interpolator{
		xs: make([]float64, len(xs)),
		ys: make([]float64, len(ys)),
	}
	for i, j := range order {
		ip.xs[i] = xs[j]
		ip.ys[i] = ys[j]
	}
	return ip, nil
}

// Min returns the smallest knot x.
func (ip *Interpolator) Min() float64 { return ip.xs[0] }

// Max returns the largest knot x.
func (ip *Interpolator) Max() float64 { return ip.xs[len(ip.xs)-1] }

// At evaluates the curve at x. Queries outside the knot range return
// ErrOutOfRange.
func (ip *Interpolator) At(x float64) (float64, error) {
	last := len(ip.xs) - 1
	if x < ip.xs[0] || x > ip.xs[last] {
		switch {
		case math.Abs(x-ip.xs[0]) <= boundaryTol:
			x = ip.xs[0]
		case math.Abs(x-ip.xs[last]) <= boundaryTol:
			x = ip.xs[last]
		default:
			return 0, fmt.Errorf("%w: %g outside [%g, %g]", ErrOutOfRange, x, ip.xs[0], ip.xs[last])
		}
	}

	i := sort.SearchFloat64s(ip.xs, x)
	if i <= last && ip.xs[i] == x {
		return ip.ys[i], nil
	}
	x0, x1 := ip.xs[i-1], ip.xs[i]
	y0, y1 := ip.ys[i-1], ip.ys[i]
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0), nil
}

// Sample evaluates the curve at every x in order.
func (ip *Interpolator) Sample(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		y, err := ip.At(x)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}
