// Package extract pulls scalar quantities out of normalized squeeze-flow
// samples: the press force and the secant slope of the force-gap curve at
// a set of reference gaps, with an optional moving-average filter. The
// results feed statistical comparison across institutions and are exported
// as per-sample CSV files plus a run manifest.
package extract

import (
	"errors"
	"fmt"
	"math"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
	"github.com/smc-benchmark/smcbench/internal/manipulate"
)

// ErrNoGaps is returned when an extraction is requested without any
// reference gap.
var ErrNoGaps = errors.New("no reference gaps")

// Extraction defaults.
const (
	DefaultSecantWidth = 0.5   // mm
	DefaultFilterDX    = 0.025 // mm, equidistant lattice for filtering
)

// DefaultGaps returns the reference gaps used when none are configured.
func DefaultGaps() []float64 { return []float64{4.0, 7.0} }

// Options configures Process.
type Options struct {
	// Gaps holds the reference gap values in mm. Empty means DefaultGaps.
	Gaps []float64

	// SecantWidth is the gap distance between the two secant evaluation
	// points, in mm. Zero means DefaultSecantWidth.
	SecantWidth float64

	// FilterWindow is the moving-average width in lattice points. Zero
	// disables filtering.
	FilterWindow int

	// FilterDX is the lattice spacing used when filtering. Zero means
	// DefaultFilterDX.
	FilterDX float64
}

func (o Options) withDefaults() Options {
	if o.Gaps == nil {
		o.Gaps = DefaultGaps()
	}
	if o.SecantWidth == 0 {
		o.SecantWidth = DefaultSecantWidth
	}
	if o.FilterDX == 0 {
		o.FilterDX = DefaultFilterDX
	}
	return o
}

// Value holds the extracted quantities at one reference gap. A sample whose
// gap range does not cover every evaluation point yields all-NaN values, so
// out-of-range experiments stay visible in exports instead of dropping out
// silently.
type Value struct {
	Gap    float64
	Force  float64
	Secant float64
}

// IsNaN reports whether the value marks an out-of-range sample.
func (v Value) IsNaN() bool {
	return math.IsNaN(v.Gap) && math.IsNaN(v.Force) && math.IsNaN(v.Secant)
}

// Process extracts force and secant slope at every reference gap from the
// force-gap curve of one sample. The secant slope at gap g is
// (F(g-w/2) - F(g+w/2)) / w, positive when force grows as the gap closes.
func Process(fr *frame.Frame, opts Options) ([]Value, error) {
	opts = opts.withDefaults()
	if len(opts.Gaps) == 0 {
		return nil, ErrNoGaps
	}

	gaps, err := fr.Column(benchmark.Gap)
	if err != nil {
		return nil, err
	}
	forces, err := fr.Column(benchmark.Force)
	if err != nil {
		return nil, err
	}
	ip, err := manipulate.NewInterpolator(gaps, forces)
	if err != nil {
		return nil, err
	}

	half := opts.SecantWidth / 2
	if !covers(ip, opts.Gaps, half) {
		return nanValues(len(opts.Gaps)), nil
	}

	if opts.FilterWindow > 0 {
		lattice := manipulate.SnappedGrid(ip.Min(), ip.Max(), opts.FilterDX)
		raw, err := ip.Sample(lattice)
		if err != nil {
			return nil, err
		}
		smoothGaps := MovingAverage(lattice, opts.FilterWindow)
		smoothForces := MovingAverage(raw, opts.FilterWindow)
		if len(smoothGaps) < 2 {
			return nanValues(len(opts.Gaps)), nil
		}
		ip, err = manipulate.NewInterpolator(smoothGaps, smoothForces)
		if err != nil {
			return nil, err
		}
		// Filtering trims the usable range at both ends.
		if !covers(ip, opts.Gaps, half) {
			return nanValues(len(opts.Gaps)), nil
		}
	}

	out := make([]Value, len(opts.Gaps))
	for i, g := range opts.Gaps {
		force, err := ip.At(g)
		if err != nil {
			return nil, fmt.Errorf("force at gap %g: %w", g, err)
		}
		lower, err := ip.At(g - half)
		if err != nil {
			return nil, fmt.Errorf("secant at gap %g: %w", g, err)
		}
		upper, err := ip.At(g + half)
		if err != nil {
			return nil, fmt.Errorf("secant at gap %g: %w", g, err)
		}
		out[i] = Value{
			Gap:    g,
			Force:  force,
			Secant: (lower - upper) / opts.SecantWidth,
		}
	}
	return out, nil
}

func covers(ip *manipulate.Interpolator, gaps []float64, half float64) bool {
	for _, g := range gaps {
		if g-half < ip.Min() || g+half > ip.Max() {
			return false
		}
	}
	return true
}

func nanValues(n int) []Value {
	nan := math.NaN()
	out := make([]Value, n)
	for i := range out {
		out[i] = Value{Gap: nan, Force: nan, Secant: nan}
	}
	return out
}
