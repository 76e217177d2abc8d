// Package manipulate post-processes normalized squeeze-flow samples:
// range cropping, linear interpolation onto shared grids and per-grid
// statistics across repeated experiments.
package manipulate

import (
	"fmt"
	"math"
	"strings"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
)

const (
	// gapGridStep is the grid spacing used when aggregating over the gap
	// channel, so that curves from different sampling rates line up.
	gapGridStep = 0.05

	// meanStdPoints is the grid size used for non-gap channels.
	meanStdPoints = 250
)

// Stats holds per-grid-point statistics across a set of samples.
type Stats struct {
	X    []float64 `json:"x"`
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// CropToRange keeps the rows of every frame whose column value lies in
// [start, end]. With cropForce set, each frame is additionally truncated
// just after its force peak, which discards the unloading phase.
func CropToRange(frames []*frame.Frame, start, end float64, column string, cropForce bool) ([]*frame.Frame, error) {
	out := make([]*frame.Frame, 0, len(frames))
	for i, fr := range frames {
		cropped, err := fr.Filter(column, func(v float64) bool { return v >= start && v <= end })
		if err != nil {
			return nil, fmt.Errorf("crop sample %d: %w", i, err)
		}
		if cropForce {
			peak, err := cropped.ArgMax(benchmark.Force)
			if err != nil {
				return nil, fmt.Errorf("crop sample %d at force peak: %w", i, err)
			}
			cropped = cropped.Head(peak + 1)
		}
		out = append(out, cropped)
	}
	return out, nil
}

// MeanStd interpolates every sample onto a common grid over xCol and
// returns the per-point mean and population standard deviation of yCol.
// The grid covers the range shared by all samples. For the gap channel it
// snaps to multiples of gapGridStep; other channels get a fixed-size
// linspace.
func MeanStd(frames []*frame.Frame, xCol, yCol string) (*Stats, error) {
	if len(frames) == 0 {
		return nil, ErrNoSamples
	}

	xMin := math.Inf(-1)
	xMax := math.Inf(1)
	for i, fr := range frames {
		lo, hi, err := fr.MinMax(xCol)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		xMin = math.Max(xMin, lo)
		xMax = math.Min(xMax, hi)
	}
	if xMin > xMax {
		return nil, fmt.Errorf("%w: common %s range is empty", ErrNoOverlap, xCol)
	}

	var grid []float64
	if xCol == benchmark.Gap {
		grid = SnappedGrid(xMin, xMax, gapGridStep)
		if len(grid) == 0 {
			return nil, fmt.Errorf("%w: no %s grid point between %g and %g", ErrNoOverlap, xCol, xMin, xMax)
		}
	} else {
		grid = linspace(xMin, xMax, meanStdPoints)
	}

	curves := make([][]float64, len(frames))
	for i, fr := range frames {
		xs, err := fr.Column(xCol)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		ys, err := fr.Column(yCol)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		ip, err := NewInterpolator(xs, ys)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		curves[i], err = ip.Sample(grid)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	n := float64(len(curves))
	mean := make([]float64, len(grid))
	std := make([]float64, len(grid))
	for j := range grid {
		var sum float64
		for i := range curves {
			sum += curves[i][j]
		}
		m := sum / n
		var dev float64
		for i := range curves {
			d := curves[i][j] - m
			dev += d * d
		}
		mean[j] = m
		std[j] = math.Sqrt(dev / n)
	}
	return &Stats{X: grid, Mean: mean, Std: std}, nil
}

// Describe renders the material and specification tree of a dataset, one
// line per entry.
func Describe(ds benchmark.Dataset) string {
	var b strings.Builder
	for _, material := range ds.Materials() {
		fmt.Fprintf(&b, "Material: %s\n", material)
		for _, spec := range ds.Specifications(material) {
			fmt.Fprintf(&b, "|-- Experiment: %s (samples: %d)\n",
				spec, len(ds.Numbers(material, spec)))
		}
	}
	return b.String()
}

// SnappedGrid returns the multiples of step inside [lo, hi]. The lattice is
// stable across samples with slightly different ranges, which keeps
// interpolated curves comparable point by point.
func SnappedGrid(lo, hi, step float64) []float64 {
	start := math.Ceil(lo / step)
	end := math.Floor(hi / step)
	if start > end {
		return nil
	}
	grid := make([]float64, 0, int(end-start)+1)
	for i := 0; ; i++ {
		s := start + float64(i)
		if s > end {
			break
		}
		grid = append(grid, s*step)
	}
	return grid
}

func linspace(start, end float64, n int) []float64 {
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = start
		return xs
	}
	step := (end - start) / float64(n-1)
	for i := range xs {
		xs[i] = start + float64(i)*step
	}
	xs[n-1] = end
	return xs
}
