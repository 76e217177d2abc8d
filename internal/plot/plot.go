// Package plot renders force-gap figures as self-contained SVG documents:
// a mean curve with a standard-deviation band, optional per-sample curves,
// axes, grid and legend.
package plot

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFigure is returned when a figure holds nothing drawable.
	ErrEmptyFigure = errors.New("nothing to draw")

	// ErrBandMismatch is returned when a band's slices do not line up.
	ErrBandMismatch = errors.New("band slices differ in length")
)

// Series is one polyline. An empty series with a label contributes a
// legend entry without drawing anything, which is how a single legend
// handle stands in for many sample curves.
type Series struct {
	X      []float64
	Y      []float64
	Label  string
	Color  string // empty picks the next palette color
	Dashed bool
}

// Band is a shaded region between two curves over a shared x grid.
type Band struct {
	X     []float64
	Lower []float64
	Upper []float64
	Label string
}

// Figure describes one chart.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Band   *Band
	Series []Series
}

// Render validates the figure and returns it as an SVG document.
func Render(fig Figure) ([]byte, error) {
	if fig.Band != nil {
		b := fig.Band
		if len(b.Lower) != len(b.X) || len(b.Upper) != len(b.X) {
			return nil, fmt.Errorf("%w: %d x, %d lower, %d upper",
				ErrBandMismatch, len(b.X), len(b.Lower), len(b.Upper))
		}
	}
	for i, s := range fig.Series {
		if len(s.X) != len(s.Y) {
			return nil, fmt.Errorf("series %d: %d x values against %d y values", i, len(s.X), len(s.Y))
		}
	}
	return renderSVG(fig)
}
