package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/manipulate"
)

// Writer renders one figure per (material, specification) of a dataset.
// Samples are cropped to [min gap, MaxGap] with the minimum gap taken from
// the specification name, and truncated at the force peak before
// aggregation.
type Writer struct {
	// Dir is the destination directory, created if missing.
	Dir string

	// MaxGap bounds the plotted gap range from above.
	MaxGap float64

	// MinGapWildcard is the lower gap bound for specifications without a
	// recognized thickness token.
	MinGapWildcard float64

	// MeanStd draws the aggregated mean curve with its deviation band.
	MeanStd bool

	// Samples draws every individual sample as a dashed curve.
	Samples bool

	Logger *zap.Logger
}

// NewWriter returns a Writer with the conventional bounds: gap range up to
// 11 mm, wildcard minimum 3 mm, mean and deviation band enabled.
func NewWriter(dir string) *Writer {
	return &Writer{
		Dir:            dir,
		MaxGap:         benchmark.MaxGap,
		MinGapWildcard: 3.0,
		MeanStd:        true,
	}
}

// WriteAll renders every (material, specification) group of the dataset
// into Dir and returns the file names written.
func (w *Writer) WriteAll(ds benchmark.Dataset) ([]string, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot directory: %w", err)
	}

	var written []string
	for _, material := range ds.Materials() {
		for _, spec := range ds.Specifications(material) {
			name := fmt.Sprintf("%s_%s.svg", material, spec)
			svg, err := w.render(ds, material, spec)
			if err != nil {
				return nil, fmt.Errorf("plot %s %q: %w", material, spec, err)
			}
			if err := os.WriteFile(filepath.Join(w.Dir, name), svg, 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", name, err)
			}
			logger.Info("figure written",
				zap.String("material", material),
				zap.String("specification", spec),
				zap.String("file", name))
			written = append(written, name)
		}
	}
	return written, nil
}

func (w *Writer) render(ds benchmark.Dataset, material, spec string) ([]byte, error) {
	frames := ds.Frames(material, spec)
	minGap := benchmark.MinGap(spec, w.MinGapWildcard)
	cropped, err := manipulate.CropToRange(frames, minGap, w.MaxGap, benchmark.Gap, true)
	if err != nil {
		return nil, err
	}

	fig := Figure{
		Title:  material + " " + spec,
		XLabel: "Gap in mm",
		YLabel: "Force in N",
	}

	if w.MeanStd {
		stats, err := manipulate.MeanStd(cropped, benchmark.Gap, benchmark.Force)
		if err != nil {
			return nil, err
		}
		lower := make([]float64, len(stats.X))
		upper := make([]float64, len(stats.X))
		for i := range stats.X {
			lower[i] = stats.Mean[i] - stats.Std[i]
			upper[i] = stats.Mean[i] + stats.Std[i]
		}
		fig.Band = &Band{X: stats.X, Lower: lower, Upper: upper, Label: "Std"}
		fig.Series = append(fig.Series, Series{
			X: stats.X, Y: stats.Mean, Label: "Mean", Color: "black",
		})
	}

	if w.Samples {
		for _, fr := range cropped {
			xs, err := fr.Column(benchmark.Gap)
			if err != nil {
				return nil, err
			}
			ys, err := fr.Column(benchmark.Force)
			if err != nil {
				return nil, err
			}
			fig.Series = append(fig.Series, Series{X: xs, Y: ys, Dashed: true})
		}
		if w.MeanStd {
			// Single legend handle standing in for all sample curves.
			fig.Series = append(fig.Series, Series{Label: "Samples", Color: "black", Dashed: true})
		}
	}

	return Render(fig)
}
