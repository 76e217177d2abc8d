package extract

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
)

const manifestName = "manifest.yaml"

// SkipRule excludes one (material, specification, institution) combination
// from an export run, for combinations known to be unusable such as a load
// cell driven past its range.
type SkipRule struct {
	Material      string                `yaml:"material"`
	Specification string                `yaml:"specification"`
	Institution   benchmark.Institution `yaml:"institution"`
	Reason        string                `yaml:"reason,omitempty"`
}

// ExportedFile records one CSV written during an export run.
type ExportedFile struct {
	Institution   string `yaml:"institution"`
	Material      string `yaml:"material"`
	Specification string `yaml:"specification"`
	Number        int    `yaml:"number"`
	Path          string `yaml:"path"`
}

// SkippedCombination records a combination excluded by a SkipRule.
type SkippedCombination struct {
	Institution   string `yaml:"institution"`
	Material      string `yaml:"material"`
	Specification string `yaml:"specification"`
	Reason        string `yaml:"reason,omitempty"`
}

// Manifest describes one export run. It is written as manifest.yaml next
// to the exported CSV files.
type Manifest struct {
	RunID        string               `yaml:"run_id"`
	CreatedAt    time.Time            `yaml:"created_at"`
	Gaps         []float64            `yaml:"gaps"`
	SecantWidth  float64              `yaml:"secant_width"`
	FilterWindow int                  `yaml:"filter_window,omitempty"`
	Files        []ExportedFile       `yaml:"files"`
	Skipped      []SkippedCombination `yaml:"skipped,omitempty"`
}

// Exporter writes extracted values for a whole corpus: one CSV per sample
// named <INST>-<MATERIAL>-<SIZE>-<NUMBER>.csv under a per-institution
// folder, plus a manifest tagged with a fresh run ID.
type Exporter struct {
	// Dir is the destination directory, created if missing.
	Dir string

	// Options configure the extraction of every sample.
	Options Options

	// Specifications restricts the export to the listed specifications.
	// Empty means all.
	Specifications []string

	// Skip lists combinations excluded from the run.
	Skip []SkipRule

	Logger *zap.Logger
}

// Export processes every sample of the corpus and returns the run manifest.
func (e *Exporter) Export(corpus map[benchmark.Institution]benchmark.Dataset) (*Manifest, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := e.Options.withDefaults()

	m := &Manifest{
		RunID:        uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Gaps:         opts.Gaps,
		SecantWidth:  opts.SecantWidth,
		FilterWindow: opts.FilterWindow,
	}
	logger.Info("starting extraction run",
		zap.String("run_id", m.RunID),
		zap.Int("institutions", len(corpus)),
		zap.Float64s("gaps", opts.Gaps))

	for _, inst := range benchmark.Institutions() {
		ds, ok := corpus[inst]
		if !ok {
			continue
		}
		if err := e.exportInstitution(m, inst, ds, opts, logger); err != nil {
			return nil, err
		}
	}

	raw, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.Dir, manifestName), raw, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	logger.Info("extraction run finished",
		zap.String("run_id", m.RunID),
		zap.Int("files", len(m.Files)),
		zap.Int("skipped", len(m.Skipped)))
	return m, nil
}

func (e *Exporter) exportInstitution(m *Manifest, inst benchmark.Institution, ds benchmark.Dataset, opts Options, logger *zap.Logger) error {
	for _, material := range ds.Materials() {
		for _, spec := range ds.Specifications(material) {
			if !e.wantSpecification(spec) {
				continue
			}
			if reason, skip := e.skipReason(material, spec, inst); skip {
				m.Skipped = append(m.Skipped, SkippedCombination{
					Institution:   string(inst),
					Material:      material,
					Specification: spec,
					Reason:        reason,
				})
				logger.Info("skipping combination",
					zap.String("institution", string(inst)),
					zap.String("material", material),
					zap.String("specification", spec),
					zap.String("reason", reason))
				continue
			}

			for _, number := range ds.Numbers(material, spec) {
				fr, ok := ds.Sample(material, spec, number)
				if !ok {
					continue
				}
				values, err := Process(fr, opts)
				if err != nil {
					return fmt.Errorf("process %s %s %q sample %d: %w",
						inst, material, spec, number, err)
				}

				name := fmt.Sprintf("%s-%s-%s-%d.csv",
					strings.ToUpper(string(inst)), strings.ToUpper(material),
					benchmark.Footprint(spec), number)
				rel := filepath.Join(strings.ToUpper(string(inst)), name)
				if err := writeValuesCSV(filepath.Join(e.Dir, rel), values, opts.SecantWidth); err != nil {
					return err
				}
				m.Files = append(m.Files, ExportedFile{
					Institution:   string(inst),
					Material:      material,
					Specification: spec,
					Number:        number,
					Path:          rel,
				})
			}
		}
	}
	return nil
}

func (e *Exporter) wantSpecification(spec string) bool {
	if len(e.Specifications) == 0 {
		return true
	}
	for _, s := range e.Specifications {
		if s == spec {
			return true
		}
	}
	return false
}

func (e *Exporter) skipReason(material, spec string, inst benchmark.Institution) (string, bool) {
	for _, rule := range e.Skip {
		if rule.Material == material && rule.Specification == spec && rule.Institution == inst {
			return rule.Reason, true
		}
	}
	return "", false
}

func writeValuesCSV(path string, values []Value, secantWidth float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Gap [mm],Force [N],Secant Slope (width %g mm) [N/mm]\n", secantWidth)
	for _, v := range values {
		b.WriteString(formatValue(v.Gap))
		b.WriteByte(',')
		b.WriteString(formatValue(v.Force))
		b.WriteByte(',')
		b.WriteString(formatValue(v.Secant))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write values: %w", err)
	}
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.18e", v)
}

// WriteFrames exports the normalized channels of every sample in ds as CSV
// under dir, one file per sample named <INST>_<material>_<number>.csv in a
// per-institution folder. It returns the relative paths written.
func WriteFrames(dir string, inst benchmark.Institution, ds benchmark.Dataset) ([]string, error) {
	upper := strings.ToUpper(string(inst))
	if err := os.MkdirAll(filepath.Join(dir, upper), 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	var written []string
	for _, material := range ds.Materials() {
		for _, spec := range ds.Specifications(material) {
			for _, number := range ds.Numbers(material, spec) {
				fr, ok := ds.Sample(material, spec, number)
				if !ok {
					continue
				}
				rel := filepath.Join(upper, fmt.Sprintf("%s_%s_%d.csv", upper, material, number))
				if err := writeFrameCSV(filepath.Join(dir, rel), fr); err != nil {
					return nil, err
				}
				written = append(written, rel)
			}
		}
	}
	return written, nil
}

func writeFrameCSV(path string, fr *frame.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	names := fr.Names()
	if err := w.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	columns := make([][]float64, len(names))
	for i, name := range names {
		col, err := fr.Column(name)
		if err != nil {
			return err
		}
		columns[i] = col
	}

	record := make([]string, len(names))
	for row := 0; row < fr.Len(); row++ {
		for i := range columns {
			record[i] = strconv.FormatFloat(columns[i][row], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
