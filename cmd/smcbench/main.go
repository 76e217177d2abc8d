// Command smcbench is the batch companion to the HTTP service. It loads
// squeeze flow experiments from a data root and inspects, exports,
// extracts or plots them without going through the API.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/config"
	"github.com/smc-benchmark/smcbench/internal/extract"
	"github.com/smc-benchmark/smcbench/internal/logging"
	"github.com/smc-benchmark/smcbench/internal/manipulate"
	"github.com/smc-benchmark/smcbench/internal/plot"
	"github.com/smc-benchmark/smcbench/internal/reader"
)

func main() {
	app := kingpin.New("smcbench", "SMC benchmark toolbox - inspects, exports, extracts and plots squeeze flow experiments")
	verbose := app.Flag("verbose", "Log at debug level").Short('v').Bool()
	dataRoot := app.Flag("data", "Directory holding one folder per institution").Required().String()
	institutionsStr := app.Flag("institutions", "Comma-separated institution codes (default: all)").String()
	material := app.Flag("material", "Keep only experiments on this material").String()
	specification := app.Flag("specification", "Keep only this test specification").String()
	keepErroneous := app.Flag("keep-erroneous", "Also load files listed in error.log").Bool()

	inspectCmd := app.Command("inspect", "Print the materials, specifications and sample counts per institution")

	exportCmd := app.Command("export", "Write the normalized channels of every sample as CSV")
	exportOut := exportCmd.Flag("out", "Destination directory").Default("export").String()

	extractCmd := app.Command("extract", "Write secant stiffness values at reference gaps, one CSV per sample")
	extractOut := extractCmd.Flag("out", "Destination directory").Default("extract").String()
	extractGaps := extractCmd.Flag("gap", "Reference gap in mm (repeatable, default: 4 and 7)").Float64List()
	extractSecant := extractCmd.Flag("secant-width", "Gap distance between the secant evaluation points in mm").Default("0.5").Float64()
	extractFilter := extractCmd.Flag("filter-window", "Moving-average width in lattice points (0 disables filtering)").Int()
	extractSpecs := extractCmd.Flag("spec", "Restrict the run to this specification (repeatable, default: all)").Strings()
	extractSkip := extractCmd.Flag("skip", "YAML file listing material/specification/institution combinations to exclude").String()

	plotCmd := app.Command("plot", "Render one SVG per material and specification")
	plotOut := plotCmd.Flag("out", "Destination directory").Default("plots").String()
	plotSamples := plotCmd.Flag("samples", "Also draw every individual sample as a dashed curve").Bool()
	plotMeanStd := plotCmd.Flag("mean-std", "Draw the aggregated mean curve with its deviation band").Default("true").Bool()
	plotMaxGap := plotCmd.Flag("max-gap", "Upper bound of the plotted gap range in mm").Default("11").Float64()
	plotWildcard := plotCmd.Flag("min-gap-wildcard", "Lower gap bound in mm for specifications without a recognized thickness").Default("3").Float64()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := logging.NewConsole(*verbose)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	var institutions []benchmark.Institution
	if *institutionsStr != "" {
		institutions, err = config.ParseInstitutions(*institutionsStr)
		if err != nil {
			app.Fatalf("%v", err)
		}
	}

	loader := &reader.Loader{
		Root:         *dataRoot,
		Institutions: institutions,
		Options: reader.Options{
			Material:      *material,
			Specification: *specification,
			KeepErroneous: *keepErroneous,
		},
		Logger: logger,
	}
	corpus, err := loader.Load()
	if err != nil {
		logger.Fatal("Failed to load benchmark data", zap.Error(err))
	}

	switch command {
	case inspectCmd.FullCommand():
		err = runInspect(os.Stdout, corpus)
	case exportCmd.FullCommand():
		err = runExport(*exportOut, corpus, logger)
	case extractCmd.FullCommand():
		err = runExtract(extractRun{
			dir:          *extractOut,
			gaps:         *extractGaps,
			secantWidth:  *extractSecant,
			filterWindow: *extractFilter,
			specs:        *extractSpecs,
			skipFile:     *extractSkip,
		}, corpus, logger)
	case plotCmd.FullCommand():
		err = runPlot(plotRun{
			dir:            *plotOut,
			samples:        *plotSamples,
			meanStd:        *plotMeanStd,
			maxGap:         *plotMaxGap,
			minGapWildcard: *plotWildcard,
		}, corpus, logger)
	}
	if err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}

// runInspect prints the corpus structure, one institution per block.
func runInspect(w io.Writer, corpus map[benchmark.Institution]benchmark.Dataset) error {
	for _, inst := range sortedInstitutions(corpus) {
		ds := corpus[inst]
		if _, err := fmt.Fprintf(w, "Institution: %s (samples: %d)\n", inst, ds.Samples()); err != nil {
			return err
		}
		if _, err := io.WriteString(w, manipulate.Describe(ds)); err != nil {
			return err
		}
	}
	return nil
}

// runExport writes the normalized channels of every sample as CSV files
// under dir, one subfolder per institution.
func runExport(dir string, corpus map[benchmark.Institution]benchmark.Dataset, logger *zap.Logger) error {
	total := 0
	for _, inst := range sortedInstitutions(corpus) {
		files, err := extract.WriteFrames(dir, inst, corpus[inst])
		if err != nil {
			return fmt.Errorf("export %s: %w", inst, err)
		}
		total += len(files)
	}
	logger.Info("export complete", zap.String("dir", dir), zap.Int("files", total))
	return nil
}

// extractRun carries the extract flags into runExtract.
type extractRun struct {
	dir          string
	gaps         []float64
	secantWidth  float64
	filterWindow int
	specs        []string
	skipFile     string
}

func runExtract(run extractRun, corpus map[benchmark.Institution]benchmark.Dataset, logger *zap.Logger) error {
	skip, err := loadSkipRules(run.skipFile)
	if err != nil {
		return err
	}
	exporter := &extract.Exporter{
		Dir: run.dir,
		Options: extract.Options{
			Gaps:         run.gaps,
			SecantWidth:  run.secantWidth,
			FilterWindow: run.filterWindow,
		},
		Specifications: run.specs,
		Skip:           skip,
		Logger:         logger,
	}
	manifest, err := exporter.Export(corpus)
	if err != nil {
		return err
	}
	logger.Info("extraction complete",
		zap.String("dir", run.dir),
		zap.String("runId", manifest.RunID),
		zap.Int("files", len(manifest.Files)),
		zap.Int("skipped", len(manifest.Skipped)),
	)
	return nil
}

// plotRun carries the plot flags into runPlot.
type plotRun struct {
	dir            string
	samples        bool
	meanStd        bool
	maxGap         float64
	minGapWildcard float64
}

func runPlot(run plotRun, corpus map[benchmark.Institution]benchmark.Dataset, logger *zap.Logger) error {
	total := 0
	for _, inst := range sortedInstitutions(corpus) {
		w := plot.NewWriter(filepath.Join(run.dir, string(inst)))
		w.Samples = run.samples
		w.MeanStd = run.meanStd
		w.MaxGap = run.maxGap
		w.MinGapWildcard = run.minGapWildcard
		w.Logger = logger
		files, err := w.WriteAll(corpus[inst])
		if err != nil {
			return fmt.Errorf("plot %s: %w", inst, err)
		}
		total += len(files)
	}
	logger.Info("plots complete", zap.String("dir", run.dir), zap.Int("files", total))
	return nil
}

// loadSkipRules reads exclusion rules from a YAML file. An empty path
// means no rules.
func loadSkipRules(path string) ([]extract.SkipRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skip rules: %w", err)
	}
	var rules []extract.SkipRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse skip rules %s: %w", path, err)
	}
	return rules, nil
}

func sortedInstitutions(corpus map[benchmark.Institution]benchmark.Dataset) []benchmark.Institution {
	insts := make([]benchmark.Institution, 0, len(corpus))
	for inst := range corpus {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i] < insts[j] })
	return insts
}
