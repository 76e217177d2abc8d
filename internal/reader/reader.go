// Package reader ingests squeeze-flow experiment files from the benchmark
// institutions, each with its own export dialect, and normalizes them into
// canonical frames (force in N, gap and displacement in mm).
package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
)

// ErrFolderMissing is returned when the data folder does not exist.
var ErrFolderMissing = errors.New("data folder not found")

// Options narrows what Read loads.
type Options struct {
	// Material keeps only experiments on this material when non-empty.
	Material string
	// Specification keeps only this test specification when non-empty.
	Specification string
	// KeepErroneous also loads files listed in the folder's error.log.
	KeepErroneous bool
}

// Read loads all experiments of one institution from a folder into a
// dataset keyed by material and specification. Files with unscheduled
// sample numbers or malformed names are skipped with a log notice; a file
// that fails to parse aborts the read (list it in error.log to skip it).
func Read(inst benchmark.Institution, folder string, opts Options, logger *zap.Logger) (benchmark.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, ok := dialects[inst]
	if !ok {
		return nil, fmt.Errorf("%w: %q", benchmark.ErrUnknownInstitution, inst)
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFolderMissing, folder)
	}

	skip := map[string]struct{}{}
	logPath := filepath.Join(folder, errorLogName)
	if !opts.KeepErroneous {
		if _, err := os.Stat(logPath); err == nil {
			skip = readErrorLog(logPath, logger)
		}
	}

	files, err := filepath.Glob(filepath.Join(folder, d.pattern))
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}
	logger.Info("reading institution data",
		zap.String("institution", string(inst)),
		zap.String("folder", folder),
		zap.Int("files", len(files)),
	)

	ds := benchmark.NewDataset()
	loaded := 0
	for _, file := range files {
		base := filepath.Base(file)
		if _, listed := skip[strings.ToLower(base)]; listed {
			logger.Info("skipping erroneous file", zap.String("file", base))
			continue
		}

		stem := strings.TrimSuffix(base, filepath.Ext(base))
		material, number, err := decodeFilename(stem)
		if err != nil {
			logger.Warn("skipping file with unrecognized name", zap.String("file", base), zap.Error(err))
			continue
		}

		spec, ok := benchmark.SpecificationFor(inst, number)
		if !ok {
			logger.Warn("sample number not scheduled for institution",
				zap.String("material", material),
				zap.Int("number", number),
				zap.String("institution", string(inst)),
			)
			continue
		}

		if opts.Material != "" && material != opts.Material {
			continue
		}
		if opts.Specification != "" && spec != opts.Specification {
			continue
		}

		fr, err := parseFile(file, d)
		if err != nil {
			return nil, fmt.Errorf("read %s file %s: %w", inst, base, err)
		}
		fr, err = normalize(inst, fr)
		if err != nil {
			return nil, fmt.Errorf("normalize %s file %s: %w", inst, base, err)
		}

		ds.Add(material, spec, number, fr)
		loaded++
	}

	logger.Info("institution data loaded",
		zap.String("institution", string(inst)),
		zap.Int("loaded", loaded),
	)
	return ds, nil
}

// Loader reads several institutions from one data root, expecting one
// subdirectory per institution name.
type Loader struct {
	Root         string
	Institutions []benchmark.Institution
	Options      Options
	Logger       *zap.Logger
}

// Load reads every configured institution. Institutions without a
// subdirectory are skipped with a notice; a failing read aborts the load.
func (l *Loader) Load() (map[benchmark.Institution]benchmark.Dataset, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	institutions := l.Institutions
	if len(institutions) == 0 {
		institutions = benchmark.Institutions()
	}

	out := make(map[benchmark.Institution]benchmark.Dataset, len(institutions))
	for _, inst := range institutions {
		folder := filepath.Join(l.Root, string(inst))
		if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			logger.Warn("no data folder for institution",
				zap.String("institution", string(inst)),
				zap.String("folder", folder),
			)
			continue
		}
		ds, err := Read(inst, folder, l.Options, logger)
		if err != nil {
			return nil, err
		}
		out[inst] = ds
	}
	return out, nil
}
