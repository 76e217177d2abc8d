package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
)

// ErrBadRecord is returned when a data line cannot be turned into a row.
var ErrBadRecord = errors.New("malformed data record")

// dialect describes how one institution lays out its export files.
// columns names the file columns in order; an empty name drops the column.
type dialect struct {
	pattern    string // file glob within the institution folder
	comma      rune   // field separator
	decimal    byte   // decimal separator, '.' or ','
	skipRows   int    // header lines before the data block
	skipFooter int    // trailing lines to drop (IVW closes files with a summary line)
	latin1     bool   // decode bytes as ISO 8859-1 before parsing
	columns    []string
}

// Auxiliary channel names kept alongside the canonical ones.
const (
	colCycleTime     = "cycle_time"
	colTotalCycles   = "total_cycles"
	colElapsedCycles = "elapsed_cycles"
	colStep          = "step"
	colCycleCount    = "cycle_count"
	colLVDT          = "lvdt"
)

var dialects = map[benchmark.Institution]dialect{
	benchmark.KIT: {
		pattern:  "*.TXT",
		comma:    ',',
		decimal:  '.',
		skipRows: 5,
		latin1:   true,
		columns:  []string{benchmark.Time, "", benchmark.Force, benchmark.Displacement, benchmark.Gap},
	},
	benchmark.UTW: {
		pattern:  "*.csv",
		comma:    ',',
		decimal:  '.',
		skipRows: 7,
		columns:  []string{benchmark.Time, benchmark.Gap, benchmark.Force, "L1", "L2"},
	},
	benchmark.KUL: {
		pattern:  "*.csv",
		comma:    ';',
		decimal:  ',',
		skipRows: 5,
		columns:  []string{benchmark.Time, benchmark.Displacement, benchmark.Force},
	},
	benchmark.JKU: {
		pattern:  "*.csv",
		comma:    '\t',
		decimal:  '.',
		skipRows: 5,
		latin1:   true,
		columns: []string{
			benchmark.Time, benchmark.Temperature, benchmark.Gap,
			benchmark.Displacement, benchmark.Force,
		},
	},
	benchmark.ECN: {
		pattern:  "*.csv",
		comma:    ';',
		decimal:  '.',
		skipRows: 3,
		latin1:   true,
		columns: []string{
			benchmark.Time, benchmark.Force, benchmark.Displacement,
			benchmark.Gap, benchmark.Temperature,
		},
	},
	benchmark.RISE: {
		pattern:  "*.csv",
		comma:    ';',
		decimal:  ',',
		skipRows: 2,
		latin1:   true,
		columns: []string{
			benchmark.Time, colCycleTime, colTotalCycles, colElapsedCycles,
			colStep, colCycleCount, benchmark.Displacement, benchmark.Force, "",
		},
	},
	benchmark.TUM: {
		pattern:  "*.csv",
		comma:    ';',
		decimal:  ',',
		skipRows: 1,
		latin1:   true,
		columns: []string{
			benchmark.Force, benchmark.Gap, benchmark.Displacement, benchmark.Temperature,
		},
	},
	benchmark.UOB: {
		pattern:  "*.csv",
		comma:    ',',
		decimal:  '.',
		skipRows: 1,
		latin1:   true,
		columns: []string{
			benchmark.Time, colCycleTime, colTotalCycles, colElapsedCycles,
			colStep, colCycleCount, benchmark.Gap, benchmark.Force,
		},
	},
	benchmark.WMG: {
		pattern:  "*.csv",
		comma:    ',',
		decimal:  '.',
		skipRows: 1,
		latin1:   true,
		columns: []string{
			benchmark.Time, benchmark.Gap, colLVDT, benchmark.Force,
			"p1", "p2", "p3", "p4", "p5",
		},
	},
	benchmark.IVW: {
		pattern:    "*.csv",
		comma:      ';',
		decimal:    '.',
		skipRows:   4,
		skipFooter: 1,
		columns: []string{
			benchmark.Time, benchmark.Force, benchmark.Displacement, benchmark.Gap,
		},
	},
}

// parseFile reads one data file according to the dialect and returns a frame
// holding every named column.
func parseFile(path string, d dialect) (*frame.Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if d.latin1 {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode latin1: %w", err)
		}
	}

	body := skipLines(string(raw), d.skipRows)

	cr := csv.NewReader(strings.NewReader(body))
	cr.Comma = d.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	if d.skipFooter > 0 {
		if len(records) < d.skipFooter {
			return nil, fmt.Errorf("%w: file shorter than its footer", ErrBadRecord)
		}
		records = records[:len(records)-d.skipFooter]
	}

	names := make([]string, 0, len(d.columns))
	for _, name := range d.columns {
		if name != "" {
			names = append(names, name)
		}
	}
	fr, err := frame.New(names...)
	if err != nil {
		return nil, err
	}

	minFields := requiredFields(d.columns)
	row := make([]float64, 0, len(names))
	for i, record := range records {
		if len(record) < minFields {
			return nil, fmt.Errorf("%w: line %d has %d fields, want at least %d",
				ErrBadRecord, d.skipRows+i+1, len(record), minFields)
		}
		row = row[:0]
		for col, name := range d.columns {
			if name == "" {
				continue
			}
			v, err := parseField(record[col], d.decimal)
			if err != nil {
				if benchmark.IsChannel(name) {
					return nil, fmt.Errorf("%w: line %d column %q: %v",
						ErrBadRecord, d.skipRows+i+1, name, err)
				}
				v = math.NaN() // auxiliary channels tolerate junk
			}
			row = append(row, v)
		}
		if err := fr.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// requiredFields is the count up to the last named column; trailing dropped
// columns (RISE closes each line with a separator) stay optional.
func requiredFields(columns []string) int {
	for i := len(columns) - 1; i >= 0; i-- {
		if columns[i] != "" {
			return i + 1
		}
	}
	return 0
}

func parseField(field string, decimal byte) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, errors.New("empty field")
	}
	if decimal == ',' {
		field = strings.Replace(field, ",", ".", 1)
	}
	return strconv.ParseFloat(field, 64)
}

func skipLines(s string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			return ""
		}
		s = s[idx+1:]
	}
	return s
}
