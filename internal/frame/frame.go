package frame

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrColumnMissing is returned when a named column does not exist in the frame.
	ErrColumnMissing = errors.New("column not present in frame")
	// ErrColumnExists is returned when adding a column under a name that is already taken.
	ErrColumnExists = errors.New("column already present in frame")
	// ErrLengthMismatch is returned when row or column lengths do not line up.
	ErrLengthMismatch = errors.New("length does not match frame")
	// ErrEmptyFrame is returned by operations that need at least one row.
	ErrEmptyFrame = errors.New("frame has no rows")
)

// Frame is a column-oriented table of float64 series of equal length.
// Column order is preserved from construction; all series grow together
// through AppendRow. A Frame is not safe for concurrent mutation, but
// read-only access from multiple goroutines is fine.
type Frame struct {
	names []string
	index map[string]int
	cols  [][]float64
}

// New creates an empty frame with the given column order.
func New(names ...string) (*Frame, error) {
	if len(names) == 0 {
		return nil, errors.New("frame needs at least one column")
	}
	f := &Frame{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
		cols:  make([][]float64, 0, len(names)),
	}
	for _, name := range names {
		if name == "" {
			return nil, errors.New("column name cannot be empty")
		}
		if _, ok := f.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnExists, name)
		}
		f.index[name] = len(f.names)
		f.names = append(f.names, name)
		f.cols = append(f.cols, nil)
	}
	return f, nil
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len reports the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return len(f.cols[0])
}

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AppendRow appends one value per column, in column order.
func (f *Frame) AppendRow(values ...float64) error {
	if len(values) != len(f.names) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrLengthMismatch, len(values), len(f.names))
	}
	for i, v := range values {
		f.cols[i] = append(f.cols[i], v)
	}
	return nil
}

// Column returns a copy of the named series.
func (f *Frame) Column(name string) ([]float64, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	out := make([]float64, len(f.cols[i]))
	copy(out, f.cols[i])
	return out, nil
}

// Set replaces the named series. The replacement must match the row count.
func (f *Frame) Set(name string, values []float64) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	if len(values) != f.Len() {
		return fmt.Errorf("%w: got %d values for %d rows", ErrLengthMismatch, len(values), f.Len())
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.cols[i] = col
	return nil
}

// Add appends a new column. The series must match the row count.
func (f *Frame) Add(name string, values []float64) error {
	if name == "" {
		return errors.New("column name cannot be empty")
	}
	if _, ok := f.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrColumnExists, name)
	}
	if len(values) != f.Len() {
		return fmt.Errorf("%w: got %d values for %d rows", ErrLengthMismatch, len(values), f.Len())
	}
	col := make([]float64, len(values))
	copy(col, values)
	f.index[name] = len(f.names)
	f.names = append(f.names, name)
	f.cols = append(f.cols, col)
	return nil
}

// Apply rewrites the named series in place through fn.
func (f *Frame) Apply(name string, fn func(float64) float64) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	col := f.cols[i]
	for j, v := range col {
		col[j] = fn(v)
	}
	return nil
}

// First returns the first value of the named series.
func (f *Frame) First(name string) (float64, error) {
	i, ok := f.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	if len(f.cols[i]) == 0 {
		return 0, ErrEmptyFrame
	}
	return f.cols[i][0], nil
}

// ArgMax returns the row index of the maximum of the named series.
// NaN values are ignored; a series of only NaN values yields ErrEmptyFrame.
func (f *Frame) ArgMax(name string) (int, error) {
	i, ok := f.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	col := f.cols[i]
	best, bestIdx := math.Inf(-1), -1
	for j, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if v > best {
			best, bestIdx = v, j
		}
	}
	if bestIdx < 0 {
		return 0, ErrEmptyFrame
	}
	return bestIdx, nil
}

// MinMax returns the smallest and largest value of the named series,
// ignoring NaN values.
func (f *Frame) MinMax(name string) (float64, float64, error) {
	i, ok := f.index[name]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	seen := false
	for _, v := range f.cols[i] {
		if math.IsNaN(v) {
			continue
		}
		seen = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !seen {
		return 0, 0, ErrEmptyFrame
	}
	return lo, hi, nil
}

// Filter returns a new frame holding the rows for which keep returns true
// when applied to the named series.
func (f *Frame) Filter(name string, keep func(float64) bool) (*Frame, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	out := f.emptyLike()
	for row, v := range f.cols[i] {
		if !keep(v) {
			continue
		}
		for c := range f.cols {
			out.cols[c] = append(out.cols[c], f.cols[c][row])
		}
	}
	return out, nil
}

// Head returns a new frame with the first n rows (all rows if n exceeds Len).
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.Len() {
		n = f.Len()
	}
	out := f.emptyLike()
	for c := range f.cols {
		out.cols[c] = append(out.cols[c], f.cols[c][:n]...)
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return f.Head(f.Len())
}

func (f *Frame) emptyLike() *Frame {
	out := &Frame{
		names: make([]string, len(f.names)),
		index: make(map[string]int, len(f.index)),
		cols:  make([][]float64, len(f.cols)),
	}
	copy(out.names, f.names)
	for name, i := range f.index {
		out.index[name] = i
	}
	return out
}
