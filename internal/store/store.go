// Package store holds the loaded benchmark corpus behind a read-write
// mutex. The whole corpus is replaced in one swap, so readers either see
// the previous load or the new one, never a mix.
package store

import (
	"sync"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
)

// Store is the in-memory corpus: one Dataset per institution.
type Store struct {
	mu     sync.RWMutex
	corpus map[benchmark.Institution]benchmark.Dataset
}

// New returns an empty store.
func New() *Store {
	return &Store{corpus: make(map[benchmark.Institution]benchmark.Dataset)}
}

// Replace installs a freshly loaded corpus. The map is copied; the
// datasets inside are shared and must not be mutated after the call.
func (s *Store) Replace(corpus map[benchmark.Institution]benchmark.Dataset) {
	next := make(map[benchmark.Institution]benchmark.Dataset, len(corpus))
	for inst, ds := range corpus {
		next[inst] = ds
	}

	s.mu.Lock()
	s.corpus = next
	s.mu.Unlock()
}

// Institutions returns the loaded institutions in canonical order.
func (s *Store) Institutions() []benchmark.Institution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]benchmark.Institution, 0, len(s.corpus))
	for _, inst := range benchmark.Institutions() {
		if _, ok := s.corpus[inst]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Dataset returns the dataset of one institution.
func (s *Store) Dataset(inst benchmark.Institution) (benchmark.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.corpus[inst]
	return ds, ok
}

// Sample resolves a single frame.
func (s *Store) Sample(inst benchmark.Institution, material, spec string, number int) (*frame.Frame, bool) {
	ds, ok := s.Dataset(inst)
	if !ok {
		return nil, false
	}
	return ds.Sample(material, spec, number)
}

// Counts returns the number of samples loaded per institution.
func (s *Store) Counts() map[benchmark.Institution]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[benchmark.Institution]int, len(s.corpus))
	for inst, ds := range s.corpus {
		out[inst] = ds.Samples()
	}
	return out
}

// Samples returns the total number of loaded samples.
func (s *Store) Samples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, ds := range s.corpus {
		total += ds.Samples()
	}
	return total
}
