package benchmark

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical channel names shared by all institutions after normalization.
// Units: seconds, degrees Celsius, millimetres, newtons.
const (
	Time         = "t" // time
	Temperature  = "T" // temperature
	Gap          = "h" // molding gap, or sample thickness
	Force        = "F" // press force
	Displacement = "d" // machine displacement
	Velocity     = "v" // velocity
)

// IsChannel reports whether name is one of the canonical channels.
func IsChannel(name string) bool {
	switch name {
	case Time, Temperature, Gap, Force, Displacement, Velocity:
		return true
	}
	return false
}

// MaxGap is the largest meaningful molding gap in mm. The presses close
// from 11 mm, so rows above it are approach motion, not measurement.
const MaxGap = 11.0

// Institution identifies the lab that ran a set of experiments.
type Institution string

// Participating institutions of the European SMC benchmark.
const (
	KIT  Institution = "kit"
	UTW  Institution = "utw"
	KUL  Institution = "kul"
	ECN  Institution = "ecn"
	RISE Institution = "rise"
	TUM  Institution = "tum"
	UOB  Institution = "uob"
	WMG  Institution = "wmg"
	JKU  Institution = "jku"
	IVW  Institution = "ivw"
)

// ErrUnknownInstitution is returned when an institution name is not part of the benchmark.
var ErrUnknownInstitution = errors.New("unknown institution")

// Institutions returns all participating institutions in canonical order.
func Institutions() []Institution {
	return []Institution{KIT, UTW, KUL, ECN, RISE, TUM, UOB, WMG, JKU, IVW}
}

// ParseInstitution converts a case-insensitive name into an Institution.
func ParseInstitution(name string) (Institution, error) {
	candidate := Institution(strings.ToLower(strings.TrimSpace(name)))
	for _, inst := range Institutions() {
		if inst == candidate {
			return inst, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownInstitution, name, joinInstitutions())
}

func joinInstitutions() string {
	all := Institutions()
	names := make([]string, len(all))
	for i, inst := range all {
		names[i] = string(inst)
	}
	return strings.Join(names, ", ")
}

// Test specifications: charge thickness and charge footprint in mm.
const (
	Spec3mm100 = "3mm 100x100"
	Spec3mm50  = "3mm 50x50"
	Spec5mm100 = "5mm 100x100"
	Spec7mm100 = "7mm 100x100"
	Spec5mm50  = "5mm 50x50"
	Spec7mm50  = "7mm 50x50"
)

// specNumbers maps each specification to the sample numbers that realise it.
// Most institutions follow the KIT scheme; JKU, UOB, RISE and TUM deviate.
var (
	defaultSpecNumbers = map[string][]int{
		Spec3mm100: {3, 7, 11, 15, 19, 23},
		Spec3mm50:  {4, 8, 12, 16, 20, 24},
		Spec5mm100: {2, 6, 10, 14, 18, 22},
		Spec7mm100: {1, 5, 9, 13, 17, 21},
	}

	jkuSpecNumbers = map[string][]int{
		Spec3mm100: {4, 8, 12, 16, 20, 24},
		Spec3mm50:  {3, 7, 11, 15, 19, 23},
		Spec5mm50:  {2, 6, 10, 14, 18, 22},
		Spec7mm50:  {1, 5, 9, 13, 17, 21},
	}

	// All short shots, 50x50 only.
	uobSpecNumbers = map[string][]int{
		Spec7mm50: {1, 5, 9, 13, 17, 21},
		Spec5mm50: {2, 6, 10, 14, 18, 22},
		Spec3mm50: {3, 7, 11, 15, 19, 23},
	}

	// Circular samples (the 100x100 slots) are not part of the benchmark.
	riseSpecNumbers = map[string][]int{
		Spec3mm50: {3, 7, 11, 15, 19, 23},
		Spec5mm50: {2, 6, 10, 14, 18, 22},
		Spec7mm50: {1, 5, 9, 13, 17, 21},
	}

	// One extra 3mm 100x100 sample, one 3mm 50x50 sample lacking.
	tumSpecNumbers = map[string][]int{
		Spec3mm100: {3, 7, 11, 15, 19, 20, 23},
		Spec3mm50:  {4, 8, 12, 16, 24},
		Spec5mm100: {2, 6, 10, 14, 18, 22},
		Spec7mm100: {1, 5, 9, 13, 17, 21},
	}
)

var numberSpecs = buildNumberSpecs()

func buildNumberSpecs() map[Institution]map[int]string {
	tables := map[Institution]map[string][]int{
		JKU:  jkuSpecNumbers,
		UOB:  uobSpecNumbers,
		RISE: riseSpecNumbers,
		TUM:  tumSpecNumbers,
	}
	out := make(map[Institution]map[int]string, len(Institutions()))
	for _, inst := range Institutions() {
		table, ok := tables[inst]
		if !ok {
			table = defaultSpecNumbers
		}
		inverted := make(map[int]string)
		for spec, numbers := range table {
			for _, n := range numbers {
				inverted[n] = spec
			}
		}
		out[inst] = inverted
	}
	return out
}

// SpecificationFor resolves a sample number to its test specification for
// the given institution. ok is false when the number is not scheduled.
func SpecificationFor(inst Institution, number int) (string, bool) {
	table, ok := numberSpecs[inst]
	if !ok {
		return "", false
	}
	spec, ok := table[number]
	return spec, ok
}

// Footprint returns the charge footprint token of a specification,
// e.g. "100x100" for "3mm 100x100".
func Footprint(spec string) string {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return spec
	}
	return fields[len(fields)-1]
}

// MinGap returns the plotting lower gap bound implied by the charge
// thickness of a specification name; wildcard covers unknown thicknesses.
func MinGap(spec string, wildcard float64) float64 {
	switch {
	case strings.Contains(spec, "7mm"):
		return 7.0
	case strings.Contains(spec, "5mm"):
		return 5.0
	case strings.Contains(spec, "3mm"):
		return 3.0
	}
	return wildcard
}
