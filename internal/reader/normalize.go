package reader

import (
	"fmt"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
)

// Gap values above benchmark.MaxGap belong to the closing travel before
// the press touches the charge; several institutions record it and it is
// cut away.
const maxGap = benchmark.MaxGap

// riseGapOffset is the press position at which the RISE gap equals the
// recorded displacement origin.
const riseGapOffset = 41.10

// tumGapCorrection compensates the TUM gap sensor zero offset.
const tumGapCorrection = 0.05

const kiloNewton = 1000.0

// normalize converts a raw frame into canonical channels and units for the
// given institution: forces in N, gaps as remaining cavity height in mm,
// displacement re-zeroed at the start of the squeeze phase.
func normalize(inst benchmark.Institution, fr *frame.Frame) (*frame.Frame, error) {
	var err error
	switch inst {
	case benchmark.KIT, benchmark.JKU, benchmark.IVW:
		if inst == benchmark.IVW {
			err = scale(fr, benchmark.Force, kiloNewton)
		}
	case benchmark.UTW:
		err = normalizeUTW(fr)
	case benchmark.KUL:
		err = normalizeKUL(fr)
	case benchmark.ECN:
		fr, err = normalizeECN(fr)
	case benchmark.RISE:
		fr, err = normalizeRISE(fr)
	case benchmark.TUM:
		fr, err = normalizeTUM(fr)
	case benchmark.UOB:
		fr, err = normalizeUOB(fr)
	case benchmark.WMG:
		err = normalizeWMG(fr)
	default:
		err = fmt.Errorf("%w: %q", benchmark.ErrUnknownInstitution, inst)
	}
	if err != nil {
		return nil, err
	}
	return fr, nil
}

// UTW records the gap inverted; displacement is derived from the gap travel.
func normalizeUTW(fr *frame.Frame) error {
	if err := scale(fr, benchmark.Gap, -1); err != nil {
		return err
	}
	return deriveDisplacement(fr)
}

// KUL records force in kN and only the displacement; the gap follows from
// the 11 mm starting cavity height.
func normalizeKUL(fr *frame.Frame) error {
	if err := scale(fr, benchmark.Force, kiloNewton); err != nil {
		return err
	}
	d, err := fr.Column(benchmark.Displacement)
	if err != nil {
		return err
	}
	gap := make([]float64, len(d))
	for i, v := range d {
		gap[i] = maxGap - v
	}
	return fr.Add(benchmark.Gap, gap)
}

// ECN includes the approach phase; rows above the 11 mm gap are cut and the
// displacement is re-zeroed against the first retained gap value.
func normalizeECN(fr *frame.Frame) (*frame.Frame, error) {
	fr, err := cropGap(fr)
	if err != nil {
		return nil, err
	}
	if err := deriveDisplacement(fr); err != nil {
		return nil, err
	}
	return fr, nil
}

// RISE records a pulling load cell (negative kN) and no gap channel; the gap
// is reconstructed from the displacement travel before cropping.
func normalizeRISE(fr *frame.Frame) (*frame.Frame, error) {
	if err := scale(fr, benchmark.Force, -kiloNewton); err != nil {
		return nil, err
	}
	d, err := fr.Column(benchmark.Displacement)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, frame.ErrEmptyFrame
	}
	gap := make([]float64, len(d))
	for i, v := range d {
		gap[i] = riseGapOffset + (v - d[0])
	}
	if err := fr.Add(benchmark.Gap, gap); err != nil {
		return nil, err
	}
	fr, err = cropGap(fr)
	if err != nil {
		return nil, err
	}
	if err := deriveDisplacement(fr); err != nil {
		return nil, err
	}
	return fr, nil
}

// TUM records the gap inverted with a small sensor offset; displacement is
// re-zeroed after cropping.
func normalizeTUM(fr *frame.Frame) (*frame.Frame, error) {
	if err := fr.Apply(benchmark.Gap, func(v float64) float64 { return -v - tumGapCorrection }); err != nil {
		return nil, err
	}
	fr, err := cropGap(fr)
	if err != nil {
		return nil, err
	}
	d0, err := fr.First(benchmark.Displacement)
	if err != nil {
		return nil, err
	}
	if err := fr.Apply(benchmark.Displacement, func(v float64) float64 { return v - d0 }); err != nil {
		return nil, err
	}
	return fr, nil
}

// UOB records a pulling load cell and the gap relative to the closed press.
func normalizeUOB(fr *frame.Frame) (*frame.Frame, error) {
	if err := scale(fr, benchmark.Force, -kiloNewton); err != nil {
		return nil, err
	}
	if err := fr.Apply(benchmark.Gap, func(v float64) float64 { return v + maxGap }); err != nil {
		return nil, err
	}
	fr, err := cropGap(fr)
	if err != nil {
		return nil, err
	}
	if err := deriveDisplacement(fr); err != nil {
		return nil, err
	}
	return fr, nil
}

// WMG records force in kN; displacement is derived from the gap travel.
func normalizeWMG(fr *frame.Frame) error {
	if err := scale(fr, benchmark.Force, kiloNewton); err != nil {
		return err
	}
	return deriveDisplacement(fr)
}

func scale(fr *frame.Frame, name string, factor float64) error {
	return fr.Apply(name, func(v float64) float64 { return v * factor })
}

func cropGap(fr *frame.Frame) (*frame.Frame, error) {
	cropped, err := fr.Filter(benchmark.Gap, func(v float64) bool { return v <= maxGap })
	if err != nil {
		return nil, err
	}
	if cropped.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows at or below the %.0f mm gap", frame.ErrEmptyFrame, maxGap)
	}
	return cropped, nil
}

// deriveDisplacement adds or overwrites d = h0 - h so that displacement
// counts from the first retained gap value.
func deriveDisplacement(fr *frame.Frame) error {
	gap, err := fr.Column(benchmark.Gap)
	if err != nil {
		return err
	}
	if len(gap) == 0 {
		return frame.ErrEmptyFrame
	}
	d := make([]float64, len(gap))
	for i, v := range gap {
		d[i] = gap[0] - v
	}
	if fr.Has(benchmark.Displacement) {
		return fr.Set(benchmark.Displacement, d)
	}
	return fr.Add(benchmark.Displacement, d)
}
