package benchmark

import (
	"sort"

	"github.com/smc-benchmark/smcbench/internal/frame"
)

// Dataset groups experiments by material, then test specification, then
// sample number. Frames stored in a dataset are treated as read-only.
type Dataset map[string]map[string]map[int]*frame.Frame

// NewDataset returns an empty dataset.
func NewDataset() Dataset {
	return make(Dataset)
}

// Add files a frame under material/spec/number, replacing any previous entry.
func (d Dataset) Add(material, spec string, number int, fr *frame.Frame) {
	specs, ok := d[material]
	if !ok {
		specs = make(map[string]map[int]*frame.Frame)
		d[material] = specs
	}
	samples, ok := specs[spec]
	if !ok {
		samples = make(map[int]*frame.Frame)
		specs[spec] = samples
	}
	samples[number] = fr
}

// Materials lists the material labels in sorted order.
func (d Dataset) Materials() []string {
	out := make([]string, 0, len(d))
	for material := range d {
		out = append(out, material)
	}
	sort.Strings(out)
	return out
}

// Specifications lists the specifications recorded for a material, sorted.
func (d Dataset) Specifications(material string) []string {
	specs, ok := d[material]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(specs))
	for spec := range specs {
		out = append(out, spec)
	}
	sort.Strings(out)
	return out
}

// Numbers lists the sample numbers for a material and specification, ascending.
func (d Dataset) Numbers(material, spec string) []int {
	specs, ok := d[material]
	if !ok {
		return nil
	}
	samples, ok := specs[spec]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(samples))
	for n := range samples {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Sample returns the frame stored under material/spec/number.
func (d Dataset) Sample(material, spec string, number int) (*frame.Frame, bool) {
	specs, ok := d[material]
	if !ok {
		return nil, false
	}
	samples, ok := specs[spec]
	if !ok {
		return nil, false
	}
	fr, ok := samples[number]
	return fr, ok
}

// Frames returns the frames of a material and specification in ascending
// sample-number order.
func (d Dataset) Frames(material, spec string) []*frame.Frame {
	numbers := d.Numbers(material, spec)
	if len(numbers) == 0 {
		return nil
	}
	out := make([]*frame.Frame, 0, len(numbers))
	for _, n := range numbers {
		fr, _ := d.Sample(material, spec, n)
		out = append(out, fr)
	}
	return out
}

// Samples reports the total number of experiments in the dataset.
func (d Dataset) Samples() int {
	total := 0
	for _, specs := range d {
		for _, samples := range specs {
			total += len(samples)
		}
	}
	return total
}
