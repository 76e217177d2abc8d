package extract

import "slices"

// MovingAverage smooths data with a flat window of the given width using a
// cumulative sum, returning len(data)-width+1 points. Windows of one or
// less leave the series unchanged; a window wider than the series returns
// nil.
func MovingAverage(data []float64, width int) []float64 {
	if width <= 1 {
		return slices.Clone(data)
	}
	if width > len(data) {
		return nil
	}

	cumsum := make([]float64, len(data)+1)
	for i, v := range data {
		cumsum[i+1] = cumsum[i] + v
	}

	out := make([]float64, len(data)-width+1)
	w := float64(width)
	for i := range out {
		out[i] = (cumsum[i+width] - cumsum[i]) / w
	}
	return out
}
