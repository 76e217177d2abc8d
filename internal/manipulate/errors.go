package manipulate

import "errors"

var (
	// ErrNoSamples is returned when an aggregation receives no frames.
	ErrNoSamples = errors.New("no samples to aggregate")

	// ErrNoOverlap is returned when the samples share no common x range.
	ErrNoOverlap = errors.New("sample ranges do not overlap")

	// ErrTooFewPoints is returned when a curve has fewer than two points.
	ErrTooFewPoints = errors.New("not enough points to interpolate")

	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("x and y length mismatch")

	// ErrOutOfRange is returned when a query lies outside the curve.
	ErrOutOfRange = errors.New("value outside interpolation range")
)
