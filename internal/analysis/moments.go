package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrLengthMismatch = errors.New("analysis: positions and values differ in length")
	ErrEmptyProfile   = errors.New("analysis: profile carries no atoms")
)

// Moments integrates a density profile sampled at increasing positions x with
// rectangle weights and returns the atom number, centre of mass and rms width.
// NaN samples are treated as empty.
func Moments(x, density []float64) (n, mean, width float64, err error) {
	if len(x) != len(density) {
		return 0, 0, 0, fmt.Errorf("%w: %d positions, %d values", ErrLengthMismatch, len(x), len(density))
	}
	w := spacing(x)
	d := make([]float64, len(density))
	for i, v := range density {
		if !math.IsNaN(v) {
			d[i] = v * w[i]
		}
	}
	n = floats.Sum(d)
	if n <= 0 {
		return 0, 0, 0, ErrEmptyProfile
	}
	mean = floats.Dot(d, x) / n

	centred := make([]float64, len(x))
	for i := range x {
		dx := x[i] - mean
		centred[i] = dx * dx
	}
	width = math.Sqrt(floats.Dot(d, centred) / n)
	return n, mean, width, nil
}

// WidthSeries applies Moments to each profile and returns the widths.
func WidthSeries(x []float64, profiles [][]float64) ([]float64, error) {
	out := make([]float64, len(profiles))
	for i, p := range profiles {
		_, _, w, err := Moments(x, p)
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		out[i] = w
	}
	return out, nil
}

func spacing(x []float64) []float64 {
	w := make([]float64, len(x))
	switch len(x) {
	case 0:
	case 1:
		w[0] = 1
	default:
		for i := range x {
			if i == len(x)-1 {
				w[i] = x[i] - x[i-1]
			} else {
				w[i] = x[i+1] - x[i]
			}
		}
	}
	return w
}
