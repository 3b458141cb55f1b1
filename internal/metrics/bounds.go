package metrics

import (
	"math"

	"github.com/san-kum/ghdsim/internal/tensor"
)

// FillingBounds reports the fraction of observations in which every filling
// entry is finite and inside [0, 1] up to a tolerance. Interpolation
// overshoot in the propagation scheme shows up as a value below one.
type FillingBounds struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewFillingBounds(tolerance float64) *FillingBounds {
	return &FillingBounds{name: "filling_bounds", tolerance: tolerance}
}

func (f *FillingBounds) Name() string { return f.name }

func (f *FillingBounds) Observe(t float64, theta *tensor.Field) error {
	f.samples++
	nr, ns, nx := theta.Dims()
	for x := 0; x < nx; x++ {
		for s := 0; s < ns; s++ {
			for r := 0; r < nr; r++ {
				v := theta.At(r, s, x)
				if math.IsNaN(v) || v < -f.tolerance || v > 1+f.tolerance {
					f.violations++
					return nil
				}
			}
		}
	}
	return nil
}

func (f *FillingBounds) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(f.violations)/float64(f.samples)
}

func (f *FillingBounds) Reset() {
	f.violations = 0
	f.samples = 0
}
