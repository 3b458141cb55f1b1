package tensor

import "math"

// Kernel is a two-body array indexed by (rapidity₁, rapidity₂, species₁, species₂).
type Kernel struct {
	nr, ns int
	data   []float64
}

func NewKernel(nr, ns int) *Kernel {
	return &Kernel{nr: nr, ns: ns, data: make([]float64, nr*nr*ns*ns)}
}

// KernelFromFunc evaluates fn at every index and applies the NaN convention.
func KernelFromFunc(nr, ns int, fn func(r1, r2, s1, s2 int) float64) *Kernel {
	k := NewKernel(nr, ns)
	for r1 := 0; r1 < nr; r1++ {
		for r2 := 0; r2 < nr; r2++ {
			for s1 := 0; s1 < ns; s1++ {
				for s2 := 0; s2 < ns; s2++ {
					k.data[k.index(r1, r2, s1, s2)] = NaNToZero(fn(r1, r2, s1, s2))
				}
			}
		}
	}
	return k
}

func (k *Kernel) Dims() (nr, ns int) { return k.nr, k.ns }

func (k *Kernel) index(r1, r2, s1, s2 int) int {
	return ((r1*k.nr+r2)*k.ns+s1)*k.ns + s2
}

func (k *Kernel) At(r1, r2, s1, s2 int) float64     { return k.data[k.index(r1, r2, s1, s2)] }
func (k *Kernel) Set(r1, r2, s1, s2 int, v float64) { k.data[k.index(r1, r2, s1, s2)] = v }

// ZeroNaN replaces NaN entries with 0 in place.
func (k *Kernel) ZeroNaN() *Kernel {
	for i, v := range k.data {
		k.data[i] = NaNToZero(v)
	}
	return k
}

// Scale multiplies every entry by a.
func (k *Kernel) Scale(a float64) *Kernel {
	for i := range k.data {
		k.data[i] *= a
	}
	return k
}

// NaNToZero maps 0/0 artefacts of a vanishing coupling to 0.
func NaNToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
