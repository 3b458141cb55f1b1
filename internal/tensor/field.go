package tensor

import (
	"fmt"
	"math"
)

// Field is a dense array indexed by (rapidity, species, position).
type Field struct {
	nr, ns, nx int
	data       []float64
}

func NewField(nr, ns, nx int) *Field {
	return &Field{nr: nr, ns: ns, nx: nx, data: make([]float64, nr*ns*nx)}
}

// FieldFromFunc evaluates fn at every index.
func FieldFromFunc(nr, ns, nx int, fn func(r, s, x int) float64) *Field {
	f := NewField(nr, ns, nx)
	for r := 0; r < nr; r++ {
		for s := 0; s < ns; s++ {
			for x := 0; x < nx; x++ {
				f.data[f.index(r, s, x)] = fn(r, s, x)
			}
		}
	}
	return f
}

// FieldFromRapidity broadcasts a rapidity-only vector over species and position.
func FieldFromRapidity(v []float64, ns, nx int) *Field {
	return FieldFromFunc(len(v), ns, nx, func(r, _, _ int) float64 { return v[r] })
}

// FieldFromPosition broadcasts a position-only vector over rapidity and species.
func FieldFromPosition(v []float64, nr, ns int) *Field {
	return FieldFromFunc(nr, ns, len(v), func(_, _, x int) float64 { return v[x] })
}

func (f *Field) Dims() (nr, ns, nx int) { return f.nr, f.ns, f.nx }
func (f *Field) Len() int               { return len(f.data) }

// SameShape reports whether f and o have identical dimensions.
func (f *Field) SameShape(o *Field) bool {
	return f.nr == o.nr && f.ns == o.ns && f.nx == o.nx
}

func (f *Field) index(r, s, x int) int { return (r*f.ns+s)*f.nx + x }

func (f *Field) At(r, s, x int) float64     { return f.data[f.index(r, s, x)] }
func (f *Field) Set(r, s, x int, v float64) { f.data[f.index(r, s, x)] = v }

func (f *Field) Clone() *Field {
	c := &Field{nr: f.nr, ns: f.ns, nx: f.nx, data: make([]float64, len(f.data))}
	copy(c.data, f.data)
	return c
}

func (f *Field) Fill(v float64) *Field {
	for i := range f.data {
		f.data[i] = v
	}
	return f
}

// Column copies the values at position x into dst in species-major order.
func (f *Field) Column(x int, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, f.nr*f.ns)
	}
	for s := 0; s < f.ns; s++ {
		for r := 0; r < f.nr; r++ {
			dst[s*f.nr+r] = f.data[f.index(r, s, x)]
		}
	}
	return dst
}

// SetColumn is the inverse of Column.
func (f *Field) SetColumn(x int, v []float64) {
	for s := 0; s < f.ns; s++ {
		for r := 0; r < f.nr; r++ {
			f.data[f.index(r, s, x)] = v[s*f.nr+r]
		}
	}
}

// Map returns a new field with fn applied element-wise.
func (f *Field) Map(fn func(r, s, x int, v float64) float64) *Field {
	out := NewField(f.nr, f.ns, f.nx)
	for r := 0; r < f.nr; r++ {
		for s := 0; s < f.ns; s++ {
			for x := 0; x < f.nx; x++ {
				i := f.index(r, s, x)
				out.data[i] = fn(r, s, x, f.data[i])
			}
		}
	}
	return out
}

// AddScaled sets f = f + a*o and returns f.
func (f *Field) AddScaled(a float64, o *Field) *Field {
	f.mustMatch(o)
	for i := range f.data {
		f.data[i] += a * o.data[i]
	}
	return f
}

// IsValid reports whether every element is finite.
func (f *Field) IsValid() bool {
	for _, v := range f.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Equal reports exact element-wise equality.
func (f *Field) Equal(o *Field) bool {
	if !f.SameShape(o) {
		return false
	}
	for i := range f.data {
		if f.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// MaxAbsDiff returns max |f - o|.
func (f *Field) MaxAbsDiff(o *Field) float64 {
	f.mustMatch(o)
	m := 0.0
	for i := range f.data {
		m = math.Max(m, math.Abs(f.data[i]-o.data[i]))
	}
	return m
}

func (f *Field) mustMatch(o *Field) {
	if !f.SameShape(o) {
		panic(fmt.Sprintf("tensor: shape mismatch %dx%dx%d vs %dx%dx%d", f.nr, f.ns, f.nx, o.nr, o.ns, o.nx))
	}
}
