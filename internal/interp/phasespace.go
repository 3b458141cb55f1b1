package interp

import (
	"fmt"
	"sort"

	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
)

// Extrapolation selects the behaviour for queries outside the grid.
type Extrapolation int

const (
	// Clamp holds the boundary value.
	Clamp Extrapolation = iota
	// Linear continues the boundary cell's bilinear patch.
	Linear
	// Zero returns 0 outside the grid.
	Zero
)

func (e Extrapolation) String() string {
	switch e {
	case Clamp:
		return "clamp"
	case Linear:
		return "linear"
	case Zero:
		return "zero"
	}
	return fmt.Sprintf("Extrapolation(%d)", int(e))
}

// ParseExtrapolation maps a configuration name to an Extrapolation.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "linear":
		return Linear, nil
	case "zero":
		return Zero, nil
	}
	return Clamp, fmt.Errorf("unknown extrapolation: %s", s)
}

// PhaseSpace evaluates field at the off-grid coordinates (rQuery, xQuery) by
// bilinear interpolation in the (rapidity, position) plane of each species.
// The query fields share the layout of field: the value written at
// (r, s, x) is field[·, s, ·] sampled at (rQuery(r,s,x), xQuery(r,s,x)).
func PhaseSpace(field *tensor.Field, g *grid.Grid, rQuery, xQuery *tensor.Field, mode Extrapolation) *tensor.Field {
	rAxis := g.Rapidities()
	xAxis := g.Positions()

	nr, ns, nx := rQuery.Dims()
	out := tensor.NewField(nr, ns, nx)
	for r := 0; r < nr; r++ {
		for s := 0; s < ns; s++ {
			for x := 0; x < nx; x++ {
				ri, rf, rin := locate(rAxis, rQuery.At(r, s, x))
				xi, xf, xin := locate(xAxis, xQuery.At(r, s, x))
				if mode == Zero && !(rin && xin) {
					continue
				}
				if mode == Clamp {
					rf, xf = clamp01(rf), clamp01(xf)
				}
				out.Set(r, s, x, bilinear(field, s, ri, rf, xi, xf, len(rAxis) > 1, len(xAxis) > 1))
			}
		}
	}
	return out
}

// locate returns the lower cell index and the fractional offset of q in the
// cell [axis[i], axis[i+1]]. Offsets outside [0, 1] extrapolate the edge cell.
func locate(axis []float64, q float64) (i int, frac float64, inside bool) {
	n := len(axis)
	if n == 1 {
		return 0, 0, q == axis[0]
	}
	inside = q >= axis[0] && q <= axis[n-1]
	i = sort.SearchFloat64s(axis, q) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	frac = (q - axis[i]) / (axis[i+1] - axis[i])
	return i, frac, inside
}

func bilinear(f *tensor.Field, s, ri int, rf float64, xi int, xf float64, hasR, hasX bool) float64 {
	r1, x1 := ri, xi
	if hasR {
		r1 = ri + 1
	} else {
		rf = 0
	}
	if hasX {
		x1 = xi + 1
	} else {
		xf = 0
	}
	v00 := f.At(ri, s, xi)
	if rf == 0 && xf == 0 {
		return v00
	}
	v10 := f.At(r1, s, xi)
	v01 := f.At(ri, s, x1)
	v11 := f.At(r1, s, x1)
	return (1-rf)*(1-xf)*v00 + rf*(1-xf)*v10 + (1-rf)*xf*v01 + rf*xf*v11
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
