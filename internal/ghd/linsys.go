package ghd

import (
	"math"

	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// ContractWeighted builds M[i,j] = scale·K(r₁,r₂,s₁,s₂)·w(r₂)·θ(r₂,s₂,x) with
// i = s₁·NR + r₁ and j = s₂·NR + r₂.
func ContractWeighted(k *tensor.Kernel, g *grid.Grid, theta *tensor.Field, x int, scale float64) *mat.Dense {
	nr, ns := g.NR(), g.Species()
	m := mat.NewDense(nr*ns, nr*ns, nil)
	for s1 := 0; s1 < ns; s1++ {
		for r1 := 0; r1 < nr; r1++ {
			i := s1*nr + r1
			for s2 := 0; s2 < ns; s2++ {
				for r2 := 0; r2 < nr; r2++ {
					v := scale * k.At(r1, r2, s1, s2) * g.Weight(r2) * theta.At(r2, s2, x)
					m.Set(i, s2*nr+r2, v)
				}
			}
		}
	}
	return m
}

// IdentityMinus returns 1 − m.
func IdentityMinus(m *mat.Dense) *mat.Dense {
	n, _ := m.Dims()
	out := mat.NewDense(n, n, nil)
	out.Scale(-1, m)
	for i := 0; i < n; i++ {
		out.Set(i, i, out.At(i, i)+1)
	}
	return out
}

// Factorize LU-decomposes a and rejects singular or ill-conditioned operators.
// The returned condition number is the LAPACK estimate.
func Factorize(a mat.Matrix, maxCondition float64) (*mat.LU, float64, error) {
	var lu mat.LU
	lu.Factorize(a)
	cond := lu.Cond()
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > maxCondition {
		return nil, cond, ErrSingularSystem
	}
	return &lu, cond, nil
}

// SolveVec solves the factorised system for b. A non-finite solution is
// reported as ErrSingularSystem.
func SolveVec(lu *mat.LU, b []float64) ([]float64, error) {
	var dst mat.VecDense
	if err := lu.SolveVecTo(&dst, false, mat.NewVecDense(len(b), b)); err != nil {
		return nil, ErrSingularSystem
	}
	out := dst.RawVector().Data
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSingularSystem
		}
	}
	return out, nil
}
