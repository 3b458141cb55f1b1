package correlator

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Coefficients returns B_1..B_n for the filling θ at time t. Each B_i is a
// (species, position) field
//
//	B_i = (1/i)·Σ_r θ·w·b_{2i−1}
//
// where b_1..b_{2n−1} solve (1 − K₁)·b_i = X2_i with
//
//	odd i:  X2 = K₂·b_{i−1} − K₁·b_{i−2} + δ_{i,1}
//	even i: X2 = −K₁·b_{i−2} + K₂·(2b_{i−1} − b_{i−3})
//
// K₁ = kernel1·(w·θ)ᵗ, K₂ = kernel2·(w·θ)ᵗ, kernel1 = −(1/2π)·∂T/∂r and
// kernel2 = −(r₁−r₂)·kernel1/c. Indices below 1 refer to zero vectors.
func (e *Engine) Coefficients(n int, theta *tensor.Field, t float64) ([]*tensor.Profile, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, n)
	}
	if err := ghd.CheckShape(e.grid, theta); err != nil {
		return nil, err
	}
	interaction, ok := e.model.Couplings().Interaction.Value.Get()
	if !ok {
		return nil, fmt.Errorf("correlator: %w: interaction strength", ghd.ErrMissingCoupling)
	}

	ns, nx := e.grid.Species(), e.grid.NX()
	out := make([]*tensor.Profile, n)
	for i := range out {
		out[i] = tensor.NewProfile(ns, nx)
	}

	err := ghd.ForEachPosition(nx, e.opts.Workers, func(x int) error {
		pos := e.grid.X(x)
		b, err := e.recurrence(n, theta, t, x, interaction(t, pos))
		if err != nil {
			return err
		}
		for i := 1; i <= n; i++ {
			bi := b[2*i-1]
			for s := 0; s < ns; s++ {
				sum := 0.0
				for r := 0; r < e.grid.NR(); r++ {
					sum += theta.At(r, s, x) * e.grid.Weight(r) * bi[s*e.grid.NR()+r]
				}
				out[i-1].Set(s, x, sum/float64(i))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recurrence solves for b_1..b_{2n−1} at one position. The returned slice is
// indexed so that b[i] is b_i for i ≥ 1; b[0] is the zero vector b_0.
func (e *Engine) recurrence(n int, theta *tensor.Field, t float64, x int, c float64) ([][]float64, error) {
	g := e.grid
	size := g.Size()
	k1, k2 := recurrenceKernels(e.model.RapidityKernel(t, g.X(x)), g, c)
	K1 := ghd.ContractWeighted(k1, g, theta, x, 1)
	K2 := ghd.ContractWeighted(k2, g, theta, x, 1)

	lu, cond, err := ghd.Factorize(ghd.IdentityMinus(K1), e.opts.MaxCondition)
	if err != nil {
		if errors.Is(err, ghd.ErrSingularSystem) {
			return nil, &ghd.SingularSystemError{X: x, Position: g.X(x), Condition: cond}
		}
		return nil, err
	}

	// store[k+1] holds b_k, so b_{−1} and b_0 are the two leading zero vectors.
	store := make([][]float64, 2*n+1)
	store[0] = make([]float64, size)
	store[1] = make([]float64, size)
	at := func(k int) *mat.VecDense { return mat.NewVecDense(size, store[k+1]) }

	for i := 1; i <= 2*n-1; i++ {
		var x2, tmp mat.VecDense
		if i%2 == 1 {
			x2.MulVec(K2, at(i-1))
			tmp.MulVec(K1, at(i-2))
			x2.SubVec(&x2, &tmp)
			if i == 1 {
				for j := 0; j < size; j++ {
					x2.SetVec(j, x2.AtVec(j)+1)
				}
			}
		} else {
			var comb mat.VecDense
			comb.ScaleVec(2, at(i-1))
			comb.SubVec(&comb, at(i-3))
			x2.MulVec(K2, &comb)
			tmp.MulVec(K1, at(i-2))
			x2.SubVec(&x2, &tmp)
		}
		bi, err := ghd.SolveVec(lu, x2.RawVector().Data)
		if err != nil {
			return nil, &ghd.SingularSystemError{X: x, Position: g.X(x), Condition: cond}
		}
		store[i+1] = bi
	}
	return store[1:], nil
}

// recurrenceKernels builds kernel1 = −(1/2π)·∂T/∂r and
// kernel2 = −(r₁−r₂)·kernel1/c, mapping 0/0 to 0 in both.
func recurrenceKernels(dTdr *tensor.Kernel, g *grid.Grid, c float64) (k1, k2 *tensor.Kernel) {
	nr, ns := g.NR(), g.Species()
	k1 = tensor.KernelFromFunc(nr, ns, func(r1, r2, s1, s2 int) float64 {
		return -dTdr.At(r1, r2, s1, s2) / (2 * math.Pi)
	})
	k2 = tensor.KernelFromFunc(nr, ns, func(r1, r2, s1, s2 int) float64 {
		return -(g.Rapidity(r1) - g.Rapidity(r2)) * k1.At(r1, r2, s1, s2) / c
	})
	return k1, k2
}
