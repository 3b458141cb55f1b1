package models

import (
	"fmt"
	"math"

	"github.com/san-kum/ghdsim/internal/coupling"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
)

// LiebLiniger is the repulsive delta-interacting Bose gas. Energy and
// momentum are e(r) = r² − μ and p(r) = r; the two-body scattering phase is
// T(r₁,r₂) = −2·atan((r₁−r₂)/c). Additional species are identical copies
// that scatter with the same phase.
type LiebLiniger struct {
	grid      *grid.Grid
	couplings coupling.Table
}

var _ ghd.Model = (*LiebLiniger)(nil)

func NewLiebLiniger(g *grid.Grid, couplings coupling.Table) (*LiebLiniger, error) {
	if !couplings.Interaction.Value.Present() {
		return nil, fmt.Errorf("lieb-liniger: %w: interaction strength", ghd.ErrMissingCoupling)
	}
	return &LiebLiniger{grid: g, couplings: couplings}, nil
}

func (m *LiebLiniger) Grid() *grid.Grid          { return m.grid }
func (m *LiebLiniger) Couplings() coupling.Table { return m.couplings }

// WithCouplings returns a copy of the model driven by a different coupling table.
func (m *LiebLiniger) WithCouplings(c coupling.Table) (*LiebLiniger, error) {
	return NewLiebLiniger(m.grid, c)
}

func (m *LiebLiniger) BareDerivatives(t float64) (deDr, dpDr *tensor.Field) {
	nr, ns, nx := m.grid.NR(), m.grid.Species(), m.grid.NX()
	de := make([]float64, nr)
	for r := range de {
		de[r] = 2 * m.grid.Rapidity(r)
	}
	deDr = tensor.FieldFromRapidity(de, ns, nx)
	dpDr = tensor.NewField(nr, ns, nx).Fill(1)
	return deDr, dpDr
}

// RapidityKernel returns ∂T/∂r₁ = −2c/(c²+(r₁−r₂)²).
func (m *LiebLiniger) RapidityKernel(t, x float64) *tensor.Kernel {
	c := m.couplings.Interaction.Value.Eval(t, x)
	return m.kernel(func(d float64) float64 {
		return -2 * c / (c*c + d*d)
	})
}

// CouplingKernel returns ∂T/∂c = 2(r₁−r₂)/(c²+(r₁−r₂)²).
func (m *LiebLiniger) CouplingKernel(t, x float64) *tensor.Kernel {
	c := m.couplings.Interaction.Value.Eval(t, x)
	return m.kernel(func(d float64) float64 {
		return 2 * d / (c*c + d*d)
	})
}

func (m *LiebLiniger) kernel(fn func(d float64) float64) *tensor.Kernel {
	return tensor.KernelFromFunc(m.grid.NR(), m.grid.Species(), func(r1, r2, _, _ int) float64 {
		return fn(m.grid.Rapidity(r1) - m.grid.Rapidity(r2))
	})
}

// FreeLimit reports whether the interaction vanishes at (t, x).
func (m *LiebLiniger) FreeLimit(t, x float64) bool {
	return math.Abs(m.couplings.Interaction.Value.Eval(t, x)) == 0
}
