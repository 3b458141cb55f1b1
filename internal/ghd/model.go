package ghd

import (
	"fmt"

	"github.com/san-kum/ghdsim/internal/coupling"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
)

// Model is an integrable model discretised on a phase-space grid.
type Model interface {
	Grid() *grid.Grid
	Couplings() coupling.Table

	// BareDerivatives returns ∂e/∂r and ∂p/∂r on the grid at time t.
	BareDerivatives(t float64) (deDr, dpDr *tensor.Field)

	// RapidityKernel returns ∂T/∂r₁ of the scattering phase at (t, x).
	RapidityKernel(t, x float64) *tensor.Kernel

	// CouplingKernel returns ∂T/∂c of the scattering phase at (t, x).
	CouplingKernel(t, x float64) *tensor.Kernel
}

// CheckShape verifies that f is laid out on g.
func CheckShape(g *grid.Grid, f *tensor.Field) error {
	nr, ns, nx := f.Dims()
	if nr != g.NR() || ns != g.Species() || nx != g.NX() {
		return fmt.Errorf("%w: got %dx%dx%d, grid is %dx%dx%d",
			ErrShapeMismatch, nr, ns, nx, g.NR(), g.Species(), g.NX())
	}
	return nil
}
