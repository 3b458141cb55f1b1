package ghd_test

import (
	"math"
	"testing"

	"github.com/san-kum/ghdsim/internal/coupling"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/models"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newGrid(t *testing.T, nx, nr int) *grid.Grid {
	t.Helper()
	g, err := grid.Uniform(-1, 1, nx, -3, 3, nr, 1)
	require.NoError(t, err)
	return g
}

func newLiebLiniger(t *testing.T, g *grid.Grid, table coupling.Table) *models.LiebLiniger {
	t.Helper()
	m, err := models.NewLiebLiniger(g, table)
	require.NoError(t, err)
	return m
}

func constantCouplings(mu, c float64) coupling.Table {
	return coupling.Table{
		Mu:          coupling.Slot{Value: coupling.Constant(mu)},
		Interaction: coupling.Slot{Value: coupling.Constant(c)},
	}
}

// bruteDress solves the Lieb-Liniger dressing equation at one position with an
// explicitly written kernel and a general dense solve.
func bruteDress(g *grid.Grid, c float64, theta *tensor.Field, x int, bare []float64) []float64 {
	n := g.NR()
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := g.Rapidity(i) - g.Rapidity(j)
			phi := 2 * c / (c*c + d*d)
			v := -phi / (2 * math.Pi) * g.Weight(j) * theta.At(j, 0, x)
			if i == j {
				v += 1
			}
			a.Set(i, j, v)
		}
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), bare...))); err != nil {
		panic(err)
	}
	return sol.RawVector().Data
}

// stubModel has a kernel of constant value for every pair and a constant
// bare momentum derivative.
type stubModel struct {
	g       *grid.Grid
	kernel  float64
	dp      float64
	couples coupling.Table
}

func (s *stubModel) Grid() *grid.Grid          { return s.g }
func (s *stubModel) Couplings() coupling.Table { return s.couples }

func (s *stubModel) BareDerivatives(float64) (*tensor.Field, *tensor.Field) {
	nr, ns, nx := s.g.NR(), s.g.Species(), s.g.NX()
	return tensor.NewField(nr, ns, nx).Fill(1), tensor.NewField(nr, ns, nx).Fill(s.dp)
}

func (s *stubModel) RapidityKernel(float64, float64) *tensor.Kernel {
	return tensor.KernelFromFunc(s.g.NR(), s.g.Species(), func(int, int, int, int) float64 {
		return s.kernel
	})
}

func (s *stubModel) CouplingKernel(float64, float64) *tensor.Kernel {
	return tensor.NewKernel(s.g.NR(), s.g.Species())
}

var _ ghd.Model = (*stubModel)(nil)
