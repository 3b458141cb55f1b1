package ghd_test

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDress_ZeroInteractionIsIdentity(t *testing.T) {
	g := newGrid(t, 4, 12)
	m := newLiebLiniger(t, g, constantCouplings(1, 0))
	d := ghd.NewDresser(m, ghd.DefaultOptions())

	theta := tensor.FieldFromFunc(g.NR(), 1, g.NX(), func(r, _, x int) float64 {
		return 0.1 + 0.05*float64((r+x)%7)
	})
	bare := tensor.FieldFromFunc(g.NR(), 1, g.NX(), func(r, _, x int) float64 {
		return math.Sin(float64(r)) + float64(x)
	})

	dressed, err := d.Dress(bare, theta, 0.7)
	require.NoError(t, err)
	assert.Less(t, dressed.MaxAbsDiff(bare), 1e-14)
}

func TestDress_MatchesBruteForce(t *testing.T) {
	g := newGrid(t, 3, 8)
	m := newLiebLiniger(t, g, constantCouplings(2, 1))
	d := ghd.NewDresser(m, ghd.DefaultOptions())

	theta := tensor.FieldFromFunc(g.NR(), 1, g.NX(), func(r, _, x int) float64 {
		return 0.2 + 0.1*float64(x) + 0.01*float64(r)
	})
	bare := tensor.FieldFromFunc(g.NR(), 1, g.NX(), func(r, _, _ int) float64 {
		return g.Rapidity(r)
	})

	dressed, err := d.Dress(bare, theta, 0)
	require.NoError(t, err)

	for x := 0; x < g.NX(); x++ {
		want := bruteDress(g, 1, theta, x, bare.Column(x, nil))
		got := dressed.Column(x, nil)
		assert.InDeltaSlice(t, want, got, 1e-12, "position %d", x)
	}
}

func TestDressMany_ConsistentWithDress(t *testing.T) {
	g := newGrid(t, 2, 10)
	m := newLiebLiniger(t, g, constantCouplings(0, 0.5))
	d := ghd.NewDresser(m, ghd.Options{Workers: 1})

	theta := tensor.NewField(g.NR(), 1, g.NX()).Fill(0.4)
	deDr, dpDr := m.BareDerivatives(0)

	many, err := d.DressMany(theta, 0, deDr, dpDr)
	require.NoError(t, err)
	require.Len(t, many, 2)

	single, err := d.Dress(dpDr, theta, 0)
	require.NoError(t, err)
	assert.Less(t, many[1].MaxAbsDiff(single), 1e-14)
}

func TestDress_SingularSystem(t *testing.T) {
	g, err := grid.New([]float64{0, 1}, []float64{-1, 0, 1}, []float64{1, 1, 1}, 1)
	require.NoError(t, err)

	// K = J/3 with J the all-ones matrix, so 1 − K annihilates (1, 1, 1).
	m := &stubModel{g: g, kernel: -2 * math.Pi / 3, dp: 1}
	d := ghd.NewDresser(m, ghd.DefaultOptions())
	theta := tensor.NewField(3, 1, 2).Fill(1)

	_, err = d.Dress(theta.Clone(), theta, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ghd.ErrSingularSystem))

	var se *ghd.SingularSystemError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, []int{0, 1}, se.X)
	assert.Contains(t, err.Error(), "singular")
}

func TestDress_ShapeMismatch(t *testing.T) {
	g := newGrid(t, 3, 8)
	m := newLiebLiniger(t, g, constantCouplings(0, 1))
	d := ghd.NewDresser(m, ghd.DefaultOptions())

	_, err := d.Dress(tensor.NewField(8, 1, 3), tensor.NewField(8, 1, 2), 0)
	assert.ErrorIs(t, err, ghd.ErrShapeMismatch)
}

func TestCharges_FreeDensity(t *testing.T) {
	g := newGrid(t, 3, 16)
	m := newLiebLiniger(t, g, constantCouplings(0, 0))
	d := ghd.NewDresser(m, ghd.DefaultOptions())

	theta := tensor.NewField(g.NR(), 1, g.NX()).Fill(0.5)
	density, err := d.Charges(theta, 0, 0)
	require.NoError(t, err)

	want := 0.0
	for r := 0; r < g.NR(); r++ {
		want += g.Weight(r) * 0.5
	}
	want /= 2 * math.Pi
	for x := range density {
		assert.InDelta(t, want, density[x], 1e-12)
	}

	// odd charge of a parity-symmetric state vanishes
	momentum, err := d.Charges(theta, 1, 0)
	require.NoError(t, err)
	for x := range momentum {
		assert.InDelta(t, 0, momentum[x], 1e-12)
	}
}

func TestForEachPosition(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 16} {
		seen := make([]int, 10)
		err := ghd.ForEachPosition(10, workers, func(x int) error {
			seen[x]++
			return nil
		})
		require.NoError(t, err)
		for x, n := range seen {
			if n != 1 {
				t.Errorf("workers=%d: position %d visited %d times", workers, x, n)
			}
		}
	}

	boom := errors.New("boom")
	err := ghd.ForEachPosition(10, 4, func(x int) error {
		if x == 7 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
