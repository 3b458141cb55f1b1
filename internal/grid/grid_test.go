package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniform(t *testing.T) {
	g, err := Uniform(-1, 1, 3, -2, 2, 5, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NX())
	assert.Equal(t, 5, g.NR())
	assert.Equal(t, 5, g.Size())
	assert.Equal(t, []float64{-1, 0, 1}, g.Positions())
	assert.Equal(t, []float64{-2, -1, 0, 1, 2}, g.Rapidities())
	for i := 0; i < g.NR(); i++ {
		assert.InDelta(t, 1.0, g.Weight(i), 1e-12)
	}
}

func TestUniform_SinglePosition(t *testing.T) {
	g, err := Uniform(0.5, 0.5, 1, -1, 1, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, g.X(0))
	assert.Equal(t, 1.0, g.PositionSpacing(0))
	assert.Equal(t, 8, g.Size())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		x       []float64
		rapid   []float64
		weights []float64
		species int
	}{
		{"empty x", nil, []float64{0, 1}, []float64{1, 1}, 1},
		{"weights mismatch", []float64{0}, []float64{0, 1}, []float64{1}, 1},
		{"zero species", []float64{0}, []float64{0, 1}, []float64{1, 1}, 0},
		{"decreasing rapidity", []float64{0}, []float64{1, 0}, []float64{1, 1}, 1},
		{"repeated position", []float64{0, 0}, []float64{0, 1}, []float64{1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.x, tt.rapid, tt.weights, tt.species)
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("New() error = %v, want ErrInvalidGrid", err)
			}
		})
	}
}

func TestGrid_AxesAreCopies(t *testing.T) {
	g, err := Uniform(0, 1, 2, 0, 1, 2, 1)
	require.NoError(t, err)

	x := g.Positions()
	x[0] = 42
	assert.Equal(t, 0.0, g.X(0))
}
