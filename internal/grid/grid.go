package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var ErrInvalidGrid = errors.New("grid: invalid phase-space grid")

// Grid is the phase-space discretisation shared by every solver component.
// It is built once and must not be modified afterwards.
type Grid struct {
	x       []float64
	rapid   []float64
	weights []float64
	species int
}

func New(x, rapid, weights []float64, species int) (*Grid, error) {
	if len(x) == 0 || len(rapid) == 0 {
		return nil, fmt.Errorf("%w: empty axis", ErrInvalidGrid)
	}
	if len(weights) != len(rapid) {
		return nil, fmt.Errorf("%w: %d weights for %d rapidities", ErrInvalidGrid, len(weights), len(rapid))
	}
	if species < 1 {
		return nil, fmt.Errorf("%w: species count %d", ErrInvalidGrid, species)
	}
	if !increasing(x) || !increasing(rapid) {
		return nil, fmt.Errorf("%w: axes must be strictly increasing", ErrInvalidGrid)
	}
	return &Grid{
		x:       clone(x),
		rapid:   clone(rapid),
		weights: clone(weights),
		species: species,
	}, nil
}

// Uniform builds evenly spaced axes with rectangle-rule rapidity weights.
func Uniform(xMin, xMax float64, nx int, rMin, rMax float64, nr int, species int) (*Grid, error) {
	if nx < 1 || nr < 2 {
		return nil, fmt.Errorf("%w: nx=%d nr=%d", ErrInvalidGrid, nx, nr)
	}
	x := make([]float64, nx)
	if nx == 1 {
		x[0] = xMin
	} else {
		floats.Span(x, xMin, xMax)
	}
	rapid := make([]float64, nr)
	floats.Span(rapid, rMin, rMax)

	dr := rapid[1] - rapid[0]
	weights := make([]float64, nr)
	for i := range weights {
		weights[i] = dr
	}
	return New(x, rapid, weights, species)
}

func (g *Grid) NX() int      { return len(g.x) }
func (g *Grid) NR() int      { return len(g.rapid) }
func (g *Grid) Species() int { return g.species }

// Size is the dimension of the per-position linear systems.
func (g *Grid) Size() int { return len(g.rapid) * g.species }

func (g *Grid) X(i int) float64        { return g.x[i] }
func (g *Grid) Rapidity(i int) float64 { return g.rapid[i] }
func (g *Grid) Weight(i int) float64   { return g.weights[i] }

// Positions returns a copy of the position axis.
func (g *Grid) Positions() []float64 { return clone(g.x) }

// Rapidities returns a copy of the rapidity axis.
func (g *Grid) Rapidities() []float64 { return clone(g.rapid) }

// Weights returns a copy of the quadrature weights.
func (g *Grid) Weights() []float64 { return clone(g.weights) }

// PositionSpacing returns the spacing of the position axis, or 1 for a single sample.
func (g *Grid) PositionSpacing(i int) float64 {
	switch {
	case len(g.x) == 1:
		return 1
	case i == len(g.x)-1:
		return g.x[i] - g.x[i-1]
	default:
		return g.x[i+1] - g.x[i]
	}
}

func increasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}

func clone(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}
