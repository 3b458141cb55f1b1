package models

import (
	"fmt"
	"math"

	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
)

// FillingSpec describes the initial filling function.
//
//	constant  θ = value
//	fermi     θ = 1/(1+exp((r²−μ(x))/T))
//	box       θ = 1 where r² < μ(x), else 0
type FillingSpec struct {
	Kind        string       `yaml:"kind"`
	Value       float64      `yaml:"value,omitempty"`
	Temperature float64      `yaml:"temperature,omitempty"`
	Mu          CouplingSpec `yaml:"mu,omitempty"`
}

// InitialFilling evaluates the spec on g.
func InitialFilling(g *grid.Grid, spec FillingSpec) (*tensor.Field, error) {
	nr, ns, nx := g.NR(), g.Species(), g.NX()
	mu, err := spec.Mu.Slot()
	if err != nil {
		return nil, fmt.Errorf("initial filling: %w", err)
	}

	switch spec.Kind {
	case "constant":
		return tensor.NewField(nr, ns, nx).Fill(spec.Value), nil
	case "fermi":
		if spec.Temperature <= 0 {
			return nil, fmt.Errorf("initial filling: fermi profile needs a positive temperature, got %g", spec.Temperature)
		}
		return tensor.FieldFromFunc(nr, ns, nx, func(r, _, x int) float64 {
			k := g.Rapidity(r)
			return 1 / (1 + math.Exp((k*k-mu.Value.Eval(0, g.X(x)))/spec.Temperature))
		}), nil
	case "box":
		return tensor.FieldFromFunc(nr, ns, nx, func(r, _, x int) float64 {
			k := g.Rapidity(r)
			if k*k < mu.Value.Eval(0, g.X(x)) {
				return 1
			}
			return 0
		}), nil
	}
	return nil, fmt.Errorf("initial filling: unknown kind: %s", spec.Kind)
}
