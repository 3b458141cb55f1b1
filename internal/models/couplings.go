package models

import (
	"fmt"

	"github.com/san-kum/ghdsim/internal/coupling"
)

// CouplingSpec describes a coupling profile in configuration files.
//
//	none      absent
//	constant  v
//	harmonic  v − ½ω²(x−center)²         (chemical potential of a trap)
//	linear    v + slope·x
//	ramp      v + rate·t
type CouplingSpec struct {
	Kind   string  `yaml:"kind"`
	Value  float64 `yaml:"value"`
	Omega  float64 `yaml:"omega,omitempty"`
	Center float64 `yaml:"center,omitempty"`
	Slope  float64 `yaml:"slope,omitempty"`
	Rate   float64 `yaml:"rate,omitempty"`
}

// Slot turns the spec into a coupling with its derivatives. Derivatives that
// vanish identically are left absent.
func (s CouplingSpec) Slot() (coupling.Slot, error) {
	switch s.Kind {
	case "", "none":
		return coupling.Slot{}, nil
	case "constant":
		return coupling.Slot{Value: coupling.Constant(s.Value)}, nil
	case "harmonic":
		v, w2, x0 := s.Value, s.Omega*s.Omega, s.Center
		return coupling.Slot{
			Value: coupling.Some(func(_, x float64) float64 { return v - 0.5*w2*(x-x0)*(x-x0) }),
			DX:    coupling.Some(func(_, x float64) float64 { return -w2 * (x - x0) }),
		}, nil
	case "linear":
		v, k := s.Value, s.Slope
		return coupling.Slot{
			Value: coupling.Some(func(_, x float64) float64 { return v + k*x }),
			DX:    coupling.Constant(k),
		}, nil
	case "ramp":
		v, k := s.Value, s.Rate
		return coupling.Slot{
			Value: coupling.Some(func(t, _ float64) float64 { return v + k*t }),
			DT:    coupling.Constant(k),
		}, nil
	}
	return coupling.Slot{}, fmt.Errorf("unknown coupling kind: %s", s.Kind)
}

// BuildCouplings assembles the coupling table from chemical-potential and
// interaction specs.
func BuildCouplings(mu, interaction CouplingSpec) (coupling.Table, error) {
	m, err := mu.Slot()
	if err != nil {
		return coupling.Table{}, fmt.Errorf("chemical potential: %w", err)
	}
	c, err := interaction.Slot()
	if err != nil {
		return coupling.Table{}, fmt.Errorf("interaction: %w", err)
	}
	return coupling.Table{Mu: m, Interaction: c}, nil
}
