package config

import (
	"sort"

	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/models"
)

func trap(value, omega float64) models.CouplingSpec {
	return models.CouplingSpec{Kind: "harmonic", Value: value, Omega: omega}
}

func constant(value float64) models.CouplingSpec {
	return models.CouplingSpec{Kind: "constant", Value: value}
}

func thermal(mu models.CouplingSpec, temperature float64) models.FillingSpec {
	return models.FillingSpec{Kind: "fermi", Temperature: temperature, Mu: mu}
}

func implicitDeparture() departure.Config {
	cfg := departure.DefaultConfig()
	cfg.Implicit = true
	return cfg
}

var standardGrid = GridConfig{XMin: -5, XMax: 5, NX: 64, RMin: -4, RMax: 4, NR: 64, Species: 1}

var Presets = map[string]map[string]*Config{
	"lieb_liniger": {
		"trap-release": {
			Model:         "lieb_liniger",
			Grid:          standardGrid,
			Couplings:     CouplingsConfig{Mu: constant(0), Interaction: constant(1)},
			Initial:       thermal(trap(2, 0.5), 0.5),
			Departure:     departure.DefaultConfig(),
			Dt:            0.01,
			Duration:      2.0,
			SnapshotEvery: 20,
			Extrapolation: "zero",
			Correlator:    CorrelatorConfig{Order: 2},
		},
		"breathing": {
			Model:         "lieb_liniger",
			Grid:          standardGrid,
			Couplings:     CouplingsConfig{Mu: trap(2, 1), Interaction: constant(1)},
			Initial:       thermal(trap(2, 0.5), 0.5),
			Departure:     implicitDeparture(),
			Dt:            0.01,
			Duration:      3.0,
			SnapshotEvery: 25,
			Extrapolation: "zero",
			Correlator:    CorrelatorConfig{Order: 2},
		},
		"interaction-ramp": {
			Model: "lieb_liniger",
			Grid:  standardGrid,
			Couplings: CouplingsConfig{
				Mu:          trap(2, 0.5),
				Interaction: models.CouplingSpec{Kind: "ramp", Value: 1, Rate: 0.5},
			},
			Initial:       thermal(trap(2, 0.5), 0.5),
			Departure:     departure.DefaultConfig(),
			Dt:            0.01,
			Duration:      2.0,
			SnapshotEvery: 20,
			Extrapolation: "zero",
			Correlator:    CorrelatorConfig{Order: 3},
		},
		"homogeneous": {
			Model:         "lieb_liniger",
			Grid:          GridConfig{XMin: -1, XMax: 1, NX: 8, RMin: -4, RMax: 4, NR: 96, Species: 1},
			Couplings:     CouplingsConfig{Mu: constant(1), Interaction: constant(1)},
			Initial:       thermal(constant(1), 0.25),
			Departure:     departure.DefaultConfig(),
			Dt:            0.05,
			Duration:      1.0,
			SnapshotEvery: 5,
			Extrapolation: "clamp",
			Correlator:    CorrelatorConfig{Enabled: true, Order: 3},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil when unknown.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
