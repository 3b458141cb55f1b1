package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/models"
	"github.com/san-kum/ghdsim/internal/propagate"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.01
	DefaultDuration      = 1.0
	DefaultSnapshotEvery = 10
	DefaultNX            = 64
	DefaultNR            = 64
	DefaultOrder         = 2
	DefaultDataDir       = ".ghdsim"
)

// ErrInvalidConfig indicates a configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Model             string             `yaml:"model"`
	Grid              GridConfig         `yaml:"grid"`
	Couplings         CouplingsConfig    `yaml:"couplings"`
	Initial           models.FillingSpec `yaml:"initial"`
	Departure         departure.Config   `yaml:"departure"`
	Dt                float64            `yaml:"dt"`
	Duration          float64            `yaml:"duration"`
	SnapshotEvery     int                `yaml:"snapshot_every"`
	Extrapolation     string             `yaml:"extrapolation"`
	StrictConvergence bool               `yaml:"strict_convergence"`
	Correlator        CorrelatorConfig   `yaml:"correlator"`
	Workers           int                `yaml:"workers"`
	MaxCondition      float64            `yaml:"max_condition"`
}

type GridConfig struct {
	XMin    float64 `yaml:"x_min"`
	XMax    float64 `yaml:"x_max"`
	NX      int     `yaml:"nx"`
	RMin    float64 `yaml:"r_min"`
	RMax    float64 `yaml:"r_max"`
	NR      int     `yaml:"nr"`
	Species int     `yaml:"species"`
}

type CouplingsConfig struct {
	Mu          models.CouplingSpec `yaml:"mu"`
	Interaction models.CouplingSpec `yaml:"interaction"`
}

type CorrelatorConfig struct {
	Enabled bool `yaml:"enabled"`
	Order   int  `yaml:"order"`
}

// Env holds the process-level settings read from the environment.
type Env struct {
	DataDir  string `env:"GHDSIM_DATA_DIR"  envDefault:".ghdsim"`
	LogLevel string `env:"GHDSIM_LOG_LEVEL" envDefault:"info"`
	Workers  int    `env:"GHDSIM_WORKERS"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

func DefaultConfig() *Config {
	return &Config{
		Model: "lieb_liniger",
		Grid: GridConfig{
			XMin: -5, XMax: 5, NX: DefaultNX,
			RMin: -4, RMax: 4, NR: DefaultNR,
			Species: 1,
		},
		Couplings: CouplingsConfig{
			Mu:          models.CouplingSpec{Kind: "harmonic", Value: 2, Omega: 0.5},
			Interaction: models.CouplingSpec{Kind: "constant", Value: 1},
		},
		Initial: models.FillingSpec{
			Kind:        "fermi",
			Temperature: 0.5,
			Mu:          models.CouplingSpec{Kind: "harmonic", Value: 2, Omega: 0.5},
		},
		Departure:     departure.DefaultConfig(),
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		SnapshotEvery: DefaultSnapshotEvery,
		Extrapolation: "zero",
		Correlator:    CorrelatorConfig{Order: DefaultOrder},
		MaxCondition:  ghd.DefaultMaxCondition,
	}
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto decodes the file over a copy of base. Keys the file omits keep
// base's values.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv lets a non-zero worker count from the environment override the file.
func (c *Config) ApplyEnv(e Env) {
	if e.Workers > 0 {
		c.Workers = e.Workers
	}
}

func (c *Config) Validate() error {
	if c.Model != "lieb_liniger" {
		return fmt.Errorf("%w: unknown model: %s", ErrInvalidConfig, c.Model)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.SnapshotEvery < 1 {
		return fmt.Errorf("%w: snapshot_every must be at least 1, got %d", ErrInvalidConfig, c.SnapshotEvery)
	}
	if c.Grid.NX < 1 || c.Grid.NR < 1 || c.Grid.Species < 1 {
		return fmt.Errorf("%w: grid sizes must be positive, got nx=%d nr=%d species=%d",
			ErrInvalidConfig, c.Grid.NX, c.Grid.NR, c.Grid.Species)
	}
	if c.Couplings.Interaction.Kind == "" || c.Couplings.Interaction.Kind == "none" {
		return fmt.Errorf("%w: interaction coupling is required", ErrInvalidConfig)
	}
	if c.Correlator.Enabled && c.Correlator.Order < 1 {
		return fmt.Errorf("%w: correlator order must be at least 1, got %d", ErrInvalidConfig, c.Correlator.Order)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := interp.ParseExtrapolation(c.Extrapolation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := interp.ParseExtrapolation(c.Departure.Extrapolation); err != nil {
		return fmt.Errorf("%w: departure: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) BuildGrid() (*grid.Grid, error) {
	g := c.Grid
	return grid.Uniform(g.XMin, g.XMax, g.NX, g.RMin, g.RMax, g.NR, g.Species)
}

func (c *Config) BuildModel(g *grid.Grid) (*models.LiebLiniger, error) {
	table, err := models.BuildCouplings(c.Couplings.Mu, c.Couplings.Interaction)
	if err != nil {
		return nil, err
	}
	return models.NewLiebLiniger(g, table)
}

func (c *Config) DressOptions() ghd.Options {
	opts := ghd.DefaultOptions()
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	if c.MaxCondition > 0 {
		opts.MaxCondition = c.MaxCondition
	}
	return opts
}

func (c *Config) PropagateConfig() (propagate.Config, error) {
	extrap, err := interp.ParseExtrapolation(c.Extrapolation)
	if err != nil {
		return propagate.Config{}, err
	}
	return propagate.Config{
		Dt:                c.Dt,
		Duration:          c.Duration,
		SnapshotEvery:     c.SnapshotEvery,
		Extrapolation:     extrap,
		StrictConvergence: c.StrictConvergence,
	}, nil
}
