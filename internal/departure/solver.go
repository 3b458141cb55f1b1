package departure

import (
	"errors"
	"fmt"

	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 50
)

var (
	// ErrNonConvergence indicates the implicit iteration exhausted its budget.
	ErrNonConvergence = errors.New("departure: implicit iteration did not converge")

	// ErrInvalidConfig indicates an unusable solver configuration.
	ErrInvalidConfig = errors.New("departure: invalid configuration")
)

// Config selects the departure-point scheme.
type Config struct {
	Implicit      bool    `yaml:"implicit"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Extrapolation string  `yaml:"extrapolation"`
}

func DefaultConfig() Config {
	return Config{
		Implicit:      false,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Extrapolation: "clamp",
	}
}

// Result holds the backward-traced coordinates of every grid point together
// with the on-grid transport fields of the current filling.
type Result struct {
	X, R         *tensor.Field
	Velocity     *tensor.Field
	Acceleration *tensor.Field
	Iterations   int
	Residual     float64
	Converged    bool

	tolerance float64
}

// Err reports a non-converged implicit solve. Explicit results always converge.
func (r *Result) Err() error {
	if r.Converged {
		return nil
	}
	return &NonConvergenceError{Iterations: r.Iterations, Residual: r.Residual, Tolerance: r.tolerance}
}

type NonConvergenceError struct {
	Iterations int
	Residual   float64
	Tolerance  float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations (residual %.3g, tolerance %.3g)",
		ErrNonConvergence, e.Iterations, e.Residual, e.Tolerance)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }

// Solver computes departure points for one semi-Lagrangian step.
type Solver struct {
	eff    *ghd.EffectiveComputer
	grid   *grid.Grid
	cfg    Config
	extrap interp.Extrapolation
	log    *logrus.Entry
}

func New(eff *ghd.EffectiveComputer, cfg Config) (*Solver, error) {
	if cfg.Implicit {
		if cfg.Tolerance <= 0 {
			return nil, fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidConfig, cfg.Tolerance)
		}
		if cfg.MaxIterations < 1 {
			return nil, fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfig, cfg.MaxIterations)
		}
	}
	extrap, err := interp.ParseExtrapolation(cfg.Extrapolation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Solver{
		eff:    eff,
		grid:   eff.Grid(),
		cfg:    cfg,
		extrap: extrap,
		log:    logrus.WithField("component", "departure"),
	}, nil
}

func (s *Solver) Config() Config { return s.cfg }

func (s *Solver) Solve(theta *tensor.Field, t, dt float64) (*Result, error) {
	fields, err := s.eff.Compute(theta, t)
	if err != nil {
		return nil, err
	}
	nr, ns, nx := theta.Dims()
	xGrid := tensor.FieldFromPosition(s.grid.Positions(), nr, ns)
	rGrid := tensor.FieldFromRapidity(s.grid.Rapidities(), ns, nx)

	if !s.cfg.Implicit {
		return &Result{
			X:            xGrid.Map(func(r, sp, x int, v float64) float64 { return v - dt*fields.Velocity.At(r, sp, x) }),
			R:            rGrid.Map(func(r, sp, x int, v float64) float64 { return v - dt*fields.Acceleration.At(r, sp, x) }),
			Velocity:     fields.Velocity,
			Acceleration: fields.Acceleration,
			Iterations:   1,
			Converged:    true,
		}, nil
	}
	return s.implicit(fields, xGrid, rGrid, dt), nil
}

// implicit iterates x_d = x − dt·v((x+x_d)/2, (r+r_d)/2) and the matching
// rapidity update until the squared correction drops below the tolerance.
func (s *Solver) implicit(fields *ghd.Effective, xGrid, rGrid *tensor.Field, dt float64) *Result {
	xd, rd := xGrid.Clone(), rGrid.Clone()
	res := &Result{
		X:            xd,
		R:            rd,
		Velocity:     fields.Velocity,
		Acceleration: fields.Acceleration,
		tolerance:    s.cfg.Tolerance,
	}
	nr, ns, nx := xd.Dims()

	for iter := 1; ; iter++ {
		xMid := xGrid.Map(func(r, sp, x int, v float64) float64 { return (v + xd.At(r, sp, x)) / 2 })
		rMid := rGrid.Map(func(r, sp, x int, v float64) float64 { return (v + rd.At(r, sp, x)) / 2 })
		vMid := interp.PhaseSpace(fields.Velocity, s.grid, rMid, xMid, s.extrap)
		aMid := interp.PhaseSpace(fields.Acceleration, s.grid, rMid, xMid, s.extrap)

		residual := 0.0
		for r := 0; r < nr; r++ {
			for sp := 0; sp < ns; sp++ {
				for x := 0; x < nx; x++ {
					cx := xGrid.At(r, sp, x) - xd.At(r, sp, x) - dt*vMid.At(r, sp, x)
					cr := rGrid.At(r, sp, x) - rd.At(r, sp, x) - dt*aMid.At(r, sp, x)
					xd.Set(r, sp, x, xd.At(r, sp, x)+cx)
					rd.Set(r, sp, x, rd.At(r, sp, x)+cr)
					residual += cx*cx + cr*cr
				}
			}
		}
		res.Iterations, res.Residual = iter, residual

		if residual < s.cfg.Tolerance {
			res.Converged = true
			break
		}
		if iter >= s.cfg.MaxIterations {
			s.log.WithFields(logrus.Fields{
				"iterations": iter,
				"residual":   residual,
				"tolerance":  s.cfg.Tolerance,
			}).Warn("implicit departure points did not converge; returning last iterate")
			break
		}
	}
	s.log.WithFields(logrus.Fields{"iterations": res.Iterations, "residual": res.Residual}).Debug("implicit departure points")
	return res
}
