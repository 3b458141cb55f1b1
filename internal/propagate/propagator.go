package propagate

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
)

// Propagator advances a filling function with the first-order semi-Lagrangian
// scheme θ(t+dt; x, r) = θ(t; x_d, r_d).
type Propagator struct {
	solver    *departure.Solver
	grid      *grid.Grid
	metrics   []Metric
	observers []Observer
	log       *logrus.Entry
}

func New(solver *departure.Solver, g *grid.Grid) *Propagator {
	return &Propagator{
		solver:    solver,
		grid:      g,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logrus.WithField("component", "propagate"),
	}
}

func (p *Propagator) AddMetric(m Metric)     { p.metrics = append(p.metrics, m) }
func (p *Propagator) AddObserver(o Observer) { p.observers = append(p.observers, o) }

// Step performs a single update and returns the new filling together with
// the departure-point result it was built from.
func (p *Propagator) Step(theta *tensor.Field, t, dt float64, extrap interp.Extrapolation) (*tensor.Field, *departure.Result, error) {
	res, err := p.solver.Solve(theta, t, dt)
	if err != nil {
		return nil, nil, err
	}
	next := interp.PhaseSpace(theta, p.grid, res.R, res.X, extrap)
	if !next.IsValid() {
		return nil, res, ErrInvalidState
	}
	return next, res, nil
}

func (p *Propagator) Run(ctx context.Context, theta0 *tensor.Field, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:     make([]float64, 0, steps/cfg.SnapshotEvery+2),
		Snapshots: make([]*tensor.Field, 0, steps/cfg.SnapshotEvery+2),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range p.metrics {
		m.Reset()
	}

	theta := theta0.Clone()
	t := 0.0
	result.Times = append(result.Times, t)
	result.Snapshots = append(result.Snapshots, theta.Clone())
	p.observe(result, 0, t, theta)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, res, err := p.Step(theta, t, cfg.Dt, cfg.Extrapolation)
		if err != nil {
			return result, &StepError{Step: i, Time: t, Wrapped: err}
		}
		if !res.Converged {
			result.Unconverged++
			if cfg.StrictConvergence {
				return result, &StepError{Step: i, Time: t, Wrapped: res.Err()}
			}
			result.Errors = append(result.Errors, &StepError{Step: i, Time: t, Wrapped: res.Err()})
		}

		theta = next
		t += cfg.Dt
		result.StepsTaken++
		p.observe(result, i+1, t, theta)

		if (i+1)%cfg.SnapshotEvery == 0 || i == steps-1 {
			result.Times = append(result.Times, t)
			result.Snapshots = append(result.Snapshots, theta.Clone())
		}
		p.log.WithFields(logrus.Fields{"step": i + 1, "t": t, "iterations": res.Iterations}).Debug("step")
	}

	for _, m := range p.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (p *Propagator) observe(result *Result, step int, t float64, theta *tensor.Field) {
	for _, m := range p.metrics {
		if err := m.Observe(t, theta); err != nil {
			p.log.WithError(err).WithField("metric", m.Name()).Warn("metric observation failed")
			result.Errors = append(result.Errors, fmt.Errorf("metric %s at t=%.4f: %w", m.Name(), t, err))
		}
	}
	for _, o := range p.observers {
		o.OnStep(step, t, theta)
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.SnapshotEvery < 1 {
		return fmt.Errorf("%w: snapshot interval must be at least 1, got %d", ErrInvalidConfig, cfg.SnapshotEvery)
	}
	return nil
}
