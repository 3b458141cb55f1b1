package propagate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/metrics"
	"github.com/san-kum/ghdsim/internal/models"
	"github.com/san-kum/ghdsim/internal/propagate"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	m.Run()
}

type setup struct {
	grid    *grid.Grid
	dresser *ghd.Dresser
	eff     *ghd.EffectiveComputer
	theta   *tensor.Field
}

func newSetup(t *testing.T, mu models.CouplingSpec) setup {
	t.Helper()
	g, err := grid.Uniform(-2, 2, 9, -3, 3, 12, 1)
	require.NoError(t, err)
	table, err := models.BuildCouplings(mu, models.CouplingSpec{Kind: "constant", Value: 1})
	require.NoError(t, err)
	m, err := models.NewLiebLiniger(g, table)
	require.NoError(t, err)
	d := ghd.NewDresser(m, ghd.DefaultOptions())
	theta, err := models.InitialFilling(g, models.FillingSpec{Kind: "fermi", Temperature: 1, Mu: mu})
	require.NoError(t, err)
	return setup{grid: g, dresser: d, eff: ghd.NewEffectiveComputer(m, d), theta: theta}
}

func trap() models.CouplingSpec {
	return models.CouplingSpec{Kind: "harmonic", Value: 2, Omega: 1}
}

func newPropagator(t *testing.T, s setup, cfg departure.Config) *propagate.Propagator {
	t.Helper()
	solver, err := departure.New(s.eff, cfg)
	require.NoError(t, err)
	return propagate.New(solver, s.grid)
}

type counter struct {
	steps []int
	times []float64
}

func (c *counter) OnStep(step int, t float64, _ *tensor.Field) {
	c.steps = append(c.steps, step)
	c.times = append(c.times, t)
}

func TestRun(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())
	obs := &counter{}
	p.AddObserver(obs)
	p.AddMetric(metrics.NewAtomNumber(s.dresser))
	p.AddMetric(metrics.NewFillingBounds(1e-12))

	cfg := propagate.Config{Dt: 0.01, Duration: 0.1, SnapshotEvery: 5, Extrapolation: interp.Zero}
	res, err := p.Run(context.Background(), s.theta, cfg)
	require.NoError(t, err)

	assert.Equal(t, 10, res.StepsTaken)
	assert.Equal(t, 0, res.Unconverged)
	require.Len(t, res.Snapshots, 3)
	require.Len(t, res.Times, 3)
	assert.InDelta(t, 0.1, res.Times[2], 1e-12)
	assert.True(t, res.Snapshots[0].Equal(s.theta), "initial snapshot is the input filling")

	assert.Len(t, obs.steps, 11)
	assert.Equal(t, 0, obs.steps[0])
	assert.Equal(t, 10, obs.steps[10])

	assert.Contains(t, res.Metrics, "atom_number")
	assert.Greater(t, res.Metrics["atom_number"], 0.0)
	assert.Equal(t, 1.0, res.Metrics["filling_bounds"])
	assert.Empty(t, res.Errors)
}

func TestRunDoesNotMutateInput(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())
	before := s.theta.Clone()

	_, err := p.Run(context.Background(), s.theta, propagate.Config{Dt: 0.05, Duration: 0.1, SnapshotEvery: 1})
	require.NoError(t, err)
	assert.True(t, s.theta.Equal(before))
}

func TestRunHomogeneousStationary(t *testing.T) {
	s := newSetup(t, models.CouplingSpec{Kind: "constant", Value: 1})
	p := newPropagator(t, s, departure.DefaultConfig())

	res, err := p.Run(context.Background(), s.theta, propagate.Config{
		Dt: 0.05, Duration: 0.5, SnapshotEvery: 10, Extrapolation: interp.Clamp,
	})
	require.NoError(t, err)

	final := res.Snapshots[len(res.Snapshots)-1]
	assert.Less(t, final.MaxAbsDiff(s.theta), 1e-12, "a translation-invariant state is stationary")
}

func TestRunConservesAtomsInsideTrap(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())
	drift := metrics.NewChargeDrift(s.dresser, 0)
	p.AddMetric(drift)

	res, err := p.Run(context.Background(), s.theta, propagate.Config{
		Dt: 0.01, Duration: 0.05, SnapshotEvery: 5, Extrapolation: interp.Clamp,
	})
	require.NoError(t, err)
	assert.Less(t, res.Metrics["number_drift"], 0.25)
}

func TestRunNonConvergence(t *testing.T) {
	s := newSetup(t, trap())
	cfg := departure.Config{Implicit: true, Tolerance: 1e-30, MaxIterations: 1, Extrapolation: "clamp"}

	t.Run("lenient", func(t *testing.T) {
		p := newPropagator(t, s, cfg)
		res, err := p.Run(context.Background(), s.theta, propagate.Config{Dt: 0.05, Duration: 0.1, SnapshotEvery: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Unconverged)
		require.Len(t, res.Errors, 2)
		assert.ErrorIs(t, res.Errors[0], departure.ErrNonConvergence)
	})

	t.Run("strict", func(t *testing.T) {
		p := newPropagator(t, s, cfg)
		res, err := p.Run(context.Background(), s.theta, propagate.Config{
			Dt: 0.05, Duration: 0.1, SnapshotEvery: 1, StrictConvergence: true,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, departure.ErrNonConvergence)

		var stepErr *propagate.StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, 0, stepErr.Step)
		assert.Equal(t, 0, res.StepsTaken)
	})
}

func TestRunStepError(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())

	_, err := p.Run(context.Background(), tensor.NewField(3, 1, 2), propagate.Config{Dt: 0.1, Duration: 1, SnapshotEvery: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ghd.ErrShapeMismatch)

	var stepErr *propagate.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Contains(t, stepErr.Error(), "step 0")
}

func TestRunCancelled(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, s.theta, propagate.Config{Dt: 0.01, Duration: 1, SnapshotEvery: 1})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.StepsTaken)
	assert.Len(t, res.Snapshots, 1)
}

func TestRunInvalidConfig(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())

	tests := []struct {
		name string
		cfg  propagate.Config
	}{
		{"zero dt", propagate.Config{Dt: 0, Duration: 1.0, SnapshotEvery: 1}},
		{"negative dt", propagate.Config{Dt: -0.1, Duration: 1.0, SnapshotEvery: 1}},
		{"zero duration", propagate.Config{Dt: 0.1, Duration: 0, SnapshotEvery: 1}},
		{"negative duration", propagate.Config{Dt: 0.1, Duration: -1.0, SnapshotEvery: 1}},
		{"zero snapshot interval", propagate.Config{Dt: 0.1, Duration: 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), s.theta, tt.cfg)
			assert.ErrorIs(t, err, propagate.ErrInvalidConfig)
		})
	}
}

func TestStep(t *testing.T) {
	s := newSetup(t, trap())
	p := newPropagator(t, s, departure.DefaultConfig())

	next, res, err := p.Step(s.theta, 0, 0, interp.Clamp)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Less(t, next.MaxAbsDiff(s.theta), 1e-14, "a zero step reproduces the filling")

	next, _, err = p.Step(s.theta, 0, 0.05, interp.Clamp)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(next.At(0, 0, 0)))
	assert.Greater(t, next.MaxAbsDiff(s.theta), 0.0)
}

func TestDefaultConfig(t *testing.T) {
	cfg := propagate.DefaultConfig()
	assert.Greater(t, cfg.Dt, 0.0)
	assert.Greater(t, cfg.Duration, cfg.Dt)
	assert.GreaterOrEqual(t, cfg.SnapshotEvery, 1)
	assert.Equal(t, interp.Zero, cfg.Extrapolation)
}
