package propagate

import (
	"errors"
	"fmt"

	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/tensor"
)

var (
	// ErrInvalidState indicates a filling function with NaN or Inf entries.
	ErrInvalidState = errors.New("propagate: invalid filling (NaN or Inf detected)")

	// ErrInvalidConfig indicates unusable driver settings.
	ErrInvalidConfig = errors.New("propagate: invalid configuration")
)

type Observer interface {
	OnStep(step int, t float64, theta *tensor.Field)
}

// Metric accumulates a scalar diagnostic over a run.
type Metric interface {
	Name() string
	Observe(t float64, theta *tensor.Field) error
	Value() float64
	Reset()
}

type Config struct {
	Dt                float64
	Duration          float64
	SnapshotEvery     int
	Extrapolation     interp.Extrapolation
	StrictConvergence bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      1.0,
		SnapshotEvery: 10,
		Extrapolation: interp.Zero,
	}
}

type Result struct {
	Times       []float64
	Snapshots   []*tensor.Field
	StepsTaken  int
	Unconverged int
	Metrics     map[string]float64
	Errors      []error
}

// StepError aborts a run and records where it stopped.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }
