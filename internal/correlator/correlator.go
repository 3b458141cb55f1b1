package correlator

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidOrder = errors.New("correlator: order must be a positive integer")
	ErrSeriesLength = errors.New("correlator: snapshot and time counts differ")
)

// Engine evaluates local correlators for snapshots of a single model.
type Engine struct {
	model   ghd.Model
	grid    *grid.Grid
	dresser *ghd.Dresser
	opts    ghd.Options
	log     *logrus.Entry
}

func New(d *ghd.Dresser) *Engine {
	return &Engine{
		model:   d.Model(),
		grid:    d.Grid(),
		dresser: d,
		opts:    d.Options(),
		log:     logrus.WithField("component", "correlator"),
	}
}

// Local returns g_n(x) for one filling snapshot:
//
//	g_n = n!²·cⁿ/(2ⁿDⁿ) · Σ_{m} Π_j (1/mⱼ!)·(B_j/(π·c))^{mⱼ}
//
// with D the particle density and the sum running over [Partitions](n). The
// powers of c are combined before evaluation so the free point c = 0 is finite.
func (e *Engine) Local(n int, theta *tensor.Field, t float64) ([]float64, error) {
	return e.local(n, theta, t, false)
}

// LocalMasked is Local with NaN written at positions whose density vanishes,
// for profiles that include empty regions of an expanding cloud.
func (e *Engine) LocalMasked(n int, theta *tensor.Field, t float64) ([]float64, error) {
	return e.local(n, theta, t, true)
}

func (e *Engine) local(n int, theta *tensor.Field, t float64, mask bool) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, n)
	}
	interaction, ok := e.model.Couplings().Interaction.Value.Get()
	if !ok {
		return nil, fmt.Errorf("correlator: %w: interaction strength", ghd.ErrMissingCoupling)
	}

	density, err := e.dresser.Charges(theta, 0, t)
	if err != nil {
		return nil, err
	}
	coeffs, err := e.Coefficients(n, theta, t)
	if err != nil {
		return nil, err
	}
	B := make([][]float64, n)
	for j, p := range coeffs {
		B[j] = p.SumSpecies()
	}
	parts := Partitions(n)
	nf := factorial(n)

	g := make([]float64, e.grid.NX())
	for x := range g {
		d := density[x]
		if math.Abs(d) < e.opts.DivisionEpsilon {
			if mask {
				g[x] = math.NaN()
				continue
			}
			return nil, &ghd.DivisionError{Quantity: "local density", R: -1, X: x, Position: e.grid.X(x), Value: d}
		}
		c := interaction(t, e.grid.X(x))

		sum := 0.0
		for _, m := range parts {
			term, count := 1.0, 0
			for j, mj := range m {
				if mj == 0 {
					continue
				}
				term *= math.Pow(B[j][x]/math.Pi, float64(mj)) / factorial(mj)
				count += mj
			}
			sum += term * math.Pow(c, float64(n-count))
		}
		g[x] = nf * nf / math.Pow(2*d, float64(n)) * sum
	}

	e.log.WithFields(logrus.Fields{"n": n, "t": t, "partitions": len(parts)}).Debug("local correlator")
	return g, nil
}

// LocalSeries evaluates Local for each (snapshot, time) pair.
func (e *Engine) LocalSeries(n int, thetas []*tensor.Field, times []float64) ([][]float64, error) {
	if len(thetas) != len(times) {
		return nil, fmt.Errorf("%w: %d snapshots, %d times", ErrSeriesLength, len(thetas), len(times))
	}
	out := make([][]float64, len(thetas))
	for i, theta := range thetas {
		g, err := e.Local(n, theta, times[i])
		if err != nil {
			return nil, fmt.Errorf("snapshot %d (t=%.4f): %w", i, times[i], err)
		}
		out[i] = g
	}
	return out, nil
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
