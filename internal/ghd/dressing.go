package ghd

import (
	"errors"
	"math"
	"runtime"

	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMaxCondition    = 1e12
	DefaultDivisionEpsilon = 1e-12
)

// Options tunes the numerical guards and parallelism of the solvers.
type Options struct {
	Workers         int
	MaxCondition    float64
	DivisionEpsilon float64
	Logger          *logrus.Entry
}

func DefaultOptions() Options {
	return Options{
		Workers:         runtime.GOMAXPROCS(0),
		MaxCondition:    DefaultMaxCondition,
		DivisionEpsilon: DefaultDivisionEpsilon,
	}
}

// Dresser solves the linear dressing equation
//
//	(1 − K(θ,t))·f^dr = f,   K[r₁,r₂,s₁,s₂] = −(1/2π)·∂T/∂r(r₁,r₂,s₁,s₂;t)·w(r₂)·θ(r₂,s₂)
//
// independently at every position sample.
type Dresser struct {
	model Model
	grid  *grid.Grid
	opts  Options
	log   *logrus.Entry
}

func NewDresser(m Model, opts Options) *Dresser {
	def := DefaultOptions()
	if opts.MaxCondition <= 0 {
		opts.MaxCondition = def.MaxCondition
	}
	if opts.DivisionEpsilon <= 0 {
		opts.DivisionEpsilon = def.DivisionEpsilon
	}
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "dresser")
	}
	return &Dresser{model: m, grid: m.Grid(), opts: opts, log: log}
}

func (d *Dresser) Model() Model     { return d.model }
func (d *Dresser) Options() Options { return d.opts }
func (d *Dresser) Grid() *grid.Grid { return d.grid }

// Dress returns the dressed version of bare for the filling θ at time t.
func (d *Dresser) Dress(bare, theta *tensor.Field, t float64) (*tensor.Field, error) {
	out, err := d.DressMany(theta, t, bare)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// DressMany dresses several sources against the same (θ, t), factorising each
// position's operator once.
func (d *Dresser) DressMany(theta *tensor.Field, t float64, bares ...*tensor.Field) ([]*tensor.Field, error) {
	if err := CheckShape(d.grid, theta); err != nil {
		return nil, err
	}
	out := make([]*tensor.Field, len(bares))
	for i, b := range bares {
		if err := CheckShape(d.grid, b); err != nil {
			return nil, err
		}
		out[i] = tensor.NewField(b.Dims())
	}

	d.log.WithFields(logrus.Fields{"t": t, "sources": len(bares)}).Debug("dressing")

	err := ForEachPosition(d.grid.NX(), d.opts.Workers, func(x int) error {
		lu, err := d.factorize(theta, t, x)
		if err != nil {
			return err
		}
		for i, b := range bares {
			sol, err := SolveVec(lu.lu, b.Column(x, nil))
			if err != nil {
				return d.singular(x, lu.cond)
			}
			out[i].SetColumn(x, sol)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type luAt struct {
	lu   *mat.LU
	cond float64
}

func (d *Dresser) factorize(theta *tensor.Field, t float64, x int) (*luAt, error) {
	pos := d.grid.X(x)
	k := d.model.RapidityKernel(t, pos)
	op := IdentityMinus(ContractWeighted(k, d.grid, theta, x, -1/(2*math.Pi)))
	lu, cond, err := Factorize(op, d.opts.MaxCondition)
	if err != nil {
		if errors.Is(err, ErrSingularSystem) {
			return nil, d.singular(x, cond)
		}
		return nil, err
	}
	return &luAt{lu: lu, cond: cond}, nil
}

func (d *Dresser) singular(x int, cond float64) error {
	return &SingularSystemError{X: x, Position: d.grid.X(x), Condition: cond}
}

// Charges returns the density of the index-th conserved charge,
//
//	q_i(x) = Σ_{r,s} w(r)/(2π)·θ(r,s,x)·(∂p/∂r)^dr(r,s,x)·rⁱ.
//
// Index 0 is the particle density.
func (d *Dresser) Charges(theta *tensor.Field, index int, t float64) ([]float64, error) {
	_, dpDr := d.model.BareDerivatives(t)
	dressed, err := d.Dress(dpDr, theta, t)
	if err != nil {
		return nil, err
	}
	nr, ns, nx := theta.Dims()
	q := make([]float64, nx)
	for x := 0; x < nx; x++ {
		sum := 0.0
		for r := 0; r < nr; r++ {
			h := math.Pow(d.grid.Rapidity(r), float64(index))
			for s := 0; s < ns; s++ {
				sum += d.grid.Weight(r) * theta.At(r, s, x) * dressed.At(r, s, x) * h
			}
		}
		q[x] = sum / (2 * math.Pi)
	}
	return q, nil
}
