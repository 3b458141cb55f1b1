package ghd

import (
	"math"

	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Effective holds the transport fields of one (θ, t) pair.
type Effective struct {
	Velocity     *tensor.Field
	Acceleration *tensor.Field
}

// EffectiveComputer evaluates v_eff = (∂e/∂r)^dr / (∂p/∂r)^dr and the
// effective acceleration generated by the chemical potential and
// interaction-strength gradients.
type EffectiveComputer struct {
	model   Model
	grid    *grid.Grid
	dresser *Dresser
	log     *logrus.Entry
}

func NewEffectiveComputer(m Model, d *Dresser) *EffectiveComputer {
	return &EffectiveComputer{
		model:   m,
		grid:    m.Grid(),
		dresser: d,
		log:     d.log.WithField("stage", "effective"),
	}
}

func (c *EffectiveComputer) Grid() *grid.Grid { return c.grid }

func (c *EffectiveComputer) Compute(theta *tensor.Field, t float64) (*Effective, error) {
	deDr, dpDr := c.model.BareDerivatives(t)
	dressed, err := c.dresser.DressMany(theta, t, deDr, dpDr)
	if err != nil {
		return nil, err
	}
	deDrDr, dpDrDr := dressed[0], dressed[1]

	if err := c.checkDenominator(dpDrDr); err != nil {
		return nil, err
	}
	v := deDrDr.Map(func(r, s, x int, e float64) float64 {
		return e / dpDrDr.At(r, s, x)
	})

	accel := tensor.NewField(theta.Dims())
	couplings := c.model.Couplings()
	if !couplings.PositionDependent() {
		return &Effective{Velocity: v, Acceleration: accel}, nil
	}

	dcdt, hasDT := couplings.Interaction.DT.Get()
	dcdx, hasDX := couplings.Interaction.DX.Get()
	if hasDT || hasDX {
		force, err := c.interactionForce(theta, t, deDrDr, dpDrDr, hasDT, hasDX)
		if err != nil {
			return nil, err
		}
		nr, ns, nx := accel.Dims()
		for x := 0; x < nx; x++ {
			pos := c.grid.X(x)
			wt, wx := 0.0, 0.0
			if hasDT {
				wt = dcdt(t, pos)
			}
			if hasDX {
				wx = dcdx(t, pos)
			}
			for r := 0; r < nr; r++ {
				for s := 0; s < ns; s++ {
					f := 0.0
					if force.dt != nil {
						f += wt * force.dt.At(r, s, x)
					}
					if force.dx != nil {
						f += wx * force.dx.At(r, s, x)
					}
					accel.Set(r, s, x, f/dpDrDr.At(r, s, x))
				}
			}
		}
	}

	// The chemical potential has no rapidity dependence, so its force needs no dressing.
	if dmudx, ok := couplings.Mu.DX.Get(); ok {
		nr, ns, nx := accel.Dims()
		for x := 0; x < nx; x++ {
			a := dmudx(t, c.grid.X(x))
			for r := 0; r < nr; r++ {
				for s := 0; s < ns; s++ {
					accel.Set(r, s, x, accel.At(r, s, x)+a)
				}
			}
		}
	}

	return &Effective{Velocity: v, Acceleration: accel}, nil
}

type dressedForce struct {
	dt *tensor.Field // (B·(∂p/∂r)^dr)^dr, weighted by ∂c/∂t
	dx *tensor.Field // (B·(∂e/∂r)^dr)^dr, weighted by ∂c/∂x
}

// interactionForce builds B = (1/2π)·∂T/∂c·(w·θ)ᵗ per position, applies it to
// the dressed derivatives that are needed and dresses the results again.
// Thermal local-equilibrium states are stationary under the resulting fields.
func (c *EffectiveComputer) interactionForce(theta *tensor.Field, t float64, deDrDr, dpDrDr *tensor.Field, needDT, needDX bool) (*dressedForce, error) {
	var srcP, srcE *tensor.Field
	if needDT {
		srcP = tensor.NewField(theta.Dims())
	}
	if needDX {
		srcE = tensor.NewField(theta.Dims())
	}

	err := ForEachPosition(c.grid.NX(), c.dresser.opts.Workers, func(x int) error {
		k := c.model.CouplingKernel(t, c.grid.X(x))
		b := ContractWeighted(k, c.grid, theta, x, 1/(2*math.Pi))
		if srcP != nil {
			srcP.SetColumn(x, mulVec(b, dpDrDr.Column(x, nil)))
		}
		if srcE != nil {
			srcE.SetColumn(x, mulVec(b, deDrDr.Column(x, nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var sources []*tensor.Field
	if srcP != nil {
		sources = append(sources, srcP)
	}
	if srcE != nil {
		sources = append(sources, srcE)
	}
	dressed, err := c.dresser.DressMany(theta, t, sources...)
	if err != nil {
		return nil, err
	}

	f := &dressedForce{}
	i := 0
	if srcP != nil {
		f.dt = dressed[i]
		i++
	}
	if srcE != nil {
		f.dx = dressed[i]
	}
	return f, nil
}

func (c *EffectiveComputer) checkDenominator(dpDrDr *tensor.Field) error {
	eps := c.dresser.opts.DivisionEpsilon
	nr, ns, nx := dpDrDr.Dims()
	for x := 0; x < nx; x++ {
		for r := 0; r < nr; r++ {
			for s := 0; s < ns; s++ {
				v := dpDrDr.At(r, s, x)
				if math.Abs(v) < eps || math.IsNaN(v) {
					c.log.WithFields(logrus.Fields{"r": r, "s": s, "x": x}).Warn("dressed momentum derivative vanishes")
					return &DivisionError{
						Quantity: "effective velocity",
						R:        r,
						S:        s,
						X:        x,
						Rapidity: c.grid.Rapidity(r),
						Position: c.grid.X(x),
						Value:    v,
					}
				}
			}
		}
	}
	return nil
}

func mulVec(m *mat.Dense, v []float64) []float64 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(len(v), v))
	return out.RawVector().Data
}
