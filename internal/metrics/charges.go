package metrics

import (
	"math"

	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/tensor"
)

// Total integrates the charge density q_index(x) over the position axis.
func Total(d *ghd.Dresser, theta *tensor.Field, index int, t float64) (float64, error) {
	q, err := d.Charges(theta, index, t)
	if err != nil {
		return 0, err
	}
	g := d.Grid()
	total := 0.0
	for x, v := range q {
		total += v * g.PositionSpacing(x)
	}
	return total, nil
}

// AtomNumber reports the integrated particle number of the latest observation.
type AtomNumber struct {
	name    string
	dresser *ghd.Dresser
	current float64
	samples int
}

func NewAtomNumber(d *ghd.Dresser) *AtomNumber {
	return &AtomNumber{name: "atom_number", dresser: d}
}

func (a *AtomNumber) Name() string { return a.name }

func (a *AtomNumber) Observe(t float64, theta *tensor.Field) error {
	n, err := Total(a.dresser, theta, 0, t)
	if err != nil {
		return err
	}
	a.current = n
	a.samples++
	return nil
}

func (a *AtomNumber) Value() float64 { return a.current }

func (a *AtomNumber) Reset() {
	a.current = 0
	a.samples = 0
}

// ChargeDrift tracks the maximum relative deviation of an integrated charge
// from its first observed value.
type ChargeDrift struct {
	name     string
	index    int
	dresser  *ghd.Dresser
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewChargeDrift(d *ghd.Dresser, index int) *ChargeDrift {
	name := "charge_drift"
	switch index {
	case 0:
		name = "number_drift"
	case 2:
		name = "energy_drift"
	}
	return &ChargeDrift{name: name, index: index, dresser: d}
}

func (c *ChargeDrift) Name() string { return c.name }

func (c *ChargeDrift) Observe(t float64, theta *tensor.Field) error {
	q, err := Total(c.dresser, theta, c.index, t)
	if err != nil {
		return err
	}
	if c.samples == 0 {
		c.initial = q
	}
	c.current = q
	c.samples++

	if c.initial != 0 {
		drift := math.Abs(q-c.initial) / math.Abs(c.initial)
		c.maxDrift = math.Max(c.maxDrift, drift)
	}
	return nil
}

func (c *ChargeDrift) Value() float64 { return c.maxDrift }

func (c *ChargeDrift) Reset() {
	c.initial = 0
	c.current = 0
	c.maxDrift = 0
	c.samples = 0
}
