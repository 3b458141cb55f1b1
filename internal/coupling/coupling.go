package coupling

// Func is a coupling (or coupling derivative) evaluated at time t and position x.
type Func func(t, x float64) float64

// Option holds a coupling function that may be absent. An absent entry means
// the term does not contribute.
type Option struct {
	fn Func
	ok bool
}

func Some(fn Func) Option {
	if fn == nil {
		return Option{}
	}
	return Option{fn: fn, ok: true}
}

func None() Option { return Option{} }

// Constant is Some of a function returning v everywhere.
func Constant(v float64) Option {
	return Some(func(float64, float64) float64 { return v })
}

func (o Option) Get() (Func, bool) { return o.fn, o.ok }
func (o Option) Present() bool     { return o.ok }

// Eval returns the value at (t, x), or 0 when absent.
func (o Option) Eval(t, x float64) float64 {
	if !o.ok {
		return 0
	}
	return o.fn(t, x)
}

// Order is the derivative order of a coupling entry.
type Order int

const (
	Value Order = iota
	DT
	DX
)

// Slot groups a coupling with its time and space derivatives.
type Slot struct {
	Value Option
	DT    Option
	DX    Option
}

func (s Slot) Get(o Order) Option {
	switch o {
	case Value:
		return s.Value
	case DT:
		return s.DT
	case DX:
		return s.DX
	}
	return None()
}

// Table is the coupling table of a model: chemical potential and interaction strength.
type Table struct {
	Mu          Slot
	Interaction Slot
}

// PositionDependent reports whether any coupling carries an explicit
// position derivative. Without one the system is homogeneous.
func (t Table) PositionDependent() bool {
	return t.Mu.DX.Present() || t.Interaction.DX.Present()
}
