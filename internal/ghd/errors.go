package ghd

import (
	"errors"
	"fmt"
)

var (
	// ErrSingularSystem indicates a rank-deficient or ill-conditioned dense solve.
	ErrSingularSystem = errors.New("ghd: singular linear system")

	// ErrDivisionDegeneracy indicates division by a vanishing dressed quantity.
	ErrDivisionDegeneracy = errors.New("ghd: division by vanishing dressed quantity")

	// ErrShapeMismatch indicates a field whose shape does not match the grid.
	ErrShapeMismatch = errors.New("ghd: field shape does not match grid")

	// ErrMissingCoupling indicates a computation needs a coupling the model does not define.
	ErrMissingCoupling = errors.New("ghd: required coupling is absent")
)

// SingularSystemError locates a failed per-position solve.
type SingularSystemError struct {
	X         int
	Position  float64
	Condition float64
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("%v at x[%d]=%.6g (condition %.3g)", ErrSingularSystem, e.X, e.Position, e.Condition)
}

func (e *SingularSystemError) Unwrap() error { return ErrSingularSystem }

// DivisionError locates a division by a (near) zero denominator.
type DivisionError struct {
	Quantity string
	R, S, X  int
	Rapidity float64
	Position float64
	Value    float64
}

func (e *DivisionError) Error() string {
	if e.R < 0 {
		return fmt.Sprintf("%v: %s at x[%d]=%.6g (denominator %.3g)",
			ErrDivisionDegeneracy, e.Quantity, e.X, e.Position, e.Value)
	}
	return fmt.Sprintf("%v: %s at r[%d]=%.6g species %d x[%d]=%.6g (denominator %.3g)",
		ErrDivisionDegeneracy, e.Quantity, e.R, e.Rapidity, e.S, e.X, e.Position, e.Value)
}

func (e *DivisionError) Unwrap() error { return ErrDivisionDegeneracy }
