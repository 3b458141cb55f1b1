// Package ghd provides the dressing machinery of Generalized Hydrodynamics.
//
// The package defines the model contract and the two solvers every other
// component builds on:
//
//   - [Model]: bare energy/momentum derivatives, scattering kernels and couplings
//   - [Dresser]: solves (1 − K(θ,t))·f^dr = f per position sample
//   - [EffectiveComputer]: effective velocity and acceleration fields
//
// # Example
//
//	m, _ := models.NewLiebLiniger(g, couplings)
//	d := ghd.NewDresser(m, ghd.DefaultOptions())
//	eff, err := ghd.NewEffectiveComputer(m, d).Compute(theta, t)
//
// # Errors
//
// A rank-deficient dressing system is reported as [SingularSystemError] and a
// vanishing dressed momentum derivative as [DivisionError]. Both identify the
// offending grid location and wrap [ErrSingularSystem] and
// [ErrDivisionDegeneracy] respectively.
//
// # Thread Safety
//
// All solvers are read-only after construction. Positions are solved
// concurrently; each position's dense system is owned by a single goroutine.
package ghd
