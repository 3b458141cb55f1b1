// Package tensor provides the fixed-rank arrays used by the GHD solvers.
//
// Each type fixes its axis order at compile time:
//
//   - [Field]: (rapidity, species, position)
//   - [Kernel]: (rapidity₁, rapidity₂, species₁, species₂)
//   - [Profile]: (species, position)
//
// Broadcasting is never implicit. A value that only depends on some axes is
// expanded with an explicit constructor such as [FieldFromRapidity] or
// [FieldFromPosition].
//
// Per-position linear systems order their unknowns species-major: the
// vector index of (r, s) is s*NR + r. [Field.Column] and [Field.SetColumn]
// use that ordering.
package tensor
