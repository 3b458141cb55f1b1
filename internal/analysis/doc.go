// Package analysis reduces stored density profiles to cloud observables.
//
//   - [Moments]: atom number, centre of mass and rms width of one profile
//   - [WidthSeries]: rms width over a run
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a sampled
//     series, used to read off collective-mode frequencies
//
// # Breathing Mode
//
// A cloud released from equilibrium in a harmonic trap of frequency ω
// oscillates in width. The breathing frequency lies between √3·ω for a weakly
// interacting gas and 2·ω in the Tonks-Girardeau limit:
//
//	widths, err := analysis.WidthSeries(x, profiles.Values)
//	f, err := analysis.DominantFrequency(widths, snapshotInterval)
//	omegaB := 2 * math.Pi * f
package analysis
