// Package analysis provides signal tools for per-frame metric series.
//
//   - [DominantFrequency]: strongest oscillation of a series, e.g. the bounce
//     of a jelly body's centre of mass
//   - [PowerSpectrum]: magnitude spectrum via a radix-2 [FFT]
//   - [PhasePortrait] and [Rate]: a series against its own rate of change
//   - [Crossings]: upward threshold crossings
//
// A body bouncing on the floor at 5 Hz over 2 s sampled every 2 ms:
//
//	f := analysis.DominantFrequency(series["com_height"], 2e-3)
package analysis
