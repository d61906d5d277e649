// Package indicator provides technical indicator calculations over bar data.
//
// All functions are pure: they map an input series to an output series of
// the same length, aligned element-for-element. Leading entries are NaN
// until the indicator's look-back window is satisfied. Callers must treat
// NaN as "cannot evaluate" and skip, never as zero.
package indicator

import "math"

// nan is the undefined-value marker for warm-up and degenerate entries.
var nan = math.NaN()

// nanSeries allocates a series of length n filled with NaN.
func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = nan
	}
	return s
}

// Valid reports whether v is a defined indicator value.
func Valid(v float64) bool {
	return !math.IsNaN(v)
}
