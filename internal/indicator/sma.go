// Package indicator provides technical indicator calculations over daily
// bar series: simple moving averages, RSI, MA crossover detection, and
// price/RSI divergence.
//
// All functions are pure and operate on immutable series. Positions of a
// derived series where the lookback window is not yet full are marked
// with NaN; use Defined to test them. Insufficient history is a normal
// "no result" outcome, never an error.
package indicator

import "math"

// undefined marks derived-series positions without a full lookback window.
var undefined = math.NaN()

// Defined reports whether a derived-series value is defined at its position.
func Defined(v float64) bool { return !math.IsNaN(v) }

// SMASeries computes the simple moving average of closes over the given
// window, aligned by index with the input. The first window-1 positions
// are undefined. O(n) with a running sum.
func SMASeries(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if window <= 0 || len(closes) < window {
		for i := range out {
			out[i] = undefined
		}
		return out
	}

	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = undefined
		}
	}
	return out
}
