package indicator

// DefaultRSIPeriod is the conventional 14-bar RSI lookback.
const DefaultRSIPeriod = 14

// RSI computes the Relative Strength Index for the last bar of the close
// series. Returns (0, false) when fewer than period+1 closes are
// available (period deltas are needed).
//
// Averages are fixed-window simple means of gains and losses, not
// Wilder's exponential smoothing. The recommendation thresholds (70/30/50)
// were tuned against this exact formula; do not switch to Wilder's method.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gainSum, lossSum float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}

	return rsiFromSums(gainSum, lossSum, period), true
}

// RSISeries computes RSI for every position of the close series, aligned
// by index. Positions before the first full window (index < period) are
// undefined. O(n) with running gain/loss sums.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		for i := range out {
			out[i] = undefined
		}
		return out
	}

	var gainSum, lossSum float64
	for i := range closes {
		if i == 0 {
			out[i] = undefined
			continue
		}

		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}

		// Slide the window: delta at i-period leaves the average.
		if i > period {
			old := closes[i-period] - closes[i-period-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum += old
			}
		}

		if i < period {
			out[i] = undefined
			continue
		}
		out[i] = rsiFromSums(gainSum, lossSum, period)
	}
	return out
}

// rsiFromSums applies RSI = 100 - 100/(1+RS) with the zero-loss case
// pinned to 100 so a division by zero never propagates as NaN.
func rsiFromSums(gainSum, lossSum float64, period int) float64 {
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
