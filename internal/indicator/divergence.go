package indicator

import "signalscan/internal/model"

const (
	divergenceMinBars     = 50 // history needed before divergence is attempted
	divergenceWindow      = 30 // trailing bars searched for local extrema
	divergenceMinInWindow = 10
)

// DetectDivergence classifies price/RSI divergence over the trailing 30
// bars of the series.
//
// A local low at index i satisfies close[i] < close[i-1] and
// close[i] < close[i+1]; a local high is the mirror. Bullish divergence:
// the two most recent local lows show a lower price low but a higher RSI
// low. Bearish: the two most recent local highs show a higher price high
// but a lower RSI high. Bullish is evaluated first; first match wins.
//
// Returns DivergenceNone for series shorter than 50 bars, when the
// trailing window holds fewer than 10 bars, or when no qualifying
// extremum pair exists.
func DetectDivergence(s model.Series) model.Divergence {
	if len(s) < divergenceMinBars {
		return model.DivergenceNone
	}

	closes := s.Closes()
	rsi := RSISeries(closes, DefaultRSIPeriod)

	start := len(closes) - divergenceWindow
	if start < 0 {
		start = 0
	}
	price := closes[start:]
	momentum := rsi[start:]
	if len(price) < divergenceMinInWindow {
		return model.DivergenceNone
	}

	var lowPrices, lowRSIs, highPrices, highRSIs []float64
	for i := 1; i < len(price)-1; i++ {
		if price[i] < price[i-1] && price[i] < price[i+1] {
			lowPrices = append(lowPrices, price[i])
			lowRSIs = append(lowRSIs, momentum[i])
		}
		if price[i] > price[i-1] && price[i] > price[i+1] {
			highPrices = append(highPrices, price[i])
			highRSIs = append(highRSIs, momentum[i])
		}
	}

	if n := len(lowPrices); n >= 2 {
		if lowPrices[n-1] < lowPrices[n-2] && lowRSIs[n-1] > lowRSIs[n-2] {
			return model.BullishDivergence
		}
	}
	if n := len(highPrices); n >= 2 {
		if highPrices[n-1] > highPrices[n-2] && highRSIs[n-1] < highRSIs[n-2] {
			return model.BearishDivergence
		}
	}
	return model.DivergenceNone
}
