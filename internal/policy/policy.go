// Package policy maps indicator readings to discrete BUY/HOLD/SELL
// recommendations via a fixed decision table.
//
// The table is ordered: conditions are evaluated top to bottom within the
// matching cross-kind branch and the first match wins. Callers must
// resolve an undefined RSI before calling (NeutralRSI is the agreed
// stand-in).
package policy

import "signalscan/internal/model"

// NeutralRSI substitutes for an undefined RSI at decision time.
const NeutralRSI = 50.0

// Reasons attached to each recommendation, one per table row.
const (
	ReasonOverbought     = "Overbought - Wait for pullback"
	ReasonStrongUptrend  = "Strong uptrend with good momentum"
	ReasonRisingMomentum = "Golden cross with rising momentum"
	ReasonOversold       = "Oversold - Strong downtrend"
	ReasonBearishMomentum = "Death cross with bearish momentum"
	ReasonWatchDecline   = "Watch for further decline"
	ReasonStrongPerformer = "Strong performer - Monitor"
	ReasonStable         = "Stable performance"
	ReasonNegativeTrend  = "Negative trend"
)

// Recommend derives an action and reason from the current RSI, the ROI
// over the observed window (percent), and the recent crossover kind
// (empty CrossKind means no recent cross).
func Recommend(rsi, roiPct float64, cross model.CrossKind) model.Recommendation {
	switch cross {
	case model.GoldenCross:
		switch {
		case rsi > 70:
			return model.Recommendation{Action: model.ActionHold, Reason: ReasonOverbought}
		case rsi > 50:
			return model.Recommendation{Action: model.ActionBuy, Reason: ReasonStrongUptrend}
		default:
			return model.Recommendation{Action: model.ActionBuy, Reason: ReasonRisingMomentum}
		}
	case model.DeathCross:
		switch {
		case rsi < 30:
			return model.Recommendation{Action: model.ActionSell, Reason: ReasonOversold}
		case rsi < 50:
			return model.Recommendation{Action: model.ActionSell, Reason: ReasonBearishMomentum}
		default:
			return model.Recommendation{Action: model.ActionHold, Reason: ReasonWatchDecline}
		}
	default:
		switch {
		case roiPct > 10:
			return model.Recommendation{Action: model.ActionHold, Reason: ReasonStrongPerformer}
		case roiPct > 0:
			return model.Recommendation{Action: model.ActionHold, Reason: ReasonStable}
		default:
			return model.Recommendation{Action: model.ActionSell, Reason: ReasonNegativeTrend}
		}
	}
}
