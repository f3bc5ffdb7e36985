package model

import "time"

// CrossKind identifies the direction of a moving-average crossover.
type CrossKind string

const (
	GoldenCross CrossKind = "Golden Cross" // MA50 rises above MA200
	DeathCross  CrossKind = "Death Cross"  // MA50 falls below MA200
)

// CrossEvent is a single MA50/MA200 crossover, derived from a series.
// Never stored independently — always recomputed from the bars.
type CrossEvent struct {
	Date  time.Time `json:"date"`
	Kind  CrossKind `json:"kind"`
	Close float64   `json:"close"` // close price on the crossing bar
}

// Divergence classifies price/RSI disagreement at recent local extrema.
type Divergence string

const (
	DivergenceNone    Divergence = "None"
	BullishDivergence Divergence = "Bullish Divergence"
	BearishDivergence Divergence = "Bearish Divergence"
)

// Action is a discrete recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// Recommendation pairs an action with the short reason the decision
// table produced it for. Stateless — recomputed on every evaluation.
type Recommendation struct {
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// ScanRow is one retained symbol in a universe scan report.
// PERatio is nil when the metadata provider had no value (renders "N/A").
type ScanRow struct {
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	CrossKind     CrossKind  `json:"cross_kind"`
	CrossDate     time.Time  `json:"cross_date"`
	CrossPrice    float64    `json:"cross_price"`
	CurrentPrice  float64    `json:"current_price"`
	ChangePct     float64    `json:"change_pct"` // % change since the cross
	RSI           float64    `json:"rsi"`
	PERatio       *float64   `json:"pe_ratio,omitempty"`
	ROIPct        float64    `json:"roi_pct"`
	Divergence    Divergence `json:"divergence"`
	Recommendation Recommendation `json:"recommendation"`
}
