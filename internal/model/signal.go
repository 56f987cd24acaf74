package model

import "time"

// SignalType indicates the direction of a classification transition.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Signal is emitted when a symbol's classification changes between cycles.
type Signal struct {
	Symbol    string         `json:"symbol"`
	Type      SignalType     `json:"type"`
	From      Classification `json:"from"`
	To        Classification `json:"to"`
	RSI       float64        `json:"rsi"`
	Price     float64        `json:"price"`
	EmittedAt time.Time      `json:"emitted_at"`
}
