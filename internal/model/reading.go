package model

import "time"

// Classification is the three-way RSI zone.
type Classification string

const (
	Overbought Classification = "OVERBOUGHT"
	Neutral    Classification = "NEUTRAL"
	Oversold   Classification = "OVERSOLD"
)

// ReadingStatus reports how a reading was produced in the last cycle.
type ReadingStatus string

const (
	StatusPending ReadingStatus = "pending"
	StatusOK      ReadingStatus = "ok"
	StatusNoData  ReadingStatus = "no_data"
	StatusError   ReadingStatus = "error"
)

// Divergence reports disagreement between the price and RSI trends.
type Divergence string

const (
	DivergenceNone    Divergence = ""
	DivergenceBullish Divergence = "BULLISH"
	DivergenceBearish Divergence = "BEARISH"
)

// IndicatorReading is the derived per-symbol result of a refresh cycle.
// It is recomputed every cycle and never persisted.
type IndicatorReading struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name,omitempty"`
	Price          float64         `json:"price"`
	Change         float64         `json:"change"`
	ChangePercent  float64         `json:"change_percent"`
	Volume         float64         `json:"volume"`
	AvgVolume      float64         `json:"avg_volume,omitempty"`
	RSI            float64         `json:"rsi"`
	RSIByPeriod    map[int]float64 `json:"rsi_periods,omitempty"`
	Divergence     Divergence      `json:"divergence,omitempty"`
	MA20           float64         `json:"ma20,omitempty"`
	MA50           float64         `json:"ma50,omitempty"`
	Classification Classification  `json:"classification,omitempty"`
	Status         ReadingStatus   `json:"status"`
	Stale          bool            `json:"stale"`
	Error          string          `json:"error,omitempty"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// HasRSI reports whether the reading carries a usable RSI value.
func (r *IndicatorReading) HasRSI() bool {
	return r.Classification != "" && r.Status != StatusNoData && r.Status != StatusPending
}
