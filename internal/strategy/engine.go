package strategy

import (
	"time"

	"RSITracker/internal/model"
)

// Thresholds are the RSI zone boundaries. Both are exclusive.
type Thresholds struct {
	Overbought float64
	Oversold   float64
}

// DefaultThresholds maps RSI > 70 to Overbought and RSI < 30 to Oversold.
var DefaultThresholds = Thresholds{Overbought: 70, Oversold: 30}

// Classify maps an RSI value to its zone using DefaultThresholds.
func Classify(rsi float64) model.Classification {
	return DefaultThresholds.Classify(rsi)
}

// Classify maps an RSI value to its zone.
func (t Thresholds) Classify(rsi float64) model.Classification {
	switch {
	case rsi > t.Overbought:
		return model.Overbought
	case rsi < t.Oversold:
		return model.Oversold
	default:
		return model.Neutral
	}
}

// signalFor maps the zone being entered to a signal type.
func signalFor(to model.Classification) model.SignalType {
	switch to {
	case model.Oversold:
		return model.SignalBuy
	case model.Overbought:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

// Evaluate compares a fresh reading with the previous one for the same symbol
// and returns a Signal when the classification changed. Readings without an
// RSI never produce a signal, and neither does the first reading of a symbol.
func Evaluate(prev, cur *model.IndicatorReading) *model.Signal {
	if cur == nil || prev == nil || !cur.HasRSI() || !prev.HasRSI() || cur.Stale {
		return nil
	}
	if prev.Classification == cur.Classification {
		return nil
	}
	at := cur.ComputedAt
	if at.IsZero() {
		at = time.Now()
	}
	return &model.Signal{
		Symbol:    cur.Symbol,
		Type:      signalFor(cur.Classification),
		From:      prev.Classification,
		To:        cur.Classification,
		RSI:       cur.RSI,
		Price:     cur.Price,
		EmittedAt: at,
	}
}
