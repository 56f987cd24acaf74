package calculator

import "RSITracker/internal/model"

// DefaultDivergenceWindow is the number of sessions compared for divergence.
const DefaultDivergenceWindow = 20

// Divergence compares the price trend with the RSI trend over the last
// window sessions, using least-squares slopes. Falling price with rising
// RSI while RSI is below 40 is bullish; rising price with falling RSI while
// RSI is above 60 is bearish. Too little history yields DivergenceNone.
func Divergence(closes []float64, period, window int) model.Divergence {
	if window < 2 {
		return model.DivergenceNone
	}
	rsi, err := RSISeries(closes, period)
	if err != nil || len(rsi) < window {
		return model.DivergenceNone
	}
	priceSlope := slope(closes[len(closes)-window:])
	rsiSlope := slope(rsi[len(rsi)-window:])
	last := rsi[len(rsi)-1]

	switch {
	case priceSlope < 0 && rsiSlope > 0 && last < 40:
		return model.DivergenceBullish
	case priceSlope > 0 && rsiSlope < 0 && last > 60:
		return model.DivergenceBearish
	default:
		return model.DivergenceNone
	}
}

// slope returns the least-squares slope of ys against their index.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
