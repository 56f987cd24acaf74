package calculator

import (
	"errors"
	"fmt"
	"math"

	"RSITracker/internal/model"
)

// DefaultRSIPeriod is the standard RSI lookback.
const DefaultRSIPeriod = 14

// ErrInsufficientData is returned when a series is too short for the lookback.
var ErrInsufficientData = errors.New("insufficient price history")

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 bars. A flat series yields 50.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	return CalculateRSIFromCloses(model.Closes(bars), period)
}

// CalculateRSIFromCloses is CalculateRSI over raw close prices.
func CalculateRSIFromCloses(closes []float64, period int) (float64, error) {
	series, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// RSISeries returns the RSI after each close from index period onwards, so
// the result has len(closes)-period values and ends with the latest RSI.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("%w: have %d closes, need %d", ErrInsufficientData, len(closes), period+1)
	}
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("close %d is not finite", i)
		}
	}

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(closes)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	// Wilder smoothing for remaining closes
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

// MultiPeriodRSI computes the RSI for each period. Periods without enough
// history are left out of the result.
func MultiPeriodRSI(closes []float64, periods ...int) map[int]float64 {
	out := make(map[int]float64, len(periods))
	for _, p := range periods {
		if rsi, err := CalculateRSIFromCloses(closes, p); err == nil {
			out[p] = rsi
		}
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return clamp(100.0-100.0/(1.0+rs), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
