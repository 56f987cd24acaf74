package calculator

import (
	"errors"

	"RSITracker/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverages returns the SMA of the closes for each requested period.
// Periods without enough data are left out of the result.
func MovingAverages(bars []model.OHLCV, periods ...int) map[int]float64 {
	closes := model.Closes(bars)
	out := make(map[int]float64, len(periods))
	for _, p := range periods {
		if ma, err := CalculateSMA(closes, p); err == nil {
			out[p] = ma
		}
	}
	return out
}
