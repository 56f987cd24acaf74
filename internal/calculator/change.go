package calculator

import "RSITracker/internal/model"

// PriceChange returns the absolute and percent change of current against the
// previous session's close. The last bar is taken to be the current session.
func PriceChange(bars []model.OHLCV, current float64) (change, percent float64) {
	if len(bars) < 2 {
		return 0, 0
	}
	prev := bars[len(bars)-2].Close
	if prev == 0 {
		return 0, 0
	}
	change = current - prev
	return change, change / prev * 100
}
