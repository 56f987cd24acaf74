package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds raw price data for one symbol.
type PriceSeries struct {
	Symbol       string
	DailyBars    []OHLCV
	CurrentPrice float64
	FetchedAt    time.Time
}

// Closes returns the close prices of bars in order.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Closes returns the close prices of the series in order.
func (p *PriceSeries) Closes() []float64 { return Closes(p.DailyBars) }

// AverageVolume returns the mean volume over the last n bars, or over all
// bars when fewer are available.
func (p *PriceSeries) AverageVolume(n int) float64 {
	bars := p.DailyBars
	if n > 0 && len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

// LastVolume returns the volume of the most recent bar, or 0.
func (p *PriceSeries) LastVolume() float64 {
	if len(p.DailyBars) == 0 {
		return 0
	}
	return p.DailyBars[len(p.DailyBars)-1].Volume
}
