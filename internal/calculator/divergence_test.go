package calculator

import (
	"testing"

	"RSITracker/internal/model"
)

// crashThenDrift moves sharply in dir for 15 sessions, then zigzags with a
// smaller net drift in the same direction, so RSI recovers against price.
func crashThenDrift(dir float64) []float64 {
	closes := []float64{100}
	for i := 0; i < 15; i++ {
		closes = append(closes, closes[len(closes)-1]+dir*5)
	}
	for i := 0; i < 30; i++ {
		step := dir * 0.5
		if i%2 == 1 {
			step = -dir * 0.3
		}
		closes = append(closes, closes[len(closes)-1]+step)
	}
	return closes
}

func TestDivergence(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   model.Divergence
	}{
		{"falling price rising rsi", crashThenDrift(-1), model.DivergenceBullish},
		{"rising price falling rsi", crashThenDrift(1), model.DivergenceBearish},
		{"steady trend", ramp(60, 100, 1), model.DivergenceNone},
		{"too short", ramp(20, 100, -1), model.DivergenceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Divergence(tt.closes, 14, DefaultDivergenceWindow); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlope(t *testing.T) {
	if s := slope([]float64{1, 3, 5, 7}); s != 2 {
		t.Errorf("expected slope 2, got %v", s)
	}
	if s := slope([]float64{4}); s != 0 {
		t.Errorf("expected slope 0 for single point, got %v", s)
	}
}
