package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Errorf("expected 4, got %f", got)
	}
	if _, err := CalculateSMA([]float64{1, 2}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestMovingAverages_SkipsShortPeriods(t *testing.T) {
	mas := MovingAverages(barsFrom(ramp(30, 1, 1)...), 20, 50)
	if _, ok := mas[50]; ok {
		t.Error("MA50 should be absent for 30 bars")
	}
	if math.Abs(mas[20]-20.5) > 1e-9 {
		t.Errorf("expected MA20 20.5, got %f", mas[20])
	}
}

func TestPriceChange(t *testing.T) {
	tests := []struct {
		name    string
		closes  []float64
		current float64
		change  float64
		percent float64
	}{
		{"up", []float64{100, 105}, 110, 10, 10},
		{"down", []float64{200, 190}, 190, -10, -5},
		{"single bar", []float64{100}, 120, 0, 0},
		{"zero previous", []float64{0, 5}, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p := PriceChange(barsFrom(tt.closes...), tt.current)
			if math.Abs(c-tt.change) > 1e-9 || math.Abs(p-tt.percent) > 1e-9 {
				t.Errorf("got (%f, %f), want (%f, %f)", c, p, tt.change, tt.percent)
			}
		})
	}
}
