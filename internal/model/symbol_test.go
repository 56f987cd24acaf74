package model

import (
	"errors"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"  msft \n", "MSFT", false},
		{"BRK.B", "BRK.B", false},
		{"^GSPC", "^GSPC", false},
		{"EURUSD=X", "EURUSD=X", false},
		{"", "", true},
		{"   ", "", true},
		{"AA PL", "", true},
		{"TOOLONGSYMBOL", "", true},
		{"$AAPL", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeSymbol(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSymbol) {
				t.Errorf("%q: expected ErrInvalidSymbol, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: got %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
