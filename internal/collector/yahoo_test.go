package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const chartOK = `{"chart":{"result":[{"meta":{"regularMarketPrice":103.5,"longName":"Apple Inc.","shortName":"Apple"},
"timestamp":[1700000300,1700000000,1700000100,1700000200],
"indicators":{"quote":[{"open":[4,1,2,null],"high":[4,1,2,null],"low":[4,1,2,null],
"close":[104,101,102,null],"volume":[40,10,20,null]}]}}],"error":null}}`

const chartNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newYahooServer(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	return f
}

func TestYahoo_FetchDailyBars(t *testing.T) {
	var gotPath, gotQuery string
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, chartOK)
	})

	bars, err := f.FetchDailyBars(context.Background(), "SPX", 2)
	if err != nil {
		t.Fatalf("FetchDailyBars: %v", err)
	}
	if gotPath != "/v8/finance/chart/^GSPC" {
		t.Errorf("expected mapped symbol in path, got %s", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=1d") || !strings.Contains(gotQuery, "range=5d") {
		t.Errorf("unexpected query %s", gotQuery)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped and trimmed to 2, got %d", len(bars))
	}
	if bars[0].Close != 102 || bars[1].Close != 104 {
		t.Errorf("expected chronological closes 102,104 got %v,%v", bars[0].Close, bars[1].Close)
	}
}

func TestYahoo_FetchCurrentPrice_UsesMeta(t *testing.T) {
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, chartOK) })
	p, err := f.FetchCurrentPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchCurrentPrice: %v", err)
	}
	if p != 103.5 {
		t.Errorf("expected meta price 103.5, got %f", p)
	}
}

func TestYahoo_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"404 status", http.StatusNotFound, chartNotFound},
		{"error payload", http.StatusOK, chartNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			if _, err := f.FetchDailyBars(context.Background(), "ZZZZ", 30); !errors.Is(err, ErrNoData) {
				t.Errorf("expected ErrNoData, got %v", err)
			}
		})
	}
}

func TestYahoo_ServerError(t *testing.T) {
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	_, err := f.FetchDailyBars(context.Background(), "AAPL", 30)
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestYahoo_FetchName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"long name", chartOK, "Apple Inc."},
		{"short name fallback", strings.Replace(chartOK, `"longName":"Apple Inc.",`, "", 1), "Apple"},
		{"no name", strings.Replace(chartOK, `"longName":"Apple Inc.","shortName":"Apple"`, `"currency":"USD"`, 1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, tt.body) })
			got, err := f.FetchName(context.Background(), "AAPL")
			if err != nil {
				t.Fatalf("FetchName: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
