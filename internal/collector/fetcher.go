package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"RSITracker/internal/model"
)

// ErrNoData is returned when the provider knows nothing about a symbol.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// NameFetcher is implemented by fetchers that can resolve a display name
// for a symbol. An empty name with a nil error means the provider has none.
type NameFetcher interface {
	FetchName(ctx context.Context, symbol string) (string, error)
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
