package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"RSITracker/internal/calculator"
	"RSITracker/internal/model"
	"RSITracker/internal/strategy"

	"github.com/rs/zerolog/log"
)

// MockFetcher returns controllable fixed data for development and testing.
// Errs makes every call for the given symbol fail.
type MockFetcher struct {
	mu        sync.Mutex
	Price     float64
	DailyData map[string][]model.OHLCV
	Errs      map[string]error
	Names     map[string]string
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	if bars, ok := m.DailyData[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err := m.Errs[symbol]; err != nil {
		return 0, err
	}
	if bars, ok := m.DailyData[symbol]; ok && len(bars) > 0 {
		return bars[len(bars)-1].Close, nil
	}
	return m.Price, nil
}

func (m *MockFetcher) FetchName(_ context.Context, symbol string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Names[symbol], nil
}

// CallCount returns the number of fetch calls made so far.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Secondary RSI lookbacks reported alongside the configured period.
var extraRSIPeriods = []int{21, 50}

// avgVolumeSessions is the window for the reading's average volume.
const avgVolumeSessions = 20

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher     Fetcher
	HistoryDays int
	Period      int
	Thresholds  strategy.Thresholds
	now         func() time.Time

	namesMu sync.Mutex
	names   map[string]string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, historyDays, period int, th strategy.Thresholds) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		HistoryDays: historyDays,
		Period:      period,
		Thresholds:  th,
		now:         time.Now,
		names:       make(map[string]string),
	}
}

// Series fetches the daily history and current price for symbol. A failed
// price lookup falls back to the last close unless ctx is done.
func (c *Collector) Series(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch daily bars: %w", ErrNoData)
	}

	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch current price: %w", err)
		}
		log.Warn().Err(err).Str("symbol", symbol).Msg("current price unavailable, using last close")
		price = bars[len(bars)-1].Close
	}

	return &model.PriceSeries{
		Symbol:       symbol,
		DailyBars:    bars,
		CurrentPrice: price,
		FetchedAt:    c.now(),
	}, nil
}

// Collect fetches market data for symbol and computes its reading.
// Insufficient history is reported through the reading's status, not as an error.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.IndicatorReading, error) {
	series, err := c.Series(ctx, symbol)
	if err != nil {
		return nil, err
	}

	reading := &model.IndicatorReading{
		Symbol:     symbol,
		Name:       c.name(ctx, symbol),
		Price:      series.CurrentPrice,
		Volume:     series.LastVolume(),
		AvgVolume:  series.AverageVolume(avgVolumeSessions),
		Status:     model.StatusOK,
		ComputedAt: series.FetchedAt,
	}
	reading.Change, reading.ChangePercent = calculator.PriceChange(series.DailyBars, series.CurrentPrice)

	mas := calculator.MovingAverages(series.DailyBars, 20, 50)
	reading.MA20, reading.MA50 = mas[20], mas[50]

	closes := series.Closes()
	rsi, err := calculator.CalculateRSIFromCloses(closes, c.Period)
	if errors.Is(err, calculator.ErrInsufficientData) {
		reading.Status = model.StatusNoData
		reading.Error = err.Error()
		return reading, nil
	}
	if err != nil {
		return nil, fmt.Errorf("calculate rsi: %w", err)
	}
	reading.RSI = rsi
	reading.Classification = c.Thresholds.Classify(rsi)
	reading.RSIByPeriod = calculator.MultiPeriodRSI(closes, append([]int{c.Period}, extraRSIPeriods...)...)
	reading.Divergence = calculator.Divergence(closes, c.Period, calculator.DefaultDivergenceWindow)
	return reading, nil
}

// name resolves and remembers the display name for symbol. Lookups that
// fail are retried on the next collection.
func (c *Collector) name(ctx context.Context, symbol string) string {
	c.namesMu.Lock()
	n, ok := c.names[symbol]
	c.namesMu.Unlock()
	if ok {
		return n
	}
	nf, ok := c.Fetcher.(NameFetcher)
	if !ok {
		return ""
	}
	n, err := nf.FetchName(ctx, symbol)
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("company name unavailable")
		return ""
	}
	c.namesMu.Lock()
	c.names[symbol] = n
	c.namesMu.Unlock()
	return n
}

// Validate normalises symbol and checks that the provider has data for it.
// Unknown or delisted symbols yield model.ErrInvalidSymbol; transport
// failures are returned as-is so callers can tell them apart.
func (c *Collector) Validate(ctx context.Context, symbol string) (string, error) {
	s, err := model.NormalizeSymbol(symbol)
	if err != nil {
		return "", fmt.Errorf("%q: %w", symbol, err)
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, s, 5)
	if errors.Is(err, ErrNoData) || (err == nil && len(bars) == 0) {
		return "", fmt.Errorf("%s: could not find data: %w", s, model.ErrInvalidSymbol)
	}
	if err != nil {
		return "", fmt.Errorf("validate %s: %w", s, err)
	}
	return s, nil
}
