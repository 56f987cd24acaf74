package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"RSITracker/internal/metrics"
	"RSITracker/internal/model"
	"RSITracker/internal/recorder"
	"RSITracker/internal/strategy"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// signalQueueSize bounds the signals waiting for the notifier.
const signalQueueSize = 64

// ReadingSource computes the reading for one symbol.
type ReadingSource interface {
	Collect(ctx context.Context, symbol string) (*model.IndicatorReading, error)
}

// SymbolSource lists the symbols to refresh.
type SymbolSource interface {
	List() []string
	Contains(symbol string) bool
}

// SignalNotifier delivers classification transitions.
type SignalNotifier interface {
	NotifySignal(ctx context.Context, sig *model.Signal) error
}

// Options tunes the refresh loop.
type Options struct {
	Interval         time.Duration
	FetchTimeout     time.Duration
	MaxConcurrency   int
	MaxBackoffCycles int
	RunOnStart       bool
}

// CycleResult summarises one refresh cycle.
type CycleResult struct {
	ID       string          `json:"id"`
	Trigger  string          `json:"trigger"`
	Symbols  int             `json:"symbols"`
	OK       int             `json:"ok"`
	NoData   int             `json:"no_data"`
	Failed   int             `json:"failed"`
	Skipped  int             `json:"skipped"`
	Signals  []*model.Signal `json:"signals,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

type fetchResult struct {
	symbol  string
	reading *model.IndicatorReading
	err     error
}

// Scheduler runs refresh cycles on a fixed cadence and publishes readings
// to the Board.
type Scheduler struct {
	Cron      *cron.Cron
	Collector ReadingSource
	Watchlist SymbolSource
	Board     *Board
	Notifier  SignalNotifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics

	opts    Options
	ctx     context.Context
	cancel  context.CancelFunc
	cycleMu sync.Mutex
	applyMu sync.Mutex // serialises result application with Forget

	signals      chan *model.Signal
	deliverOnce  sync.Once
	delivering   atomic.Bool
	deliveryDone chan struct{}

	mu       sync.Mutex
	failures map[string]int
	skip     map[string]int
	now      func() time.Time
}

// NewScheduler creates a new Scheduler. Notifier and Metrics may be nil.
func NewScheduler(ctx context.Context, col ReadingSource, wl SymbolSource, board *Board, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		Cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
		Collector: col,
		Watchlist: wl,
		Board:     board,
		Recorder:  rec,
		opts:      opts,
		ctx:       cctx,
		cancel:    cancel,
		failures:  make(map[string]int),
		skip:      make(map[string]int),
		now:       time.Now,

		signals:      make(chan *model.Signal, signalQueueSize),
		deliveryDone: make(chan struct{}),
	}
}

// Start registers the refresh job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if s.opts.Interval < time.Second {
		return fmt.Errorf("refresh interval %s below 1s", s.opts.Interval)
	}
	spec := "@every " + s.opts.Interval.String()
	if _, err := s.Cron.AddFunc(spec, func() {
		if _, err := s.RunCycle(s.ctx, TriggerSchedule); err != nil {
			log.Error().Err(err).Msg("scheduled refresh")
		}
	}); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.startDelivery()
	s.Cron.Start()
	log.Info().Dur("interval", s.opts.Interval).Msg("scheduler started")

	if s.opts.RunOnStart {
		go func() {
			if _, err := s.RunCycle(s.ctx, TriggerSchedule); err != nil {
				log.Error().Err(err).Msg("initial refresh")
			}
		}()
	}
	return nil
}

// Stop cancels in-flight fetches and waits for a running cycle and the
// signal delivery goroutine to finish. Queued signals are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.Cron.Stop().Done()
	if s.delivering.Load() {
		<-s.deliveryDone
	}
	log.Info().Msg("scheduler stopped")
}

// RefreshNow runs a cycle immediately, waiting for any running one first.
func (s *Scheduler) RefreshNow(ctx context.Context) (*CycleResult, error) {
	return s.RunCycle(ctx, TriggerManual)
}

// Forget drops all state held for a symbol removed from the watchlist.
// A result for symbol being applied concurrently finishes first.
func (s *Scheduler) Forget(symbol string) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.Board.Remove(symbol)
	s.mu.Lock()
	delete(s.failures, symbol)
	delete(s.skip, symbol)
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.ForgetSymbol(symbol)
	}
}

// RunCycle fetches every watchlist symbol concurrently and applies the
// results to the Board. A failure for one symbol never affects another.
func (s *Scheduler) RunCycle(ctx context.Context, trigger string) (*CycleResult, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	res := &CycleResult{ID: uuid.NewString(), Trigger: trigger}
	symbols := s.Watchlist.List()
	res.Symbols = len(symbols)
	if s.Metrics != nil {
		s.Metrics.WatchlistSize.Set(float64(len(symbols)))
	}

	due := s.dueSymbols(symbols)
	res.Skipped = len(symbols) - len(due)

	results := make(chan fetchResult, len(due))
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.consume(ctx, res, results)
	}()

	sem := make(chan struct{}, s.opts.MaxConcurrency)
	var wg sync.WaitGroup
	for _, sym := range due {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- fetchResult{symbol: sym, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
			defer cancel()
			r, err := s.Collector.Collect(fctx, sym)
			results <- fetchResult{symbol: sym, reading: r, err: err}
		}(sym)
	}
	wg.Wait()
	close(results)
	<-done

	for _, sig := range res.Signals {
		s.emit(sig)
	}

	res.Duration = s.now().Sub(start)
	s.finishCycle(res, start)
	return res, nil
}

// consume is the single writer applying fetch results to the Board.
func (s *Scheduler) consume(ctx context.Context, res *CycleResult, results <-chan fetchResult) {
	for fr := range results {
		s.apply(ctx, res, fr)
	}
}

// apply publishes one fetch result. The membership check and the Board
// update happen under applyMu so a concurrent Forget cannot be undone.
func (s *Scheduler) apply(ctx context.Context, res *CycleResult, fr fetchResult) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if !s.Watchlist.Contains(fr.symbol) {
		return
	}
	if fr.err != nil {
		if ctx.Err() != nil && errors.Is(fr.err, ctx.Err()) {
			return
		}
		res.Failed++
		s.applyFailure(res.ID, fr.symbol, fr.err)
		return
	}

	s.clearFailure(fr.symbol)
	cur := *fr.reading
	prev, hadPrev := s.Board.Get(fr.symbol)
	s.Board.Put(cur)

	switch cur.Status {
	case model.StatusNoData:
		res.NoData++
	default:
		res.OK++
	}
	if hadPrev {
		if sig := strategy.Evaluate(&prev, &cur); sig != nil {
			res.Signals = append(res.Signals, sig)
		}
	}
	s.observe(&cur)

	if err := s.Recorder.RecordQuote(&recorder.Quote{
		CycleID:       res.ID,
		Symbol:        cur.Symbol,
		Price:         cur.Price,
		Change:        cur.Change,
		ChangePercent: cur.ChangePercent,
		Volume:        cur.Volume,
		FetchedAt:     cur.ComputedAt,
	}); err != nil {
		log.Error().Err(err).Str("symbol", cur.Symbol).Msg("record quote")
	}
}

// applyFailure keeps the previous values and flags the reading stale.
func (s *Scheduler) applyFailure(cycleID, symbol string, err error) {
	n := s.recordFailure(symbol)
	log.Warn().Err(err).Str("symbol", symbol).Int("consecutive", n).Msg("refresh failed")

	r, ok := s.Board.Get(symbol)
	if !ok {
		r = model.IndicatorReading{Symbol: symbol}
	}
	r.Status = model.StatusError
	r.Stale = true
	r.Error = err.Error()
	s.Board.Put(r)

	if s.Metrics != nil {
		s.Metrics.FetchesTotal.WithLabelValues(string(model.StatusError)).Inc()
	}
	if rerr := s.Recorder.RecordFailure(&recorder.FetchFailure{
		CycleID:     cycleID,
		Symbol:      symbol,
		Error:       err.Error(),
		FailedAt:    s.now(),
		Consecutive: n,
	}); rerr != nil {
		log.Error().Err(rerr).Str("symbol", symbol).Msg("record fetch failure")
	}
}

func (s *Scheduler) observe(r *model.IndicatorReading) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.FetchesTotal.WithLabelValues(string(r.Status)).Inc()
	s.Metrics.Price.WithLabelValues(r.Symbol).Set(r.Price)
	if r.HasRSI() {
		s.Metrics.RSI.WithLabelValues(r.Symbol).Set(r.RSI)
	}
}

// emit logs sig and queues it for the notifier without blocking the cycle.
func (s *Scheduler) emit(sig *model.Signal) {
	log.Info().
		Str("symbol", sig.Symbol).
		Str("signal", string(sig.Type)).
		Str("from", string(sig.From)).
		Str("to", string(sig.To)).
		Float64("rsi", sig.RSI).
		Msg("classification changed")
	if s.Metrics != nil {
		s.Metrics.SignalsTotal.WithLabelValues(string(sig.Type)).Inc()
	}
	if s.Notifier == nil {
		return
	}
	s.startDelivery()
	select {
	case s.signals <- sig:
	default:
		log.Warn().Str("symbol", sig.Symbol).Msg("signal queue full, dropping signal")
		if s.Metrics != nil {
			s.Metrics.SignalDrops.Inc()
		}
	}
}

func (s *Scheduler) startDelivery() {
	s.deliverOnce.Do(func() {
		s.delivering.Store(true)
		go s.deliver()
	})
}

// deliver hands queued signals to the notifier one at a time until Stop.
func (s *Scheduler) deliver() {
	defer close(s.deliveryDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case sig := <-s.signals:
			if s.Notifier == nil {
				continue
			}
			if err := s.Notifier.NotifySignal(s.ctx, sig); err != nil {
				log.Error().Err(err).Str("symbol", sig.Symbol).Msg("send signal")
			}
		}
	}
}

func (s *Scheduler) finishCycle(res *CycleResult, start time.Time) {
	log.Info().
		Str("cycle", res.ID).
		Str("trigger", res.Trigger).
		Int("symbols", res.Symbols).
		Int("ok", res.OK).
		Int("no_data", res.NoData).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Dur("took", res.Duration).
		Msg("refresh cycle done")

	if s.Metrics != nil {
		s.Metrics.CyclesTotal.WithLabelValues(res.Trigger).Inc()
		s.Metrics.CycleDuration.Observe(res.Duration.Seconds())
		s.Metrics.SkippedTotal.Add(float64(res.Skipped))
	}
	if err := s.Recorder.RecordCycle(&recorder.CycleRecord{
		ID:        res.ID,
		StartedAt: start,
		Duration:  res.Duration,
		Symbols:   res.Symbols,
		OK:        res.OK,
		Failed:    res.Failed,
		NoData:    res.NoData,
		Trigger:   res.Trigger,
	}); err != nil {
		log.Error().Err(err).Msg("record cycle")
	}
}

// dueSymbols filters out symbols still backing off after failures.
func (s *Scheduler) dueSymbols(symbols []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if s.skip[sym] > 0 {
			s.skip[sym]--
			continue
		}
		due = append(due, sym)
	}
	return due
}

// recordFailure bumps the failure count and schedules the backoff:
// after n consecutive failures skip min(2^(n-1)-1, MaxBackoffCycles) cycles.
func (s *Scheduler) recordFailure(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[symbol]++
	n := s.failures[symbol]
	s.skip[symbol] = backoffCycles(n, s.opts.MaxBackoffCycles)
	return n
}

func (s *Scheduler) clearFailure(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, symbol)
	delete(s.skip, symbol)
}

func backoffCycles(failures, max int) int {
	if max <= 0 || failures <= 1 {
		return 0
	}
	skip := 1
	for i := 1; i < failures-1 && skip <= max; i++ {
		skip = skip*2 + 1
	}
	if skip > max {
		return max
	}
	return skip
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
