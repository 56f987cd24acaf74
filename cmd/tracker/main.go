package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RSITracker/internal/api"
	"RSITracker/internal/cache"
	"RSITracker/internal/collector"
	"RSITracker/internal/config"
	"RSITracker/internal/display"
	"RSITracker/internal/logger"
	"RSITracker/internal/metrics"
	"RSITracker/internal/notifier"
	"RSITracker/internal/recorder"
	"RSITracker/internal/scheduler"
	"RSITracker/internal/strategy"
	"RSITracker/internal/watchlist"

	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (env CONFIG_PATH)")
	once       = flag.Bool("once", false, "Run a single refresh cycle, print the table and exit")
	importPath = flag.String("import", "", "Import symbols from a CSV or text file into the watchlist and exit")
	table      = flag.Bool("table", false, "Print the readings table to stdout after every refresh interval")
)

func main() {
	flag.Parse()

	cfgPath := *configPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("RSITracker starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wl := watchlist.Open(cfg.Watchlist.File)
	if *importPath != "" {
		res, err := wl.Import(*importPath)
		if err != nil {
			log.Fatal().Err(err).Str("file", *importPath).Msg("import watchlist")
		}
		fmt.Printf("added %d, duplicates %d, invalid %d\n", len(res.Added), len(res.Duplicates), len(res.Invalid))
		return
	}
	if len(wl.List()) == 0 && len(cfg.Watchlist.Seed) > 0 {
		res := wl.AddMany(cfg.Watchlist.Seed)
		log.Info().Strs("symbols", res.Added).Msg("seeded empty watchlist")
	}

	c, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init cache")
	}
	if c != nil {
		defer c.Close()
	}

	fetcher := newFetcher(cfg, c)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	th := strategy.Thresholds{Overbought: cfg.Indicator.Overbought, Oversold: cfg.Indicator.Oversold}
	col := collector.NewCollector(fetcher, cfg.DataSource.HistoryDays, cfg.Indicator.Period, th)
	if cfg.Watchlist.ValidateOnAdd {
		wl.SetValidator(col.Validate)
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	m := metrics.New()
	board := scheduler.NewBoard()
	board.OnDrop = m.SubscriberDrops.Inc

	sched := scheduler.NewScheduler(ctx, col, wl, board, rec, scheduler.Options{
		Interval:         cfg.Schedule.Interval,
		FetchTimeout:     cfg.Schedule.FetchTimeout,
		MaxConcurrency:   cfg.Schedule.MaxConcurrency,
		MaxBackoffCycles: cfg.Schedule.MaxBackoffCycles,
		RunOnStart:       cfg.Schedule.RunOnStart,
	})
	sched.Metrics = m

	if *once {
		if _, err := sched.RefreshNow(ctx); err != nil {
			log.Fatal().Err(err).Msg("refresh")
		}
		if err := display.Render(os.Stdout, board.Snapshot(wl.List()), time.Now()); err != nil {
			log.Error().Err(err).Msg("render table")
		}
		return
	}

	if cfg.Telegram.Enabled {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Error().Err(err).Msg("init telegram, alerts disabled")
		} else {
			sched.Notifier = tn
			cmds := &notifier.Commands{Watchlist: wl, Board: board, Refresher: sched}
			go tn.StartPolling(ctx, cmds.Handle)
			log.Info().Msg("telegram polling started")
		}
	}

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("start scheduler")
	}

	var srv *api.Server
	if cfg.Server.Enabled {
		srv = api.NewServer(cfg.Server.Addr, wl, board, sched, m)
		if qh, ok := rec.(api.QuoteHistory); ok {
			srv.SetQuoteHistory(qh)
		}
		srv.Start()
	}

	if *table {
		go printTable(ctx, board, wl, cfg.Schedule.Interval)
	}

	log.Info().Int("symbols", len(wl.List())).Msg("RSITracker is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("stop http server")
		}
		done()
	}
	sched.Stop()
	log.Info().Msg("RSITracker stopped")
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	case "memory":
		return cache.NewMemory(), nil
	default:
		return nil, nil
	}
}

func newFetcher(cfg *config.Config, c cache.Cache) collector.Fetcher {
	var f collector.Fetcher
	if cfg.DataSource.Provider == "rest" {
		f = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	} else {
		f = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	if c == nil || cfg.Cache.TTL <= 0 {
		return f
	}
	return collector.NewCachedFetcher(f, c, cfg.Cache.TTL)
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func printTable(ctx context.Context, board *scheduler.Board, wl *watchlist.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Println()
			if err := display.Render(os.Stdout, board.Snapshot(wl.List()), now); err != nil {
				log.Error().Err(err).Msg("render table")
			}
		}
	}
}
