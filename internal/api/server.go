// Package api exposes readings and watchlist management over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"RSITracker/internal/metrics"
	"RSITracker/internal/recorder"
	"RSITracker/internal/scheduler"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Watchlist is the subset of the watchlist store used by the API.
type Watchlist interface {
	List() []string
	Contains(symbol string) bool
	Add(ctx context.Context, symbol string) (string, error)
	Remove(symbol string) bool
}

// Refresher runs manual refreshes and drops state of removed symbols.
type Refresher interface {
	RefreshNow(ctx context.Context) (*scheduler.CycleResult, error)
	Forget(symbol string)
}

// QuoteHistory serves recorded price observations.
type QuoteHistory interface {
	LatestQuotes(symbol string, limit int) ([]recorder.Quote, error)
}

// Server wraps the Echo HTTP server.
type Server struct {
	echo      *echo.Echo
	addr      string
	watchlist Watchlist
	board     *scheduler.Board
	refresher Refresher
	quotes    QuoteHistory
}

// NewServer creates the HTTP server and registers all routes. m may be nil.
func NewServer(addr string, wl Watchlist, board *scheduler.Board, ref Refresher, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(recoverer())
	e.Use(requestLogging())

	s := &Server{echo: e, addr: addr, watchlist: wl, board: board, refresher: ref}

	e.GET("/healthz", s.health)
	g := e.Group("/api")
	g.GET("/readings", s.listReadings)
	g.GET("/readings/:symbol", s.getReading)
	g.GET("/watchlist", s.listWatchlist)
	g.POST("/watchlist", s.addSymbol)
	g.DELETE("/watchlist/:symbol", s.removeSymbol)
	g.POST("/refresh", s.refresh)
	g.GET("/quotes/:symbol", s.quoteHistory)
	e.GET("/ws/readings", s.streamReadings)

	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	return s
}

// SetQuoteHistory enables the quote history endpoint.
func (s *Server) SetQuoteHistory(h QuoteHistory) { s.quotes = h }

// Start starts the HTTP server in the background.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("http request")
			return nil
		}
	}
}

func recoverer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("uri", c.Request().RequestURI).Msg("handler panic")
					err = errorResponse(c, http.StatusInternalServerError, "internal error")
				}
			}()
			return next(c)
		}
	}
}
