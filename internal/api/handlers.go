package api

import (
	"errors"
	"net/http"
	"strconv"

	"RSITracker/internal/model"
	"RSITracker/internal/recorder"
	"RSITracker/internal/watchlist"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	defaultQuoteLimit = 50
	maxQuoteLimit     = 500
)

type addSymbolRequest struct {
	Symbol string `json:"symbol" validate:"required,max=16"`
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) listReadings(c echo.Context) error {
	return dataResponse(c, http.StatusOK, s.board.Snapshot(s.watchlist.List()))
}

func (s *Server) getReading(c echo.Context) error {
	sym, err := model.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	if !s.watchlist.Contains(sym) {
		return errorResponse(c, http.StatusNotFound, sym+" is not on the watchlist")
	}
	return dataResponse(c, http.StatusOK, s.board.Snapshot([]string{sym})[0])
}

func (s *Server) listWatchlist(c echo.Context) error {
	return dataResponse(c, http.StatusOK, s.watchlist.List())
}

func (s *Server) addSymbol(c echo.Context) error {
	req := &addSymbolRequest{}
	if err := bindAndValidate(c, req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	sym, err := s.watchlist.Add(c.Request().Context(), req.Symbol)
	switch {
	case errors.Is(err, watchlist.ErrDuplicate):
		return errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalidSymbol):
		return errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("add symbol")
		return errorResponse(c, http.StatusBadGateway, err.Error())
	}
	log.Info().Str("symbol", sym).Msg("symbol added")
	return dataResponse(c, http.StatusCreated, map[string]string{"symbol": sym})
}

func (s *Server) removeSymbol(c echo.Context) error {
	sym, err := model.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	if !s.watchlist.Remove(sym) {
		return errorResponse(c, http.StatusNotFound, sym+" is not on the watchlist")
	}
	s.refresher.Forget(sym)
	log.Info().Str("symbol", sym).Msg("symbol removed")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) refresh(c echo.Context) error {
	res, err := s.refresher.RefreshNow(c.Request().Context())
	if err != nil {
		return errorResponse(c, http.StatusServiceUnavailable, err.Error())
	}
	return dataResponse(c, http.StatusOK, res)
}

func (s *Server) quoteHistory(c echo.Context) error {
	if s.quotes == nil {
		return errorResponse(c, http.StatusNotImplemented, "quote history is not recorded")
	}
	sym, err := model.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	limit := defaultQuoteLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxQuoteLimit {
			return errorResponse(c, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxQuoteLimit))
		}
		limit = n
	}

	quotes, err := s.quotes.LatestQuotes(sym, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", sym).Msg("load quote history")
		return errorResponse(c, http.StatusInternalServerError, "could not load quote history")
	}
	if quotes == nil {
		quotes = []recorder.Quote{}
	}
	return dataResponse(c, http.StatusOK, quotes)
}
