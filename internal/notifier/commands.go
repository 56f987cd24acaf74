package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"RSITracker/internal/model"
	"RSITracker/internal/scheduler"
	"RSITracker/internal/watchlist"
)

// Watchlist is the subset of the watchlist store used by chat commands.
type Watchlist interface {
	List() []string
	Add(ctx context.Context, symbol string) (string, error)
	Remove(symbol string) bool
}

// Refresher runs manual refreshes and drops state of removed symbols.
type Refresher interface {
	RefreshNow(ctx context.Context) (*scheduler.CycleResult, error)
	Forget(symbol string)
}

// Commands answers chat commands against the watchlist and board.
type Commands struct {
	Watchlist Watchlist
	Board     *scheduler.Board
	Refresher Refresher
}

// Handle dispatches a command (without the leading slash) and returns the reply.
func (c *Commands) Handle(ctx context.Context, command, args string) string {
	args = strings.TrimSpace(args)
	switch strings.ToLower(command) {
	case "list":
		return FormatWatchlist(c.Watchlist.List())
	case "rsi":
		return c.readings(args)
	case "add":
		return c.add(ctx, args)
	case "remove":
		return c.remove(args)
	case "refresh":
		res, err := c.Refresher.RefreshNow(ctx)
		if err != nil {
			return "❌ Refresh failed: " + html.EscapeString(err.Error())
		}
		return FormatCycle(res)
	default:
		return helpText
	}
}

func (c *Commands) readings(args string) string {
	if args == "" {
		return FormatReadings(c.Board.Snapshot(c.Watchlist.List()))
	}
	sym, err := model.NormalizeSymbol(args)
	if err != nil {
		return "❌ Invalid symbol: " + html.EscapeString(args)
	}
	r, ok := c.Board.Get(sym)
	if !ok {
		return fmt.Sprintf("No reading for %s yet.", html.EscapeString(sym))
	}
	return FormatReading(&r)
}

func (c *Commands) add(ctx context.Context, args string) string {
	if args == "" {
		return "Usage: /add SYMBOL"
	}
	sym, err := c.Watchlist.Add(ctx, args)
	switch {
	case errors.Is(err, watchlist.ErrDuplicate):
		return fmt.Sprintf("%s is already on the watchlist.", html.EscapeString(sym))
	case errors.Is(err, model.ErrInvalidSymbol):
		return "❌ Invalid symbol: " + html.EscapeString(args)
	case err != nil:
		return "❌ Could not add symbol: " + html.EscapeString(err.Error())
	}
	return fmt.Sprintf("✅ Added %s. It will be refreshed on the next cycle.", html.EscapeString(sym))
}

func (c *Commands) remove(args string) string {
	if args == "" {
		return "Usage: /remove SYMBOL"
	}
	sym, err := model.NormalizeSymbol(args)
	if err != nil {
		return "❌ Invalid symbol: " + html.EscapeString(args)
	}
	if !c.Watchlist.Remove(sym) {
		return fmt.Sprintf("%s is not on the watchlist.", html.EscapeString(sym))
	}
	c.Refresher.Forget(sym)
	return fmt.Sprintf("🗑 Removed %s.", html.EscapeString(sym))
}
