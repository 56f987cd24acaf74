package notifier

import (
	"fmt"
	"html"
	"strings"

	"RSITracker/internal/model"
	"RSITracker/internal/scheduler"
)

func signalEmoji(t model.SignalType) string {
	switch t {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func zoneLabel(c model.Classification) string {
	switch c {
	case model.Overbought:
		return "Overbought"
	case model.Oversold:
		return "Oversold"
	case model.Neutral:
		return "Neutral"
	default:
		return "-"
	}
}

// FormatSignal formats a classification transition alert.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b>\n\n", signalEmoji(sig.Type), sig.Type, html.EscapeString(sig.Symbol))
	fmt.Fprintf(&b, "RSI(14): %.1f\n", sig.RSI)
	fmt.Fprintf(&b, "Zone: %s → %s\n", zoneLabel(sig.From), zoneLabel(sig.To))
	fmt.Fprintf(&b, "Price: %.2f\n", sig.Price)
	fmt.Fprintf(&b, "Time: %s", sig.EmittedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

// FormatReading formats a single reading as one line.
func FormatReading(r *model.IndicatorReading) string {
	sym := html.EscapeString(r.Symbol)
	switch r.Status {
	case model.StatusPending:
		return fmt.Sprintf("<b>%s</b>: pending", sym)
	case model.StatusNoData:
		return fmt.Sprintf("<b>%s</b>: no data", sym)
	}

	line := fmt.Sprintf("<b>%s</b>: %.2f (%+.2f%%) RSI %.1f %s",
		sym, r.Price, r.ChangePercent, r.RSI, zoneLabel(r.Classification))
	if r.Status == model.StatusError {
		if !r.HasRSI() {
			return fmt.Sprintf("<b>%s</b>: error: %s", sym, html.EscapeString(r.Error))
		}
		line += " ⚠️ stale"
	}
	switch r.Divergence {
	case model.DivergenceBullish:
		line += " 📈 bullish divergence"
	case model.DivergenceBearish:
		line += " 📉 bearish divergence"
	}
	return line
}

// FormatReadings formats the board snapshot.
func FormatReadings(readings []model.IndicatorReading) string {
	if len(readings) == 0 {
		return "Watchlist is empty. Use /add SYMBOL."
	}
	var b strings.Builder
	b.WriteString("📊 <b>RSI readings</b>\n\n")
	for i := range readings {
		b.WriteString(FormatReading(&readings[i]))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWatchlist formats the watchlist symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "Watchlist is empty. Use /add SYMBOL."
	}
	return fmt.Sprintf("📋 <b>Watchlist</b> (%d)\n%s", len(symbols), html.EscapeString(strings.Join(symbols, ", ")))
}

// FormatCycle formats the outcome of a manual refresh.
func FormatCycle(res *scheduler.CycleResult) string {
	return fmt.Sprintf("🔄 Refreshed %d symbols: %d ok, %d no data, %d failed, %d skipped (%s)",
		res.Symbols, res.OK, res.NoData, res.Failed, res.Skipped, res.Duration.Round(1e6))
}

const helpText = `Available commands:
/list - show watchlist
/rsi [SYMBOL] - show latest readings
/add SYMBOL - add to watchlist
/remove SYMBOL - remove from watchlist
/refresh - refresh now`
