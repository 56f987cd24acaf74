// Package display renders readings as a terminal table.
package display

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"RSITracker/internal/model"

	"github.com/dustin/go-humanize"
)

// Render writes readings as an aligned table. now anchors relative times.
func Render(w io.Writer, readings []model.IndicatorReading, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tCHANGE\tRSI\tZONE\tVOLUME\tUPDATED")
	for i := range readings {
		fmt.Fprintln(tw, row(&readings[i], now))
	}
	if len(readings) == 0 {
		fmt.Fprintln(tw, "(watchlist empty)\t\t\t\t\t\t")
	}
	return tw.Flush()
}

func row(r *model.IndicatorReading, now time.Time) string {
	switch r.Status {
	case model.StatusPending:
		return fmt.Sprintf("%s\t-\t-\t…\t-\t-\t-", r.Symbol)
	case model.StatusNoData:
		return fmt.Sprintf("%s\t%s\t%s\tno data\t-\t%s\t%s",
			r.Symbol, price(r.Price), change(r), volume(r.Volume), updated(r.ComputedAt, now))
	case model.StatusError:
		if !r.HasRSI() {
			return fmt.Sprintf("%s\t-\t-\terror\t-\t-\t-", r.Symbol)
		}
	}

	rsi := fmt.Sprintf("%.1f", r.RSI)
	zone := zoneName(r.Classification)
	if r.Stale {
		rsi += "*"
		zone += " (stale)"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
		r.Symbol, price(r.Price), change(r), rsi, zone, volume(r.Volume), updated(r.ComputedAt, now))
}

func zoneName(c model.Classification) string {
	switch c {
	case model.Overbought:
		return "Overbought"
	case model.Oversold:
		return "Oversold"
	default:
		return "Neutral"
	}
}

func price(p float64) string {
	if p == 0 {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", p)
}

func change(r *model.IndicatorReading) string {
	return fmt.Sprintf("%+.2f (%+.2f%%)", r.Change, r.ChangePercent)
}

func volume(v float64) string {
	if v <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(v, 1, "")
}

func updated(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
