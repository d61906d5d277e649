package backtest

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"odte-scanner/internal/model"
)

// FormatReport renders a plain-text summary of a run, suitable for a
// terminal or a text attachment on an alert.
func FormatReport(r *Result) string {
	st := r.Stats()
	var b strings.Builder

	line := strings.Repeat("=", 64)
	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "BACKTEST RESULTS")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Initial capital:   $%.2f\n", r.InitialCapital)
	fmt.Fprintf(&b, "Final capital:     $%.2f\n", r.FinalCapital)
	fmt.Fprintf(&b, "Total return:      %+.2f%%\n", st.TotalReturnPct)
	fmt.Fprintf(&b, "Total trades:      %d\n", st.TotalTrades)
	if st.TotalTrades == 0 {
		fmt.Fprintln(&b, "No trades taken.")
		return b.String()
	}

	fmt.Fprintf(&b, "Win rate:          %.1f%% (%dW / %dL)\n", st.WinRate, st.Wins, st.Losses)
	fmt.Fprintf(&b, "Total P&L:         $%+.2f\n", st.TotalPnL)
	fmt.Fprintf(&b, "Avg P&L/trade:     $%+.2f\n", st.AvgPnL)
	fmt.Fprintf(&b, "Avg winner:        $%+.2f\n", st.AvgWin)
	fmt.Fprintf(&b, "Avg loser:         $%+.2f\n", st.AvgLoss)
	if math.IsInf(st.ProfitFactor, 1) {
		fmt.Fprintln(&b, "Profit factor:     inf")
	} else {
		fmt.Fprintf(&b, "Profit factor:     %.2f\n", st.ProfitFactor)
	}
	fmt.Fprintf(&b, "Max drawdown:      %.1f%%\n", st.MaxDrawdownPct)
	fmt.Fprintf(&b, "Sharpe (ann.):     %.2f\n", st.Sharpe)
	fmt.Fprintf(&b, "Avg duration:      %.0f min\n", st.AvgDurationMin)

	writePatternBreakdown(&b, r.ByPattern())
	writeWeekdayBreakdown(&b, r.ByWeekday())
	writeHourBreakdown(&b, r.ByHour())

	fmt.Fprintln(&b, strings.Repeat("-", 64))
	fmt.Fprintln(&b, "TRADES")
	for i := range r.Trades {
		fmt.Fprintln(&b, r.Trades[i].String())
	}
	return b.String()
}

func writePatternBreakdown(b *strings.Builder, byPattern map[model.Pattern]Breakdown) {
	if len(byPattern) == 0 {
		return
	}
	fmt.Fprintln(b, strings.Repeat("-", 64))
	fmt.Fprintln(b, "BY PATTERN")
	keys := make([]string, 0, len(byPattern))
	for p := range byPattern {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)
	for _, k := range keys {
		br := byPattern[model.Pattern(k)]
		fmt.Fprintf(b, "  %-28s %3d trades  %5.1f%% win  $%+.2f\n", k, br.Count, br.WinRate, br.TotalPnL)
	}
}

func writeWeekdayBreakdown(b *strings.Builder, byDay map[time.Weekday]Breakdown) {
	if len(byDay) == 0 {
		return
	}
	fmt.Fprintln(b, strings.Repeat("-", 64))
	fmt.Fprintln(b, "BY WEEKDAY")
	for wd := time.Monday; wd <= time.Friday; wd++ {
		br, ok := byDay[wd]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "  %-28s %3d trades  %5.1f%% win  $%+.2f\n", wd, br.Count, br.WinRate, br.TotalPnL)
	}
}

func writeHourBreakdown(b *strings.Builder, byHour map[int]Breakdown) {
	if len(byHour) == 0 {
		return
	}
	fmt.Fprintln(b, strings.Repeat("-", 64))
	fmt.Fprintln(b, "BY ENTRY HOUR")
	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		br := byHour[h]
		fmt.Fprintf(b, "  %02d:00                        %3d trades  %5.1f%% win  $%+.2f\n", h, br.Count, br.WinRate, br.TotalPnL)
	}
}
