package backtest

import (
	"encoding/json"
	"math"
	"time"

	"odte-scanner/internal/model"
)

// Result is the full output of one simulation run. Summary statistics are
// always derived from the trade list, never stored alongside it.
type Result struct {
	Trades         []model.OptionTrade
	InitialCapital float64
	FinalCapital   float64
	Equity         []float64 // capital after each settled trade
	Config         Config
}

// Stats is the flat summary over a trade sequence.
type Stats struct {
	TotalTrades    int     `json:"total_trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"` // percent
	TotalPnL       float64 `json:"total_pnl"`
	AvgPnL         float64 `json:"avg_pnl"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	ProfitFactor   float64 `json:"-"` // +Inf when there are profits and no losses
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Sharpe         float64 `json:"sharpe"`
	TotalReturnPct float64 `json:"total_return_pct"`
	AvgDurationMin float64 `json:"avg_duration_min"`
}

// MarshalJSON encodes the profit factor as null when it is infinite,
// since JSON has no Inf literal.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
	}{alias: alias(s)}
	if !math.IsInf(s.ProfitFactor, 1) {
		pf := s.ProfitFactor
		out.ProfitFactor = &pf
	}
	return json.Marshal(out)
}

// Stats computes the summary. An empty run returns all zeros.
func (r *Result) Stats() Stats {
	var st Stats
	st.TotalTrades = len(r.Trades)
	if st.TotalTrades == 0 {
		return st
	}

	var grossProfit, grossLoss, totalDur float64
	var winSum, lossSum float64
	returns := make([]float64, 0, len(r.Trades))
	for i := range r.Trades {
		t := &r.Trades[i]
		pnl := t.TotalPnL()
		st.TotalPnL += pnl
		totalDur += t.DurationMinutes()
		returns = append(returns, t.PnLPct())
		if pnl > 0 {
			st.Wins++
			winSum += pnl
			grossProfit += pnl
		} else if pnl < 0 {
			st.Losses++
			lossSum += pnl
			grossLoss += -pnl
		}
	}

	n := float64(st.TotalTrades)
	st.WinRate = float64(st.Wins) / n * 100
	st.AvgPnL = st.TotalPnL / n
	st.AvgDurationMin = totalDur / n
	if st.Wins > 0 {
		st.AvgWin = winSum / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLoss = lossSum / float64(st.Losses)
	}

	switch {
	case grossLoss > 0:
		st.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		st.ProfitFactor = math.Inf(1)
	}

	st.MaxDrawdownPct = maxDrawdown(r.InitialCapital, r.Equity)
	st.Sharpe = sharpe(returns)
	if r.InitialCapital != 0 {
		st.TotalReturnPct = (r.FinalCapital - r.InitialCapital) / r.InitialCapital * 100
	}
	return st
}

// maxDrawdown is the worst peak-to-trough decline, in percent, over the
// equity curve seeded with the starting capital.
func maxDrawdown(initial float64, equity []float64) float64 {
	peak := initial
	worst := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := (peak - e) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe is mean/stddev of per-trade percent returns scaled by √252.
// Fewer than two trades, or zero variance, yields 0.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range returns {
		mean += v
	}
	mean /= float64(len(returns))

	// Population standard deviation (divide by n, not n-1).
	variance := 0.0
	for _, v := range returns {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(252)
}

// Breakdown is a grouped slice of the trade list.
type Breakdown struct {
	Count    int     `json:"count"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"` // percent
	TotalPnL float64 `json:"total_pnl"`
}

// ByPattern groups trades by originating pattern.
func (r *Result) ByPattern() map[model.Pattern]Breakdown {
	out := make(map[model.Pattern]Breakdown)
	for i := range r.Trades {
		t := &r.Trades[i]
		b := out[t.Pattern]
		accumulate(&b, t)
		out[t.Pattern] = b
	}
	return out
}

// ByWeekday groups trades by entry day of week.
func (r *Result) ByWeekday() map[time.Weekday]Breakdown {
	out := make(map[time.Weekday]Breakdown)
	for i := range r.Trades {
		t := &r.Trades[i]
		b := out[t.EntryTime.Weekday()]
		accumulate(&b, t)
		out[t.EntryTime.Weekday()] = b
	}
	return out
}

// ByHour groups trades by entry hour (exchange time).
func (r *Result) ByHour() map[int]Breakdown {
	out := make(map[int]Breakdown)
	for i := range r.Trades {
		t := &r.Trades[i]
		b := out[t.EntryTime.Hour()]
		accumulate(&b, t)
		out[t.EntryTime.Hour()] = b
	}
	return out
}

func accumulate(b *Breakdown, t *model.OptionTrade) {
	b.Count++
	if t.TotalPnL() > 0 {
		b.Wins++
	}
	b.WinRate = float64(b.Wins) / float64(b.Count) * 100
	b.TotalPnL += t.TotalPnL()
}
