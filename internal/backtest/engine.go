// Package backtest simulates 0DTE option trades from a signal stream and
// aggregates the results.
//
// The simulator is strictly sequential: admission and sizing for each
// trade depend on the capital left by the one before it.
package backtest

import (
	"log/slog"
	"math"
	"time"

	"odte-scanner/internal/model"
	"odte-scanner/internal/options"
)

// Config holds the simulation parameters.
type Config struct {
	InitialCapital  float64 `yaml:"initial_capital"`
	PositionSizePct float64 `yaml:"position_size_pct"` // % of capital per trade
	StopLossPct     float64 `yaml:"stop_loss_pct"`     // % of entry premium lost
	ProfitTargetPct float64 `yaml:"profit_target_pct"` // % of entry premium gained
	SlippagePct     float64 `yaml:"slippage_pct"`      // % of |PnL|
	Commission      float64 `yaml:"commission"`        // per contract per side
	RiskFreeRate    float64 `yaml:"risk_free_rate"`
	BaseIV          float64 `yaml:"default_iv"`
	MinPremium      float64 `yaml:"min_premium"` // below this the contract is untradeable
	MinConfidence   float64 `yaml:"min_confidence"`

	MarketCloseMinute int               `yaml:"market_close"` // minutes after midnight, exchange time
	Moneyness         options.Moneyness `yaml:"moneyness"`
}

// DefaultConfig returns the standard $10k, ATM, 50% stop / 100% target
// setup.
func DefaultConfig() Config {
	return Config{
		InitialCapital:    10000,
		PositionSizePct:   5.0,
		StopLossPct:       50.0,
		ProfitTargetPct:   100.0,
		SlippagePct:       1.0,
		Commission:        0.65,
		RiskFreeRate:      0.05,
		BaseIV:            0.15,
		MinPremium:        0.05,
		MinConfidence:     0.6,
		MarketCloseMinute: 16 * 60,
		Moneyness:         options.ATM,
	}
}

// Simulator turns signals into settled option trades.
type Simulator struct {
	cfg Config
	log *slog.Logger
}

func NewSimulator(cfg Config, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{cfg: cfg, log: log}
}

// Run replays the signal stream against the bars. Signals must be sorted
// by timestamp; at most one trade opens per calendar day, and the run
// halts once capital is exhausted.
func (s *Simulator) Run(bars []model.Bar, signals []model.Signal) *Result {
	res := &Result{
		InitialCapital: s.cfg.InitialCapital,
		FinalCapital:   s.cfg.InitialCapital,
		Config:         s.cfg,
	}

	days := model.Days(bars)
	spanByDate := make(map[time.Time]model.DaySpan, len(days))
	for _, d := range days {
		spanByDate[d.Date] = d
	}

	capital := s.cfg.InitialCapital
	traded := make(map[time.Time]bool)

	for _, sig := range signals {
		if capital <= 0 {
			s.log.Info("capital exhausted, halting simulation", "capital", capital)
			break
		}
		if sig.Confidence < s.cfg.MinConfidence {
			continue
		}
		y, m, d := sig.TS.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, sig.TS.Location())
		if traded[date] {
			continue
		}
		span, ok := spanByDate[date]
		if !ok {
			continue
		}

		trade, ok := s.openAndClose(bars, span, sig, capital, date)
		if !ok {
			continue
		}

		pnl := trade.TotalPnL()
		commission := s.cfg.Commission * float64(trade.Contracts) * 2
		slippage := math.Abs(pnl) * s.cfg.SlippagePct / 100
		capital += pnl - commission - slippage

		traded[date] = true
		res.Trades = append(res.Trades, trade)
		res.Equity = append(res.Equity, capital)
		res.FinalCapital = capital
	}
	return res
}

// openAndClose quotes, sizes, and exits a single trade. The bool is false
// when the signal is rejected (too cheap or unaffordable).
func (s *Simulator) openAndClose(bars []model.Bar, span model.DaySpan, sig model.Signal, capital float64, date time.Time) (model.OptionTrade, bool) {
	closeTime := date.Add(time.Duration(s.cfg.MarketCloseMinute) * time.Minute)
	untilClose := closeTime.Sub(sig.TS)

	iv := options.EstimateIV(s.cfg.BaseIV, untilClose)
	T := options.TimeToExpiryYears(untilClose)
	kind, strike := options.StrikeForSignal(sig.EntryPrice, sig.Direction, s.cfg.Moneyness)

	premium := options.Price(sig.EntryPrice, strike, T, s.cfg.RiskFreeRate, iv, kind)
	if premium < s.cfg.MinPremium {
		s.log.Debug("premium below tradeable minimum", "pattern", string(sig.Pattern), "premium", premium)
		return model.OptionTrade{}, false
	}

	contracts := int(capital * s.cfg.PositionSizePct / 100 / (premium * 100))
	if contracts < 1 {
		contracts = 1
	}
	if float64(contracts)*premium*100 > capital {
		contracts = int(capital / (premium * 100))
		if contracts < 1 {
			s.log.Debug("cannot afford one contract", "pattern", string(sig.Pattern), "premium", premium)
			return model.OptionTrade{}, false
		}
	}

	trade := model.OptionTrade{
		EntryTime:       sig.TS,
		Type:            kind,
		Strike:          strike,
		EntryUnderlying: sig.EntryPrice,
		EntryPremium:    premium,
		Contracts:       contracts,
		Pattern:         sig.Pattern,
		Direction:       sig.Direction,
		IV:              iv,
	}

	stop := premium * (1 - s.cfg.StopLossPct/100)
	target := premium * (1 + s.cfg.ProfitTargetPct/100)

	// First bar strictly after the signal.
	next := span.Start
	for next < span.End && !bars[next].TS.After(sig.TS) {
		next++
	}
	if next == span.End {
		// Signal on the day's final bar: nothing to walk, a degenerate
		// zero-premium close.
		trade.ExitTime = sig.TS
		trade.ExitUnderlying = sig.EntryPrice
		trade.ExitPremium = 0
		trade.ExitReason = model.ExitNoData
		return trade, true
	}

	for i := next; i < span.End; i++ {
		b := &bars[i]
		if i == span.End-1 {
			trade.ExitTime = b.TS
			trade.ExitUnderlying = b.Close
			trade.ExitPremium = options.Intrinsic(b.Close, strike, kind)
			trade.ExitReason = model.ExitExpiration
			return trade, true
		}

		T2 := options.TimeToExpiryYears(closeTime.Sub(b.TS))
		px := options.Price(b.Close, strike, T2, s.cfg.RiskFreeRate, iv, kind)
		if px <= stop {
			trade.ExitTime = b.TS
			trade.ExitUnderlying = b.Close
			trade.ExitPremium = stop
			trade.ExitReason = model.ExitStopLoss
			return trade, true
		}
		if px >= target {
			trade.ExitTime = b.TS
			trade.ExitUnderlying = b.Close
			trade.ExitPremium = target
			trade.ExitReason = model.ExitProfitTarget
			return trade, true
		}
	}
	return trade, true // unreachable, the final-bar branch always exits
}
