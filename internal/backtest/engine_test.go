package backtest

import (
	"math"
	"testing"
	"time"

	"odte-scanner/internal/model"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}()

func day(d int) time.Time {
	return time.Date(2024, 3, 4+d, 0, 0, 0, 0, testLoc)
}

// flatDay builds n five-minute bars starting at hh:mm with closes drifting
// by step per bar.
func flatDay(d, hh, mm, n int, start, step float64) []model.Bar {
	bars := make([]model.Bar, 0, n)
	ts := day(d).Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
	px := start
	for i := 0; i < n; i++ {
		bars = append(bars, model.NewBar(ts, px, px+0.05, px-0.05, px+step, 1000))
		px += step
		ts = ts.Add(5 * time.Minute)
	}
	return bars
}

func sig(ts time.Time, dir model.Direction, entry, conf float64) model.Signal {
	return model.Signal{
		TS: ts, Pattern: model.OpeningRangeBreakout, Direction: dir,
		Confidence: conf, EntryPrice: entry, StopPrice: entry - 0.5, TargetPrice: entry + 1,
	}
}

func TestExpirationSettlement(t *testing.T) {
	// Four late-day bars; the price drifts up too slowly to hit either
	// threshold, so the trade must settle at intrinsic value.
	bars := flatDay(0, 15, 40, 4, 450.15, 0.05) // closes 450.20 .. 450.35... see below
	// closes: 450.20, 450.25, 450.30, 450.35 at 15:40/45/50/55
	signal := sig(bars[1].TS, model.Long, bars[1].Close, 0.9)

	res := NewSimulator(DefaultConfig(), nil).Run(bars, []model.Signal{signal})
	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != model.ExitExpiration {
		t.Fatalf("exit reason = %s, want expiration", tr.ExitReason)
	}
	if tr.Type != model.Call || tr.Strike != 450 {
		t.Fatalf("got %s $%v", tr.Type, tr.Strike)
	}
	wantIntrinsic := 450.35 - 450
	if math.Abs(tr.ExitPremium-wantIntrinsic) > 1e-9 {
		t.Fatalf("exit premium = %v, want intrinsic %v", tr.ExitPremium, wantIntrinsic)
	}
	if !tr.ExitTime.Equal(bars[3].TS) {
		t.Fatalf("exit time = %v, want last bar", tr.ExitTime)
	}
}

func TestOneTradePerDayAndCapitalRecurrence(t *testing.T) {
	var bars []model.Bar
	bars = append(bars, flatDay(0, 15, 30, 6, 450.15, 0.05)...)
	bars = append(bars, flatDay(1, 15, 30, 6, 451.15, -0.05)...)

	signals := []model.Signal{
		sig(bars[1].TS, model.Long, bars[1].Close, 0.9),
		sig(bars[2].TS, model.Long, bars[2].Close, 0.9), // same day, must be ignored
		sig(bars[7].TS, model.Short, bars[7].Close, 0.9),
	}

	cfg := DefaultConfig()
	res := NewSimulator(cfg, nil).Run(bars, signals)
	if len(res.Trades) != 2 {
		t.Fatalf("got %d trades, want 2 (one per day)", len(res.Trades))
	}

	seen := map[string]bool{}
	for _, tr := range res.Trades {
		d := tr.EntryTime.Format("2006-01-02")
		if seen[d] {
			t.Fatalf("two trades on %s", d)
		}
		seen[d] = true
	}

	capital := cfg.InitialCapital
	for i, tr := range res.Trades {
		pnl := tr.TotalPnL()
		commission := cfg.Commission * float64(tr.Contracts) * 2
		slippage := math.Abs(pnl) * cfg.SlippagePct / 100
		capital += pnl - commission - slippage
		if math.Abs(res.Equity[i]-capital) > 1e-9 {
			t.Fatalf("equity[%d] = %v, want %v", i, res.Equity[i], capital)
		}
	}
	if math.Abs(res.FinalCapital-capital) > 1e-9 {
		t.Fatalf("final capital = %v, want %v", res.FinalCapital, capital)
	}
}

func TestHaltOnCapitalExhaustion(t *testing.T) {
	var bars []model.Bar
	bars = append(bars, flatDay(0, 15, 30, 6, 450.15, 0.05)...)
	bars = append(bars, flatDay(1, 15, 30, 6, 450.15, 0.05)...)

	signals := []model.Signal{
		sig(bars[1].TS, model.Long, bars[1].Close, 0.9),
		sig(bars[7].TS, model.Long, bars[7].Close, 0.9),
	}

	cfg := DefaultConfig()
	cfg.InitialCapital = 60
	cfg.Commission = 1000 // round trip wipes the account
	res := NewSimulator(cfg, nil).Run(bars, signals)
	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1 then halt", len(res.Trades))
	}
	if res.FinalCapital > 0 {
		t.Fatalf("final capital = %v, want <= 0", res.FinalCapital)
	}
}

func TestNoForwardBars(t *testing.T) {
	bars := flatDay(0, 15, 30, 4, 450.15, 0.05)
	last := bars[len(bars)-1]
	signal := sig(last.TS, model.Long, last.Close, 0.9)

	res := NewSimulator(DefaultConfig(), nil).Run(bars, []model.Signal{signal})
	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != model.ExitNoData || tr.ExitPremium != 0 {
		t.Fatalf("got %s at %v, want no_data at 0", tr.ExitReason, tr.ExitPremium)
	}
	if !tr.ExitTime.Equal(tr.EntryTime) {
		t.Fatalf("degenerate exit should close at entry time")
	}
	if tr.TotalPnL() >= 0 {
		t.Fatalf("zero-premium exit should be a full loss, got %v", tr.TotalPnL())
	}
}

func TestRejectsCheapPremium(t *testing.T) {
	bars := flatDay(0, 15, 45, 3, 449.55, 0.0) // strike rounds to 450, calls far OTM
	signal := sig(bars[0].TS, model.Long, bars[0].Close, 0.9)

	cfg := DefaultConfig()
	cfg.BaseIV = 0.01 // quote collapses to the $0.01 floor
	res := NewSimulator(cfg, nil).Run(bars, []model.Signal{signal})
	if len(res.Trades) != 0 {
		t.Fatalf("got %d trades, want 0 (premium below minimum)", len(res.Trades))
	}
	if res.FinalCapital != cfg.InitialCapital {
		t.Fatalf("capital changed on a rejected signal: %v", res.FinalCapital)
	}
}

func TestConfidenceFilter(t *testing.T) {
	bars := flatDay(0, 15, 30, 6, 450.15, 0.05)
	signal := sig(bars[1].TS, model.Long, bars[1].Close, 0.3)

	res := NewSimulator(DefaultConfig(), nil).Run(bars, []model.Signal{signal})
	if len(res.Trades) != 0 {
		t.Fatalf("low-confidence signal should be filtered, got %d trades", len(res.Trades))
	}
}
