package pattern

import (
	"math"
	"testing"

	"odte-scanner/internal/model"
)

// newTestContext builds a Context with the price columns filled and every
// indicator series left for the test to set. ATR stays empty so atr()
// falls back to 1.0 and stop/target widths are predictable.
func newTestContext(bars []model.Bar) *Context {
	n := len(bars)
	c := &Context{
		Bars:   bars,
		Days:   model.Days(bars),
		Params: DefaultParams(),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range bars {
		c.High[i] = b.High
		c.Low[i] = b.Low
		c.Close[i] = b.Close
		c.Volume[i] = float64(b.Volume)
	}
	return c
}

func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBollingerSqueezeOneSignalPerEpisode(t *testing.T) {
	var bars []model.Bar
	closes := []float64{450, 450, 450, 450, 452, 453, 450, 450, 448, 447}
	for i, cl := range closes {
		bars = append(bars, mkBar(0, 5*i, cl, cl+0.2, cl-0.2, cl, 1000))
	}
	c := newTestContext(bars)
	c.BB.Upper = constSeries(len(bars), 451)
	c.BB.Lower = constSeries(len(bars), 449)
	c.BB.Bandwidth = []float64{math.NaN(), 0.3, 0.3, 0.3, 2.0, 2.0, 0.3, 0.3, 2.0, 2.0}

	sigs, err := detectBollingerSqueeze(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	// Two squeeze episodes, one release each. Bars 5 and 9 also close
	// outside the bands but belong to an already-released episode.
	if len(sigs) != 2 {
		t.Fatalf("got %d signals, want 2: %v", len(sigs), sigs)
	}
	if sigs[0].Direction != model.Long || !sigs[0].TS.Equal(bars[4].TS) {
		t.Errorf("first release = %s at %v, want long at bar 4", sigs[0].Direction, sigs[0].TS)
	}
	if sigs[0].EntryPrice != 452 || sigs[0].StopPrice != 451 || sigs[0].TargetPrice != 453.5 {
		t.Errorf("first release levels = %v/%v/%v", sigs[0].EntryPrice, sigs[0].StopPrice, sigs[0].TargetPrice)
	}
	if sigs[1].Direction != model.Short || !sigs[1].TS.Equal(bars[8].TS) {
		t.Errorf("second release = %s at %v, want short at bar 8", sigs[1].Direction, sigs[1].TS)
	}
}

func TestVWAPRejectionLongNeedsTouchThenHold(t *testing.T) {
	bars := []model.Bar{
		mkBar(0, 0, 450.1, 450.3, 449.95, 450.00, 1000), // low probes VWAP
		mkBar(0, 5, 450.0, 450.5, 450.20, 450.30, 1000),
		mkBar(0, 10, 450.3, 450.6, 450.30, 450.35, 1000),
	}
	c := newTestContext(bars)
	c.VWAP = constSeries(len(bars), 450)

	sigs, err := detectVWAPRejectionLong(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	// Only bar 1 follows a VWAP touch; bar 2's prior low is 0.20 away.
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(sigs), sigs)
	}
	s := sigs[0]
	if !s.TS.Equal(bars[1].TS) || s.Direction != model.Long {
		t.Fatalf("got %s at %v, want long at bar 1", s.Direction, s.TS)
	}
	if s.EntryPrice != 450.30 || s.StopPrice != 449.5 || math.Abs(s.TargetPrice-451.30) > 1e-9 {
		t.Errorf("levels = %v/%v/%v", s.EntryPrice, s.StopPrice, s.TargetPrice)
	}
}

func TestVWAPCrossLongIgnoresDayBoundary(t *testing.T) {
	bars := []model.Bar{
		// Day 0 closes below VWAP.
		mkBar(0, 0, 449.8, 450.0, 449.6, 449.8, 1000),
		mkBar(0, 5, 449.8, 450.0, 449.7, 449.9, 1000),
		// Day 1 opens above VWAP; the overnight flip must not signal.
		mkBar(1, 0, 450.3, 450.5, 450.1, 450.3, 1000),
		mkBar(1, 5, 450.3, 450.4, 449.8, 449.9, 1000),
		mkBar(1, 10, 449.9, 450.4, 449.9, 450.2, 1000),
	}
	c := newTestContext(bars)
	c.VWAP = constSeries(len(bars), 450)

	sigs, err := detectVWAPCrossLong(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(sigs), sigs)
	}
	s := sigs[0]
	if !s.TS.Equal(bars[4].TS) {
		t.Fatalf("signal at %v, want the intraday cross at bar 4", s.TS)
	}
	if s.EntryPrice != 450.2 || math.Abs(s.StopPrice-449.7) > 1e-9 || math.Abs(s.TargetPrice-451.0) > 1e-9 {
		t.Errorf("levels = %v/%v/%v", s.EntryPrice, s.StopPrice, s.TargetPrice)
	}
}

func TestMiddayReversalShort(t *testing.T) {
	var bars []model.Bar
	// Morning rally from 450.00 to 451.50 by 11:25.
	for i := 0; i < 24; i++ {
		cl := 450.0 + float64(i+1)*0.0625
		bars = append(bars, mkBar(0, 5*i, cl-0.05, cl+0.1, cl-0.1, cl, 1000))
	}
	// Lunch window stall: three lower closes in a row.
	bars = append(bars,
		mkBar(0, 120, 451.5, 451.55, 451.30, 451.40, 1000),
		mkBar(0, 125, 451.4, 451.45, 451.20, 451.30, 1000),
		mkBar(0, 130, 451.3, 451.30, 451.10, 451.20, 1000),
	)
	for i := 27; i < 40; i++ {
		bars = append(bars, mkBar(0, 5*i, 451.2, 451.3, 451.1, 451.2, 1000))
	}
	c := newTestContext(bars)
	c.RSI = constSeries(len(bars), 50)
	for i := 24; i < 28; i++ {
		c.RSI[i] = 71
	}

	sigs, err := detectMiddayReversal(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(sigs), sigs)
	}
	s := sigs[0]
	if s.Direction != model.Short || !s.TS.Equal(bars[26].TS) {
		t.Fatalf("got %s at %v, want short on the third fading bar", s.Direction, s.TS)
	}
	if s.EntryPrice != 451.20 {
		t.Errorf("entry = %v, want 451.20", s.EntryPrice)
	}
	// Stop rides the lunch-window high, target one fallback-ATR fraction below.
	if s.StopPrice != 451.55 {
		t.Errorf("stop = %v, want window high 451.55", s.StopPrice)
	}
	if math.Abs(s.TargetPrice-450.40) > 1e-9 {
		t.Errorf("target = %v, want 450.40", s.TargetPrice)
	}
}

func TestPowerHourMomentumLong(t *testing.T) {
	var bars []model.Bar
	// Established uptrend: open 450.00, drifting to 451.20 before 15:00.
	for i := 0; i < 66; i++ {
		cl := 450.0 + float64(i+1)*(1.2/66)
		bars = append(bars, mkBar(0, 5*i, cl-0.02, cl+0.1, cl-0.1, cl, 1000))
	}
	// First power-hour bars resume the trend.
	bars = append(bars,
		mkBar(0, 330, 451.20, 451.30, 451.10, 451.20, 1000),
		mkBar(0, 335, 451.20, 451.40, 451.20, 451.30, 1000),
		mkBar(0, 340, 451.30, 451.50, 451.30, 451.40, 1000),
	)
	for i := 69; i < 73; i++ {
		bars = append(bars, mkBar(0, 5*i, 451.4, 451.5, 451.3, 451.4, 1000))
	}
	c := newTestContext(bars)
	c.ADX.ADX = constSeries(len(bars), 25)

	sigs, err := detectPowerHour(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(sigs), sigs)
	}
	s := sigs[0]
	if s.Direction != model.Long || !s.TS.Equal(bars[68].TS) {
		t.Fatalf("got %s at %v, want long on the third power-hour bar", s.Direction, s.TS)
	}
	if s.EntryPrice != 451.40 {
		t.Errorf("entry = %v, want 451.40", s.EntryPrice)
	}
	if s.StopPrice != 451.10 {
		t.Errorf("stop = %v, want window low 451.10", s.StopPrice)
	}
	if math.Abs(s.TargetPrice-451.90) > 1e-9 {
		t.Errorf("target = %v, want 451.90", s.TargetPrice)
	}
}

func TestPowerHourNeedsTrendStrength(t *testing.T) {
	var bars []model.Bar
	for i := 0; i < 66; i++ {
		cl := 450.0 + float64(i+1)*(1.2/66)
		bars = append(bars, mkBar(0, 5*i, cl-0.02, cl+0.1, cl-0.1, cl, 1000))
	}
	bars = append(bars,
		mkBar(0, 330, 451.20, 451.30, 451.10, 451.20, 1000),
		mkBar(0, 335, 451.20, 451.40, 451.20, 451.30, 1000),
		mkBar(0, 340, 451.30, 451.50, 451.30, 451.40, 1000),
	)
	c := newTestContext(bars)
	// Weak ADX keeps the detector quiet even with the price setup intact.
	c.ADX.ADX = constSeries(len(bars), 15)

	sigs, err := detectPowerHour(c)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(sigs) != 0 {
		t.Fatalf("got %d signals, want 0: %v", len(sigs), sigs)
	}
}
