package pattern

import (
	"errors"
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

// mkBar builds a bar minuteFromOpen minutes after the 09:30 open on the
// given test day.
func mkBar(day, minuteFromOpen int, o, h, l, c float64, v int64) model.Bar {
	ts := time.Date(2024, 3, 4+day, 9, 30, 0, 0, testLoc).Add(time.Duration(minuteFromOpen) * time.Minute)
	return model.NewBar(ts, o, h, l, c, v)
}

func TestOpeningRangeBreakoutScenario(t *testing.T) {
	var bars []model.Bar
	// Opening range 09:30-09:45: high 451.00, low 450.50.
	bars = append(bars,
		mkBar(0, 0, 450.80, 451.00, 450.60, 450.90, 1000),
		mkBar(0, 5, 450.90, 450.95, 450.50, 450.70, 1000),
		mkBar(0, 10, 450.70, 450.90, 450.60, 450.85, 1000),
	)
	// Quiet drift below the trigger level until the breakout bar.
	for i := 0; i < 20; i++ {
		bars = append(bars, mkBar(0, 15+5*i, 450.85, 451.05, 450.45, 450.90, 1000))
	}
	// Breakout close above 451.00 + 0.10 on a volume surge.
	bars = append(bars, mkBar(0, 115, 450.95, 451.35, 450.90, 451.30, 5000))

	e := NewEngine([]model.Pattern{model.OpeningRangeBreakout}, nil)
	sigs := e.Scan(bars, DefaultParams())
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(sigs), sigs)
	}
	s := sigs[0]
	if s.Pattern != model.OpeningRangeBreakout || s.Direction != model.Long {
		t.Fatalf("got %s/%s", s.Pattern, s.Direction)
	}
	if s.EntryPrice != 451.30 {
		t.Fatalf("entry = %v, want 451.30", s.EntryPrice)
	}
	if math.Abs(s.StopPrice-450.75) > 1e-9 {
		t.Fatalf("stop = %v, want 450.75", s.StopPrice)
	}
	if s.TargetPrice < 452.05-1e-9 {
		t.Fatalf("target = %v, want >= 452.05", s.TargetPrice)
	}
	if s.Confidence < 0.65 {
		t.Fatalf("confidence = %v, want >= 0.65", s.Confidence)
	}
	if s.Metadata["or_high"] != 451.00 || s.Metadata["or_low"] != 450.50 {
		t.Fatalf("metadata = %v", s.Metadata)
	}
}

func TestOpeningRangeBreakdown(t *testing.T) {
	var bars []model.Bar
	bars = append(bars,
		mkBar(0, 0, 450.80, 451.00, 450.60, 450.90, 1000),
		mkBar(0, 5, 450.90, 450.95, 450.50, 450.70, 1000),
		mkBar(0, 10, 450.70, 450.90, 450.60, 450.85, 1000),
	)
	for i := 0; i < 5; i++ {
		bars = append(bars, mkBar(0, 15+5*i, 450.85, 450.95, 450.60, 450.85, 1000))
	}
	bars = append(bars, mkBar(0, 40, 450.80, 450.85, 450.20, 450.25, 3000))

	e := NewEngine([]model.Pattern{model.OpeningRangeBreakdown}, nil)
	sigs := e.Scan(bars, DefaultParams())
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1", len(sigs))
	}
	s := sigs[0]
	if s.Direction != model.Short || s.EntryPrice != 450.25 {
		t.Fatalf("got %s entry %v", s.Direction, s.EntryPrice)
	}
	// Stop above entry, target below, for a short.
	if s.StopPrice <= s.EntryPrice || s.TargetPrice >= s.EntryPrice {
		t.Fatalf("stop %v / target %v around entry %v", s.StopPrice, s.TargetPrice, s.EntryPrice)
	}
}

func TestGapFillLong(t *testing.T) {
	gapBars := []model.Bar{
		mkBar(1, 0, 449.00, 449.10, 448.70, 448.90, 1000),
		mkBar(1, 5, 448.90, 449.00, 448.60, 448.80, 1000),
		mkBar(1, 10, 448.80, 449.30, 448.75, 449.10, 1000),
	}
	for i := range gapBars {
		gapBars[i].PrevOpen = 449.5
		gapBars[i].PrevHigh = 450.6
		gapBars[i].PrevLow = 449.2
		gapBars[i].PrevClose = 450.00
		gapBars[i].PrevVolume = 80000
	}

	e := NewEngine([]model.Pattern{model.GapFillLong}, nil)
	sigs := e.Scan(gapBars, DefaultParams())
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1", len(sigs))
	}
	s := sigs[0]
	if s.Direction != model.Long || s.EntryPrice != 449.10 {
		t.Fatalf("got %s entry %v", s.Direction, s.EntryPrice)
	}
	if s.TargetPrice != 450.00 {
		t.Fatalf("target = %v, want prior close 450.00", s.TargetPrice)
	}
	if s.StopPrice != 448.60 {
		t.Fatalf("stop = %v, want running low 448.60", s.StopPrice)
	}
	if s.Metadata["gap_size"] != -1.00 {
		t.Fatalf("gap_size = %v", s.Metadata["gap_size"])
	}
}

func TestPrevDayHighBreak(t *testing.T) {
	bars := []model.Bar{
		mkBar(1, 0, 450.00, 450.40, 449.90, 450.30, 1000),
		mkBar(1, 5, 450.30, 450.80, 450.25, 450.70, 1500),
	}
	for i := range bars {
		bars[i].PrevOpen = 449.0
		bars[i].PrevHigh = 450.50
		bars[i].PrevLow = 448.0
		bars[i].PrevClose = 450.0
		bars[i].PrevVolume = 50000
	}
	e := NewEngine([]model.Pattern{model.PrevDayHighBreak}, nil)
	sigs := e.Scan(bars, DefaultParams())
	if len(sigs) != 1 || sigs[0].Direction != model.Long || sigs[0].EntryPrice != 450.70 {
		t.Fatalf("got %v", sigs)
	}
}

func TestEngineFiltering(t *testing.T) {
	e := NewEngine([]model.Pattern{model.RSIOversoldBounce, model.MACDBullishCross}, nil)
	got := e.Patterns()
	// Registry order, not request order.
	want := []model.Pattern{model.MACDBullishCross, model.RSIOversoldBounce}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}

	all := NewEngine(nil, nil)
	if len(all.Patterns()) != len(model.AllPatterns()) {
		t.Fatalf("nil set should enable all patterns, got %d", len(all.Patterns()))
	}
}

func TestDetectorFaultIsolation(t *testing.T) {
	e := NewEngine(nil, nil)
	ctx := NewContext([]model.Bar{mkBar(0, 0, 450, 450.2, 449.8, 450.1, 1000)}, DefaultParams())

	panics := Detector{Pattern: model.VolumeSpike, Detect: func(*Context) ([]model.Signal, error) {
		panic("boom")
	}}
	if got := e.runDetector(ctx, panics); got != nil {
		t.Fatalf("panicking detector returned %v", got)
	}

	fails := Detector{Pattern: model.VolumeSpike, Detect: func(*Context) ([]model.Signal, error) {
		return nil, errors.New("bad input")
	}}
	if got := e.runDetector(ctx, fails); got != nil {
		t.Fatalf("failing detector returned %v", got)
	}
}

func TestScanOrderedAndBounded(t *testing.T) {
	var bars []model.Bar
	price := 450.0
	for d := 0; d < 3; d++ {
		for i := 0; i < barsPerDay; i++ {
			// A deterministic wobble with trend changes to trip several
			// detectors.
			drift := 0.15 * math.Sin(float64(i)/7)
			o := price
			c := price + drift
			h := math.Max(o, c) + 0.10
			l := math.Min(o, c) - 0.10
			v := int64(1000 + 900*((i*7)%5))
			bars = append(bars, mkBar(d, i*5, o, h, l, c, v))
			price = c
		}
	}

	e := NewEngine(nil, nil)
	sigs := e.Scan(bars, DefaultParams())
	for i, s := range sigs {
		if !s.Pattern.IsValid() {
			t.Fatalf("invalid pattern %q", s.Pattern)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Fatalf("confidence %v out of range", s.Confidence)
		}
		if i > 0 && s.TS.Before(sigs[i-1].TS) {
			t.Fatalf("signals out of order at %d: %v before %v", i, s.TS, sigs[i-1].TS)
		}
	}

	// Scanning the same series twice is deterministic.
	again := e.Scan(bars, DefaultParams())
	if len(again) != len(sigs) {
		t.Fatalf("rescan produced %d signals, first scan %d", len(again), len(sigs))
	}
	for i := range sigs {
		if sigs[i].Pattern != again[i].Pattern || !sigs[i].TS.Equal(again[i].TS) {
			t.Fatalf("rescan diverged at %d", i)
		}
	}
}

func TestScanEmptyBars(t *testing.T) {
	e := NewEngine(nil, nil)
	if got := e.Scan(nil, DefaultParams()); got != nil {
		t.Fatalf("empty scan returned %v", got)
	}
}
