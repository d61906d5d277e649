// Package pattern implements the intraday pattern detection engine.
//
// A scan builds one immutable Context over the bar series (all indicator
// series precomputed once), then runs every enabled detector against it.
// Detectors are independent: a failing detector is logged and skipped, it
// never aborts the scan or suppresses other detectors' signals.
package pattern

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"odte-scanner/internal/indicator"
	"odte-scanner/internal/model"
)

// Detector finds every occurrence of one pattern across the scan context.
// Implementations must treat the context as read-only.
type Detector struct {
	Pattern model.Pattern
	Detect  func(*Context) ([]model.Signal, error)
}

// Registry returns all detectors in canonical order. The order is the
// tie-break for signals sharing a timestamp, so it must stay stable.
func Registry() []Detector {
	return []Detector{
		{model.OpeningRangeBreakout, detectORBLong},
		{model.OpeningRangeBreakdown, detectORBShort},
		{model.VWAPRejectionLong, detectVWAPRejectionLong},
		{model.VWAPRejectionShort, detectVWAPRejectionShort},
		{model.VWAPCrossoverLong, detectVWAPCrossLong},
		{model.VWAPCrossoverShort, detectVWAPCrossShort},
		{model.MACDBullishCross, detectMACDBullish},
		{model.MACDBearishCross, detectMACDBearish},
		{model.RSIOversoldBounce, detectRSIOversold},
		{model.RSIOverboughtFade, detectRSIOverbought},
		{model.EMABullishCross, detectEMABullish},
		{model.EMABearishCross, detectEMABearish},
		{model.BollingerSqueeze, detectBollingerSqueeze},
		{model.VolumeSpike, detectVolumeSpike},
		{model.MeanReversionLong, detectMeanReversionLong},
		{model.MeanReversionShort, detectMeanReversionShort},
		{model.GapFillLong, detectGapFillLong},
		{model.GapFillShort, detectGapFillShort},
		{model.PrevDayHighBreak, detectPrevDayHighBreak},
		{model.PrevDayLowBreak, detectPrevDayLowBreak},
		{model.MiddayReversal, detectMiddayReversal},
		{model.PowerHourMomentum, detectPowerHour},
		{model.DoubleBottom, detectDoubleBottom},
		{model.DoubleTop, detectDoubleTop},
		{model.SupportBounce, detectSupportBounce},
		{model.ResistanceRejection, detectResistanceRejection},
	}
}

// Context is the shared, read-only input for one scan. All indicator
// series are aligned 1:1 with Bars and precomputed by NewContext, so the
// detectors never recompute or mutate anything.
type Context struct {
	Bars   []model.Bar
	Days   []model.DaySpan
	Params Params

	High, Low, Close []float64

	VWAP    []float64
	RSI     []float64
	MACD    indicator.MACDResult
	ADX     indicator.ADXResult
	ATR     []float64
	EMAFast []float64
	EMASlow []float64
	BB      indicator.BollingerResult
	ZScore  []float64
	VolSMA  []float64
	Volume  []float64

	Supports    []float64
	Resistances []float64
}

// NewContext precomputes every indicator series a detector may need.
func NewContext(bars []model.Bar, p Params) *Context {
	n := len(bars)
	c := &Context{
		Bars:   bars,
		Days:   model.Days(bars),
		Params: p,
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

	c.VWAP = dayVWAP(bars, c.Days)
	c.RSI = indicator.RSI(c.Close, p.RSIPeriod)
	c.MACD = indicator.MACD(c.Close, p.MACDFast, p.MACDSlow, p.MACDSignal)
	c.ADX = indicator.ADX(c.High, c.Low, c.Close, p.ADXPeriod)
	c.ATR = indicator.ATR(c.High, c.Low, c.Close, p.ATRPeriod)
	c.EMAFast = indicator.EMA(c.Close, p.EMAFastPeriod)
	c.EMASlow = indicator.EMA(c.Close, p.EMASlowPeriod)
	c.BB = indicator.BollingerBands(c.Close, p.BBPeriod, p.BBStdDev)
	c.ZScore = indicator.ZScore(c.Close, p.BBPeriod)
	c.VolSMA = indicator.SMA(c.Volume, p.VolumeSMAPeriod)

	lookback := p.SRLookbackDays * barsPerDay
	c.Supports, c.Resistances = indicator.FindSupportResistance(c.High, c.Low, c.Close, lookback, p.SRNumLevels)
	return c
}

// 6.5 regular-session hours of 5-minute bars.
const barsPerDay = 78

// atr returns the ATR at bar i, or 1.0 while the series is still warming
// up. Stops and targets need a nonzero width from the first bar on.
func (c *Context) atr(i int) float64 {
	if i < len(c.ATR) && indicator.Valid(c.ATR[i]) {
		return c.ATR[i]
	}
	return 1.0
}

func dayVWAP(bars []model.Bar, days []model.DaySpan) []float64 {
	out := make([]float64, len(bars))
	for _, d := range days {
		var pv, vol float64
		for i := d.Start; i < d.End; i++ {
			b := bars[i]
			tp := (b.High + b.Low + b.Close) / 3
			pv += tp * float64(b.Volume)
			vol += float64(b.Volume)
			if vol > 0 {
				out[i] = pv / vol
			} else {
				out[i] = b.Close
			}
		}
	}
	return out
}

// Engine runs the detector registry over bar series.
type Engine struct {
	detectors []Detector
	log       *slog.Logger
}

// NewEngine builds an engine running the detectors for the given pattern
// set. A nil or empty set enables every pattern. Unknown names are
// ignored.
func NewEngine(enabled []model.Pattern, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	all := Registry()
	if len(enabled) == 0 {
		return &Engine{detectors: all, log: log}
	}
	want := make(map[model.Pattern]bool, len(enabled))
	for _, p := range enabled {
		want[p] = true
	}
	var ds []Detector
	for _, d := range all {
		if want[d.Pattern] {
			ds = append(ds, d)
		}
	}
	return &Engine{detectors: ds, log: log}
}

// Patterns returns the enabled pattern set in registry order.
func (e *Engine) Patterns() []model.Pattern {
	out := make([]model.Pattern, len(e.detectors))
	for i, d := range e.detectors {
		out[i] = d.Pattern
	}
	return out
}

// Scan runs every enabled detector over the bars and returns the merged
// signal list, sorted by timestamp. Detectors sharing a timestamp keep
// registry order. Detector errors and panics are logged and isolated.
func (e *Engine) Scan(bars []model.Bar, p Params) []model.Signal {
	if len(bars) == 0 {
		return nil
	}
	ctx := NewContext(bars, p)

	results := make([][]model.Signal, len(e.detectors))
	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			results[i] = e.runDetector(ctx, d)
		}(i, d)
	}
	wg.Wait()

	var merged []model.Signal
	for _, sigs := range results {
		merged = append(merged, sigs...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].TS.Before(merged[b].TS)
	})
	return merged
}

func (e *Engine) runDetector(ctx *Context, d Detector) (sigs []model.Signal) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("detector panicked", "pattern", string(d.Pattern), "panic", fmt.Sprint(r))
			sigs = nil
		}
	}()
	sigs, err := d.Detect(ctx)
	if err != nil {
		e.log.Warn("detector failed", "pattern", string(d.Pattern), "err", err)
		return nil
	}
	for i := range sigs {
		if sigs[i].Confidence > 1 {
			sigs[i].Confidence = 1
		}
		if sigs[i].Confidence < 0 {
			sigs[i].Confidence = 0
		}
	}
	return sigs
}

func minuteOfDay(ts time.Time) int {
	return ts.Hour()*60 + ts.Minute()
}
