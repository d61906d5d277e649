// Package model defines the shared data types for the scanner: intraday
// bars, pattern signals, option contracts/trades, and backtest results.
//
// Prices are US dollars as float64. Bar timestamps are exchange-local
// (America/New_York) at minute resolution; bars for one trading day are
// contiguous and strictly increasing.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// Bar is one OHLCV observation for a fixed intraday interval.
//
// PrevOpen..PrevVolume carry the previous trading day's aggregates when the
// enrichment step has run; they are NaN (volume: 0) otherwise. Detectors
// that need them must treat NaN as "column missing".
type Bar struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`

	PrevOpen   float64 `json:"-"`
	PrevHigh   float64 `json:"-"`
	PrevLow    float64 `json:"-"`
	PrevClose  float64 `json:"-"`
	PrevVolume int64   `json:"prev_volume,omitempty"`
}

// barJSON mirrors Bar on the wire. The previous-day columns use pointers
// because JSON has no NaN: absent means "column missing".
type barJSON struct {
	*barAlias
	PrevOpen  *float64 `json:"prev_open,omitempty"`
	PrevHigh  *float64 `json:"prev_high,omitempty"`
	PrevLow   *float64 `json:"prev_low,omitempty"`
	PrevClose *float64 `json:"prev_close,omitempty"`
}

type barAlias Bar

func (b Bar) MarshalJSON() ([]byte, error) {
	out := barJSON{barAlias: (*barAlias)(&b)}
	if b.HasPrevDay() {
		out.PrevOpen = &b.PrevOpen
		out.PrevHigh = &b.PrevHigh
		out.PrevLow = &b.PrevLow
		out.PrevClose = &b.PrevClose
	}
	return json.Marshal(out)
}

func (b *Bar) UnmarshalJSON(data []byte) error {
	in := barJSON{barAlias: (*barAlias)(b)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	nan := math.NaN()
	b.PrevOpen, b.PrevHigh, b.PrevLow, b.PrevClose = nan, nan, nan, nan
	if in.PrevClose != nil {
		b.PrevClose = *in.PrevClose
	}
	if in.PrevOpen != nil {
		b.PrevOpen = *in.PrevOpen
	}
	if in.PrevHigh != nil {
		b.PrevHigh = *in.PrevHigh
	}
	if in.PrevLow != nil {
		b.PrevLow = *in.PrevLow
	}
	return nil
}

// Date returns the bar's calendar day in its own location.
func (b *Bar) Date() time.Time {
	y, m, d := b.TS.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.TS.Location())
}

// HasPrevDay reports whether previous-day levels are attached.
func (b *Bar) HasPrevDay() bool {
	return !math.IsNaN(b.PrevClose)
}

// NewBar builds a bar with the previous-day columns marked absent.
func NewBar(ts time.Time, o, h, l, c float64, v int64) Bar {
	nan := math.NaN()
	return Bar{
		TS: ts, Open: o, High: h, Low: l, Close: c, Volume: v,
		PrevOpen: nan, PrevHigh: nan, PrevLow: nan, PrevClose: nan,
	}
}

// DaySpan is a half-open index range [Start, End) into a bar slice covering
// exactly one calendar day. Precomputing spans avoids re-grouping the full
// series on every per-day scan.
type DaySpan struct {
	Date  time.Time // midnight, bar-local
	Start int
	End   int
}

// Bars slices the day's bars out of the arena.
func (d DaySpan) Bars(bars []Bar) []Bar {
	return bars[d.Start:d.End]
}

// Days indexes a time-sorted bar slice into per-day spans.
func Days(bars []Bar) []DaySpan {
	var spans []DaySpan
	for i := 0; i < len(bars); {
		date := bars[i].Date()
		j := i + 1
		for j < len(bars) && bars[j].Date().Equal(date) {
			j++
		}
		spans = append(spans, DaySpan{Date: date, Start: i, End: j})
		i = j
	}
	return spans
}
