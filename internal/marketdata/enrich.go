// Package marketdata supplies the scanner's bar series: CSV loading, a
// deterministic intraday simulator, previous-day enrichment, and 1m→5m
// resampling. The live stream lives in the ws subpackage.
package marketdata

import (
	"time"

	"odte-scanner/internal/model"
)

// dayAgg is one day's OHLCV rollup.
type dayAgg struct {
	date                    time.Time
	open, high, low, close_ float64
	volume                  int64
}

// AttachPrevDay fills each bar's previous-day columns from the prior
// day's aggregates within the same series. The first day keeps its NaN
// markers (no prior day is visible), and detectors that need the columns
// skip those bars.
func AttachPrevDay(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	copy(out, bars)

	days := model.Days(out)
	var prev *dayAgg
	for _, d := range days {
		agg := aggregate(out[d.Start:d.End], d.Date)
		if prev != nil {
			for i := d.Start; i < d.End; i++ {
				out[i].PrevOpen = prev.open
				out[i].PrevHigh = prev.high
				out[i].PrevLow = prev.low
				out[i].PrevClose = prev.close_
				out[i].PrevVolume = prev.volume
			}
		}
		prev = &agg
	}
	return out
}

func aggregate(bars []model.Bar, date time.Time) dayAgg {
	agg := dayAgg{
		date:   date,
		open:   bars[0].Open,
		high:   bars[0].High,
		low:    bars[0].Low,
		close_: bars[len(bars)-1].Close,
	}
	for _, b := range bars {
		if b.High > agg.high {
			agg.high = b.High
		}
		if b.Low < agg.low {
			agg.low = b.Low
		}
		agg.volume += b.Volume
	}
	return agg
}
