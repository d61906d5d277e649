package indicator

import "math"

// TrueRange computes the per-bar true range:
// max(high−low, |high−prevClose|, |low−prevClose|).
// The first bar has no previous close and uses high−low.
func TrueRange(high, low, close []float64) []float64 {
	tr := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR computes the Average True Range using the same Wilder smoothing as
// RSI: SMA seed over the first period true ranges, then
// atr = (atr*(period-1) + tr) / period. First defined value at index
// period-1.
func ATR(high, low, close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) < period {
		return out
	}
	tr := TrueRange(high, low, close)

	return wilderSmooth(tr, period, out)
}

// wilderSmooth applies Wilder's recursive smoothing over src, writing into
// out (which must be NaN-initialized and the same length). Leading NaNs in
// src are skipped before seeding.
func wilderSmooth(src []float64, period int, out []float64) []float64 {
	sum := 0.0
	seen := 0
	seeded := false
	prev := 0.0
	p := float64(period)
	for i, v := range src {
		if !Valid(v) {
			continue
		}
		if !seeded {
			sum += v
			seen++
			if seen == period {
				prev = sum / p
				out[i] = prev
				seeded = true
			}
			continue
		}
		prev = (prev*(p-1) + v) / p
		out[i] = prev
	}
	return out
}
