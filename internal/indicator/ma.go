package indicator

// SMA computes a simple moving average over a rolling window.
// Entries before index period-1 are NaN. Uses a running sum so the whole
// series costs O(n).
func SMA(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period <= 0 || len(series) < period {
		return out
	}
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes an exponential moving average with multiplier 2/(period+1),
// seeded with the SMA of the first period values. Leading NaNs in the input
// (e.g. when smoothing another indicator's output) are skipped before
// seeding, so EMA(MACD(...), n) warms up correctly.
func EMA(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period <= 0 {
		return out
	}
	mult := 2.0 / float64(period+1)

	sum := 0.0
	seen := 0
	seeded := false
	prev := 0.0
	for i, v := range series {
		if !Valid(v) {
			continue
		}
		if !seeded {
			sum += v
			seen++
			if seen == period {
				prev = sum / float64(period)
				out[i] = prev
				seeded = true
			}
			continue
		}
		prev = v*mult + prev*(1-mult)
		out[i] = prev
	}
	return out
}

// VolumeSMA is SMA over a volume series.
func VolumeSMA(volume []int64, period int) []float64 {
	s := make([]float64, len(volume))
	for i, v := range volume {
		s[i] = float64(v)
	}
	return SMA(s, period)
}
