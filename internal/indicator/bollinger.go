package indicator

import "math"

// BollingerResult bundles the band series.
type BollingerResult struct {
	Upper     []float64
	Middle    []float64
	Lower     []float64
	Bandwidth []float64 // (upper−lower)/middle × 100
}

// BollingerBands computes mean ± stdMult·σ over a rolling window, plus the
// bandwidth percentage used for squeeze detection. σ is the sample standard
// deviation (n−1 denominator).
func BollingerBands(close []float64, period int, stdMult float64) BollingerResult {
	n := len(close)
	res := BollingerResult{
		Upper:     nanSeries(n),
		Middle:    SMA(close, period),
		Lower:     nanSeries(n),
		Bandwidth: nanSeries(n),
	}
	if period < 2 || n < period {
		return res
	}

	std := RollingStd(close, period)
	for i := period - 1; i < n; i++ {
		if !Valid(res.Middle[i]) || !Valid(std[i]) {
			continue
		}
		res.Upper[i] = res.Middle[i] + stdMult*std[i]
		res.Lower[i] = res.Middle[i] - stdMult*std[i]
		if res.Middle[i] != 0 {
			res.Bandwidth[i] = (res.Upper[i] - res.Lower[i]) / res.Middle[i] * 100
		}
	}
	return res
}

// RollingStd computes the rolling sample standard deviation. Entries before
// index period-1 are NaN.
func RollingStd(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	if period < 2 || len(series) < period {
		return out
	}
	for i := period - 1; i < len(series); i++ {
		window := series[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// ZScore computes (x − rollingMean) / rollingStd. A zero-variance window
// yields NaN.
func ZScore(series []float64, period int) []float64 {
	out := nanSeries(len(series))
	mean := SMA(series, period)
	std := RollingStd(series, period)
	for i := range series {
		if !Valid(mean[i]) || !Valid(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (series[i] - mean[i]) / std[i]
	}
	return out
}
