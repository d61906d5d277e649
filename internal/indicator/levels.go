package indicator

import "sort"

// FindSupportResistance locates support and resistance levels by histogram
// clustering of recent highs and lows.
//
// The last lookback highs+lows are binned into fixed-width buckets sized at
// 0.5% of the observed price range. Buckets that are local maxima of the
// histogram with occupancy ≥ 2 become level candidates, ranked by occupancy
// descending, then split into supports (below the current price, the final
// close) and resistances (above or at it). At most numLevels of each are
// returned.
func FindSupportResistance(high, low, close []float64, lookback, numLevels int) (supports, resistances []float64) {
	if len(close) == 0 || numLevels <= 0 {
		return nil, nil
	}
	if lookback <= 0 || lookback > len(close) {
		lookback = len(close)
	}

	prices := make([]float64, 0, 2*lookback)
	prices = append(prices, high[len(high)-lookback:]...)
	prices = append(prices, low[len(low)-lookback:]...)

	minP, maxP := prices[0], prices[0]
	for _, p := range prices {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	priceRange := maxP - minP
	if priceRange == 0 {
		return nil, nil
	}

	binSize := priceRange * 0.005
	nBins := int(priceRange/binSize) + 1
	counts := make([]int, nBins)
	for _, p := range prices {
		idx := int((p - minP) / binSize)
		if idx >= nBins {
			idx = nBins - 1
		}
		counts[idx]++
	}

	type candidate struct {
		level float64
		count int
	}
	var cands []candidate
	for i := 1; i < nBins-1; i++ {
		if counts[i] >= counts[i-1] && counts[i] >= counts[i+1] && counts[i] >= 2 {
			mid := minP + (float64(i)+0.5)*binSize
			cands = append(cands, candidate{level: mid, count: counts[i]})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].count > cands[j].count })

	current := close[len(close)-1]
	for _, c := range cands {
		if len(supports)+len(resistances) >= numLevels*2 {
			break
		}
		if c.level < current {
			supports = append(supports, c.level)
		} else {
			resistances = append(resistances, c.level)
		}
	}
	if len(supports) > numLevels {
		supports = supports[:numLevels]
	}
	if len(resistances) > numLevels {
		resistances = resistances[:numLevels]
	}
	return supports, resistances
}

// DetectDoubleTop reports whether the trailing lookback window of highs
// contains a double-top: its two tallest local peaks within tolerancePct of
// each other and more than 5 bars apart. A local peak must exceed both
// one- and two-bar neighbors on each side.
func DetectDoubleTop(high []float64, lookback int, tolerancePct float64) bool {
	peaks := localExtrema(tail(high, lookback), true)
	if len(peaks) < 2 {
		return false
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].value > peaks[j].value })
	p1, p2 := peaks[0], peaks[1]
	tolerance := p1.value * tolerancePct / 100
	return absF(p1.value-p2.value) < tolerance && absI(p1.index-p2.index) > 5
}

// DetectDoubleBottom is the mirror of DetectDoubleTop over lows.
func DetectDoubleBottom(low []float64, lookback int, tolerancePct float64) bool {
	troughs := localExtrema(tail(low, lookback), false)
	if len(troughs) < 2 {
		return false
	}
	sort.SliceStable(troughs, func(i, j int) bool { return troughs[i].value < troughs[j].value })
	t1, t2 := troughs[0], troughs[1]
	tolerance := t1.value * tolerancePct / 100
	return absF(t1.value-t2.value) < tolerance && absI(t1.index-t2.index) > 5
}

type extremum struct {
	index int
	value float64
}

// localExtrema finds strict local maxima (or minima) that dominate both
// immediate and second neighbors. Windows shorter than 10 bars produce
// nothing; there is too little structure to call a pattern.
func localExtrema(series []float64, peak bool) []extremum {
	if len(series) < 10 {
		return nil
	}
	var out []extremum
	for i := 2; i < len(series)-2; i++ {
		v := series[i]
		if peak {
			if v > series[i-1] && v > series[i+1] && v > series[i-2] && v > series[i+2] {
				out = append(out, extremum{index: i, value: v})
			}
		} else {
			if v < series[i-1] && v < series[i+1] && v < series[i-2] && v < series[i+2] {
				out = append(out, extremum{index: i, value: v})
			}
		}
	}
	return out
}

func tail(series []float64, n int) []float64 {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absI(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
