package indicator

// MACDResult bundles the three MACD series.
type MACDResult struct {
	Line      []float64 // fast EMA − slow EMA
	Signal    []float64 // EMA of Line
	Histogram []float64 // Line − Signal
}

// MACD computes Moving Average Convergence Divergence. Typical parameters
// are fast=12, slow=26, signal=9. Each output entry is NaN until every
// constituent EMA has warmed up.
func MACD(close []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)

	line := nanSeries(len(close))
	for i := range close {
		if Valid(fastEMA[i]) && Valid(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}

	sig := EMA(line, signal)

	hist := nanSeries(len(close))
	for i := range close {
		if Valid(line[i]) && Valid(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
