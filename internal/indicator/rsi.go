package indicator

// RSI computes the Relative Strength Index with Wilder's smoothing: the
// gain/loss averages seed with an SMA over the first period deltas and then
// update as avg = (avg*(period-1) + x) / period.
//
// A zero average loss yields NaN for that entry, not 100: an oscillator
// with no losses in the window is undefined rather than pinned at a rail.
// The first defined value is at index period (period deltas are required).
func RSI(close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i < len(close); i++ {
		delta := close[i] - close[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i <= period {
			avgGain += gain
			avgLoss += loss
			if i == period {
				avgGain /= float64(period)
				avgLoss /= float64(period)
				out[i] = rsiValue(avgGain, avgLoss)
			}
			continue
		}

		p := float64(period)
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return nan
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
