package indicator

import "math"

// ADXResult bundles the trend-strength series.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes the Average Directional Index with its directional
// indicators. Directional movement follows Wilder: +DM = high[i]−high[i−1]
// when it exceeds both −DM and zero, else 0 (symmetrically for −DM); both
// are smoothed with the same Wilder method as ATR, DI = 100·DM_smooth/ATR,
// DX = 100·|+DI−−DI|/(+DI+−DI) (NaN when the denominator is zero), and ADX
// is the Wilder smoothing of DX. The layered smoothers mean ADX needs
// roughly two periods of data before its first defined value.
func ADX(high, low, close []float64, period int) ADXResult {
	n := len(close)
	res := ADXResult{
		ADX:     nanSeries(n),
		PlusDI:  nanSeries(n),
		MinusDI: nanSeries(n),
	}
	if period <= 0 || n < period+1 {
		return res
	}

	plusDM := nanSeries(n)
	minusDM := nanSeries(n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := ATR(high, low, close, period)
	plusSmooth := wilderSmooth(plusDM, period, nanSeries(n))
	minusSmooth := wilderSmooth(minusDM, period, nanSeries(n))

	dx := nanSeries(n)
	for i := 0; i < n; i++ {
		if !Valid(atr[i]) || !Valid(plusSmooth[i]) || !Valid(minusSmooth[i]) || atr[i] == 0 {
			continue
		}
		res.PlusDI[i] = 100 * plusSmooth[i] / atr[i]
		res.MinusDI[i] = 100 * minusSmooth[i] / atr[i]
		sum := res.PlusDI[i] + res.MinusDI[i]
		if sum == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(res.PlusDI[i]-res.MinusDI[i]) / sum
	}

	wilderSmooth(dx, period, res.ADX)
	return res
}
