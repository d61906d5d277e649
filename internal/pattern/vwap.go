package pattern

import (
	"fmt"

	"odte-scanner/internal/model"
)

// VWAP rejection: the prior bar probed into the VWAP band and the current
// close moved away from it by more than the threshold. Price holding the
// level after a touch reads as institutional defense of VWAP.
func detectVWAPRejectionLong(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 1; i < day.End; i++ {
			v := c.VWAP[i]
			if !(absF(c.Low[i-1]-v) < p.VWAPRejectionThreshold && c.Close[i] > v+p.VWAPRejectionThreshold) {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VWAPRejectionLong, Direction: model.Long,
				Confidence: 0.65, EntryPrice: c.Close[i],
				StopPrice: v - 0.5*a, TargetPrice: c.Close[i] + a,
				Description: fmt.Sprintf("Held VWAP %.2f and pushed higher", v),
			})
		}
	}
	return out, nil
}

func detectVWAPRejectionShort(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 1; i < day.End; i++ {
			v := c.VWAP[i]
			if !(absF(c.High[i-1]-v) < p.VWAPRejectionThreshold && c.Close[i] < v-p.VWAPRejectionThreshold) {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VWAPRejectionShort, Direction: model.Short,
				Confidence: 0.65, EntryPrice: c.Close[i],
				StopPrice: v + 0.5*a, TargetPrice: c.Close[i] - a,
				Description: fmt.Sprintf("Rejected at VWAP %.2f and rolled over", v),
			})
		}
	}
	return out, nil
}

func detectVWAPCrossLong(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 1; i < day.End; i++ {
			if !(c.Close[i-1] <= c.VWAP[i-1] && c.Close[i] > c.VWAP[i]) {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VWAPCrossoverLong, Direction: model.Long,
				Confidence: 0.55, EntryPrice: c.Close[i],
				StopPrice: c.VWAP[i] - 0.3*a, TargetPrice: c.Close[i] + 0.8*a,
				Description: fmt.Sprintf("Closed above VWAP %.2f", c.VWAP[i]),
			})
		}
	}
	return out, nil
}

func detectVWAPCrossShort(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 1; i < day.End; i++ {
			if !(c.Close[i-1] >= c.VWAP[i-1] && c.Close[i] < c.VWAP[i]) {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VWAPCrossoverShort, Direction: model.Short,
				Confidence: 0.55, EntryPrice: c.Close[i],
				StopPrice: c.VWAP[i] + 0.3*a, TargetPrice: c.Close[i] - 0.8*a,
				Description: fmt.Sprintf("Closed below VWAP %.2f", c.VWAP[i]),
			})
		}
	}
	return out, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
