package pattern

import (
	"fmt"

	"odte-scanner/internal/indicator"
	"odte-scanner/internal/model"
)

func detectEMABullish(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !indicator.Valid(c.EMAFast[i-1]) || !indicator.Valid(c.EMASlow[i-1]) {
			continue
		}
		if !(c.EMAFast[i-1] <= c.EMASlow[i-1] && c.EMAFast[i] > c.EMASlow[i]) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.EMABullishCross, Direction: model.Long,
			Confidence: 0.55, EntryPrice: c.Close[i],
			StopPrice: c.EMASlow[i] - 0.3*a, TargetPrice: c.Close[i] + a,
			Description: fmt.Sprintf("Fast EMA crossed above slow EMA %.2f", c.EMASlow[i]),
		})
	}
	return out, nil
}

func detectEMABearish(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !indicator.Valid(c.EMAFast[i-1]) || !indicator.Valid(c.EMASlow[i-1]) {
			continue
		}
		if !(c.EMAFast[i-1] >= c.EMASlow[i-1] && c.EMAFast[i] < c.EMASlow[i]) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.EMABearishCross, Direction: model.Short,
			Confidence: 0.55, EntryPrice: c.Close[i],
			StopPrice: c.EMASlow[i] + 0.3*a, TargetPrice: c.Close[i] - a,
			Description: fmt.Sprintf("Fast EMA crossed below slow EMA %.2f", c.EMASlow[i]),
		})
	}
	return out, nil
}

// Volume spike continuation: an outsized-volume impulse bar followed by a
// same-direction confirmation bar. Entry is on the confirmation close.
func detectVolumeSpike(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !(c.Volume[i-1] > p.VolumeSpikeMultiplier*c.VolSMA[i-1]) {
			continue
		}
		move := c.Close[i-1] - c.Bars[i-1].Open
		confirm := c.Close[i] - c.Bars[i].Open
		a := c.atr(i)
		switch {
		case move > 0 && confirm > 0:
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VolumeSpike, Direction: model.Long,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: c.Low[i-1], TargetPrice: c.Close[i] + a,
				Description: "High-volume up bar confirmed",
			})
		case move < 0 && confirm < 0:
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.VolumeSpike, Direction: model.Short,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: c.High[i-1], TargetPrice: c.Close[i] - a,
				Description: "High-volume down bar confirmed",
			})
		}
	}
	return out, nil
}
