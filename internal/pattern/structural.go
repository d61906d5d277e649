package pattern

import (
	"fmt"
	"math"

	"odte-scanner/internal/indicator"
	"odte-scanner/internal/model"
)

// Tolerance between the two extremes of an intraday double top or bottom,
// as a percent of price.
const doubleTolerancePct = 0.2

func detectDoubleBottom(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 15; i < day.End; i++ {
			lows := c.Low[day.Start : i+1]
			if !indicator.DetectDoubleBottom(lows, len(lows), doubleTolerancePct) {
				continue
			}
			minLow := math.Inf(1)
			for _, l := range lows {
				minLow = math.Min(minLow, l)
			}
			a := c.atr(i)
			entry := c.Close[i]
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.DoubleBottom, Direction: model.Long,
				Confidence: 0.65, EntryPrice: entry,
				StopPrice: minLow - 0.2*a, TargetPrice: entry + (entry - minLow),
				Description: fmt.Sprintf("Double bottom holding %.2f", minLow),
			})
			break
		}
	}
	return out, nil
}

func detectDoubleTop(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for _, day := range c.Days {
		for i := day.Start + 15; i < day.End; i++ {
			highs := c.High[day.Start : i+1]
			if !indicator.DetectDoubleTop(highs, len(highs), doubleTolerancePct) {
				continue
			}
			maxHigh := math.Inf(-1)
			for _, h := range highs {
				maxHigh = math.Max(maxHigh, h)
			}
			a := c.atr(i)
			entry := c.Close[i]
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.DoubleTop, Direction: model.Short,
				Confidence: 0.65, EntryPrice: entry,
				StopPrice: maxHigh + 0.2*a, TargetPrice: entry - (maxHigh - entry),
				Description: fmt.Sprintf("Double top rejecting %.2f", maxHigh),
			})
			break
		}
	}
	return out, nil
}

// Support bounce: the prior bar's low tested a ranked support level within
// the proximity band and the current bar closed back up.
func detectSupportBounce(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		for _, level := range c.Supports {
			prox := absF(c.Low[i-1]-level) / level * 100
			if prox >= p.SRProximityPct || c.Close[i] <= c.Close[i-1] {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.SupportBounce, Direction: model.Long,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: level - 0.3*a, TargetPrice: c.Close[i] + a,
				Description: fmt.Sprintf("Bounced off support %.2f", level),
				Metadata:    map[string]float64{"support_level": level},
			})
			break
		}
	}
	return out, nil
}

func detectResistanceRejection(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		for _, level := range c.Resistances {
			prox := absF(c.High[i-1]-level) / level * 100
			if prox >= p.SRProximityPct || c.Close[i] >= c.Close[i-1] {
				continue
			}
			a := c.atr(i)
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.ResistanceRejection, Direction: model.Short,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: level + 0.3*a, TargetPrice: c.Close[i] - a,
				Description: fmt.Sprintf("Rejected at resistance %.2f", level),
				Metadata:    map[string]float64{"resistance_level": level},
			})
			break
		}
	}
	return out, nil
}
