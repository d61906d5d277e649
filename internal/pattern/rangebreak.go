package pattern

import (
	"fmt"
	"math"

	"odte-scanner/internal/model"
)

// detectORBLong flags the first close above the opening range high (plus
// buffer) of each day. The crossing must be two-bar: the previous close at
// or below the trigger level, the current close beyond it.
func detectORBLong(c *Context) ([]model.Signal, error) {
	return detectORB(c, model.Long)
}

func detectORBShort(c *Context) ([]model.Signal, error) {
	return detectORB(c, model.Short)
}

func detectORB(c *Context, dir model.Direction) ([]model.Signal, error) {
	p := c.Params
	rangeEnd := p.MarketOpen + p.ORBMinutes

	var out []model.Signal
	for _, day := range c.Days {
		orHigh, orLow := math.Inf(-1), math.Inf(1)
		post := day.End
		for i := day.Start; i < day.End; i++ {
			if minuteOfDay(c.Bars[i].TS) >= rangeEnd {
				post = i
				break
			}
			orHigh = math.Max(orHigh, c.High[i])
			orLow = math.Min(orLow, c.Low[i])
		}
		if post == day.Start || post == day.End {
			continue
		}
		orRange := orHigh - orLow

		for i := post; i < day.End; i++ {
			if i == day.Start {
				continue
			}
			var crossed bool
			if dir == model.Long {
				level := orHigh + p.ORBBuffer
				crossed = c.Close[i-1] <= level && c.Close[i] > level
			} else {
				level := orLow - p.ORBBuffer
				crossed = c.Close[i-1] >= level && c.Close[i] < level
			}
			if !crossed {
				continue
			}

			conf := 0.5
			if c.Volume[i] > 1.5*c.VolSMA[i] {
				conf += 0.15
			}
			if c.ADX.ADX[i] > p.ADXThreshold {
				conf += 0.15
			}
			if orRange < c.atr(i) {
				conf += 0.1
			}

			entry := c.Close[i]
			var stop, target float64
			var pat model.Pattern
			var desc string
			if dir == model.Long {
				pat = model.OpeningRangeBreakout
				stop = orHigh - 0.5*orRange
				target = entry + 1.5*orRange
				desc = fmt.Sprintf("Broke above opening range high %.2f", orHigh)
			} else {
				pat = model.OpeningRangeBreakdown
				stop = orLow + 0.5*orRange
				target = entry - 1.5*orRange
				desc = fmt.Sprintf("Broke below opening range low %.2f", orLow)
			}
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: pat, Direction: dir,
				Confidence: conf, EntryPrice: entry, StopPrice: stop, TargetPrice: target,
				Description: desc,
				Metadata:    map[string]float64{"or_high": orHigh, "or_low": orLow},
			})
			break // one breakout per day per side
		}
	}
	return out, nil
}

func detectPrevDayHighBreak(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		b := &c.Bars[i]
		if !b.HasPrevDay() {
			continue
		}
		if !(c.Close[i-1] <= b.PrevHigh && c.Close[i] > b.PrevHigh) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: b.TS, Pattern: model.PrevDayHighBreak, Direction: model.Long,
			Confidence: 0.65, EntryPrice: c.Close[i],
			StopPrice: b.PrevHigh - 0.3*a, TargetPrice: c.Close[i] + a,
			Description: fmt.Sprintf("Broke above previous day high %.2f", b.PrevHigh),
		})
	}
	return out, nil
}

func detectPrevDayLowBreak(c *Context) ([]model.Signal, error) {
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		b := &c.Bars[i]
		if !b.HasPrevDay() {
			continue
		}
		if !(c.Close[i-1] >= b.PrevLow && c.Close[i] < b.PrevLow) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: b.TS, Pattern: model.PrevDayLowBreak, Direction: model.Short,
			Confidence: 0.65, EntryPrice: c.Close[i],
			StopPrice: b.PrevLow + 0.3*a, TargetPrice: c.Close[i] - a,
			Description: fmt.Sprintf("Broke below previous day low %.2f", b.PrevLow),
		})
	}
	return out, nil
}

func detectGapFillLong(c *Context) ([]model.Signal, error) {
	return detectGapFill(c, model.Long)
}

func detectGapFillShort(c *Context) ([]model.Signal, error) {
	return detectGapFill(c, model.Short)
}

// detectGapFill looks for an open displaced from the prior close by more
// than the minimum gap and signals the first bar that turns back toward
// the unfilled level. Long fills a gap down, short fades a gap up.
func detectGapFill(c *Context, dir model.Direction) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for _, day := range c.Days {
		first := &c.Bars[day.Start]
		if !first.HasPrevDay() {
			continue
		}
		gap := first.Open - first.PrevClose
		if math.Abs(gap) <= p.GapMinDollars {
			continue
		}
		if (dir == model.Long) != (gap < 0) {
			continue
		}

		end := day.Start + p.GapMaxBars
		if end > day.End {
			end = day.End
		}
		runLow, runHigh := c.Low[day.Start], c.High[day.Start]
		for i := day.Start + 1; i < end; i++ {
			runLow = math.Min(runLow, c.Low[i])
			runHigh = math.Max(runHigh, c.High[i])

			var turned bool
			var pat model.Pattern
			var stop float64
			if dir == model.Long {
				turned = c.Close[i] > c.Close[i-1]
				pat = model.GapFillLong
				stop = runLow
			} else {
				turned = c.Close[i] < c.Close[i-1]
				pat = model.GapFillShort
				stop = runHigh
			}
			if !turned {
				continue
			}
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: pat, Direction: dir,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: stop, TargetPrice: first.PrevClose,
				Description: fmt.Sprintf("Turning to fill %.2f gap toward %.2f", gap, first.PrevClose),
				Metadata:    map[string]float64{"gap_size": gap, "prev_close": first.PrevClose},
			})
			break
		}
	}
	return out, nil
}
