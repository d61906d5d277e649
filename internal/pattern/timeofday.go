package pattern

import (
	"fmt"
	"math"

	"odte-scanner/internal/model"
)

// Midday reversal: a strong morning trend that stalls and turns during the
// lunch window, with RSI confirming exhaustion and three consecutive
// closes against the morning direction.
func detectMiddayReversal(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for _, day := range c.Days {
		morningEnd := day.End
		windowEnd := day.End
		for i := day.Start; i < day.End; i++ {
			mod := minuteOfDay(c.Bars[i].TS)
			if mod >= p.MiddayStart && morningEnd == day.End {
				morningEnd = i
			}
			if mod >= p.MiddayEnd {
				windowEnd = i
				break
			}
		}
		if morningEnd-day.Start < 5 || windowEnd-morningEnd < 3 {
			continue
		}
		morningMove := c.Close[morningEnd-1] - c.Bars[day.Start].Open

		winHigh, winLow := math.Inf(-1), math.Inf(1)
		for i := morningEnd; i < windowEnd; i++ {
			winHigh = math.Max(winHigh, c.High[i])
			winLow = math.Min(winLow, c.Low[i])
			if i-morningEnd < 2 {
				continue
			}
			a := c.atr(i)
			falling := c.Close[i] < c.Close[i-1] && c.Close[i-1] < c.Close[i-2]
			rising := c.Close[i] > c.Close[i-1] && c.Close[i-1] > c.Close[i-2]

			if morningMove > 0.5*a && c.RSI[i] > 65 && falling {
				out = append(out, model.Signal{
					TS: c.Bars[i].TS, Pattern: model.MiddayReversal, Direction: model.Short,
					Confidence: 0.6, EntryPrice: c.Close[i],
					StopPrice: winHigh, TargetPrice: c.Close[i] - 0.8*a,
					Description: fmt.Sprintf("Morning rally of %.2f fading at midday", morningMove),
				})
				break
			}
			if morningMove < -0.5*a && c.RSI[i] < 35 && rising {
				out = append(out, model.Signal{
					TS: c.Bars[i].TS, Pattern: model.MiddayReversal, Direction: model.Long,
					Confidence: 0.6, EntryPrice: c.Close[i],
					StopPrice: winLow, TargetPrice: c.Close[i] + 0.8*a,
					Description: fmt.Sprintf("Morning selloff of %.2f recovering at midday", morningMove),
				})
				break
			}
		}
	}
	return out, nil
}

// Power hour momentum: the established day trend reasserting itself in the
// first bars after 15:00, sized for the final-hour push into the close.
func detectPowerHour(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for _, day := range c.Days {
		winStart := day.End
		winEnd := day.End
		for i := day.Start; i < day.End; i++ {
			mod := minuteOfDay(c.Bars[i].TS)
			if mod >= p.PowerHourStart && winStart == day.End {
				winStart = i
			}
			if mod >= p.PowerHourEnd {
				winEnd = i
				break
			}
		}
		if winStart-day.Start < 10 || winEnd-winStart < 3 {
			continue
		}

		dayMove := c.Close[winStart-1] - c.Bars[day.Start].Open
		i := winStart + 2
		a := c.atr(i)
		if math.Abs(dayMove) <= 0.5*a || c.ADX.ADX[i] <= 20 {
			continue
		}
		firstMoves := c.Close[i] - c.Close[winStart]
		if firstMoves == 0 || (firstMoves > 0) != (dayMove > 0) {
			continue
		}

		lo := math.Min(c.Low[winStart], math.Min(c.Low[winStart+1], c.Low[i]))
		hi := math.Max(c.High[winStart], math.Max(c.High[winStart+1], c.High[i]))
		if dayMove > 0 {
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.PowerHourMomentum, Direction: model.Long,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: lo, TargetPrice: c.Close[i] + 0.5*a,
				Description: fmt.Sprintf("Uptrend of %.2f resuming into the close", dayMove),
			})
		} else {
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.PowerHourMomentum, Direction: model.Short,
				Confidence: 0.6, EntryPrice: c.Close[i],
				StopPrice: hi, TargetPrice: c.Close[i] - 0.5*a,
				Description: fmt.Sprintf("Downtrend of %.2f resuming into the close", dayMove),
			})
		}
	}
	return out, nil
}
