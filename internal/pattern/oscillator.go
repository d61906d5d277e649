package pattern

import (
	"fmt"

	"odte-scanner/internal/indicator"
	"odte-scanner/internal/model"
)

func detectMACDBullish(c *Context) ([]model.Signal, error) {
	line, sig := c.MACD.Line, c.MACD.Signal
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !indicator.Valid(line[i-1]) || !indicator.Valid(sig[i-1]) {
			continue
		}
		if !(line[i-1] <= sig[i-1] && line[i] > sig[i]) {
			continue
		}
		conf := 0.55
		if c.ADX.ADX[i] > c.Params.ADXThreshold {
			conf += 0.1
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.MACDBullishCross, Direction: model.Long,
			Confidence: conf, EntryPrice: c.Close[i],
			StopPrice: c.Close[i] - a, TargetPrice: c.Close[i] + 1.5*a,
			Description: "MACD line crossed above signal line",
		})
	}
	return out, nil
}

func detectMACDBearish(c *Context) ([]model.Signal, error) {
	line, sig := c.MACD.Line, c.MACD.Signal
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !indicator.Valid(line[i-1]) || !indicator.Valid(sig[i-1]) {
			continue
		}
		if !(line[i-1] >= sig[i-1] && line[i] < sig[i]) {
			continue
		}
		conf := 0.55
		if c.ADX.ADX[i] > c.Params.ADXThreshold {
			conf += 0.1
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.MACDBearishCross, Direction: model.Short,
			Confidence: conf, EntryPrice: c.Close[i],
			StopPrice: c.Close[i] + a, TargetPrice: c.Close[i] - 1.5*a,
			Description: "MACD line crossed below signal line",
		})
	}
	return out, nil
}

func detectRSIOversold(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !(c.RSI[i-1] < p.RSIOversold && c.RSI[i] >= p.RSIOversold) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.RSIOversoldBounce, Direction: model.Long,
			Confidence: 0.6, EntryPrice: c.Close[i],
			StopPrice: c.Low[i] - 0.3*a, TargetPrice: c.Close[i] + a,
			Description: fmt.Sprintf("RSI recovered from oversold (%.1f)", c.RSI[i]),
		})
	}
	return out, nil
}

func detectRSIOverbought(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !(c.RSI[i-1] > p.RSIOverbought && c.RSI[i] <= p.RSIOverbought) {
			continue
		}
		a := c.atr(i)
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.RSIOverboughtFade, Direction: model.Short,
			Confidence: 0.6, EntryPrice: c.Close[i],
			StopPrice: c.High[i] + 0.3*a, TargetPrice: c.Close[i] - a,
			Description: fmt.Sprintf("RSI rolled over from overbought (%.1f)", c.RSI[i]),
		})
	}
	return out, nil
}

// Bollinger squeeze: a low-bandwidth episode followed by an expansion bar
// closing outside the bands. One signal per squeeze episode.
func detectBollingerSqueeze(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	inSqueeze := false
	for i := 0; i < len(c.Bars); i++ {
		bw := c.BB.Bandwidth[i]
		if !indicator.Valid(bw) {
			continue
		}
		if bw < p.BBSqueezeThreshold {
			inSqueeze = true
			continue
		}
		if !inSqueeze {
			continue
		}
		inSqueeze = false

		a := c.atr(i)
		price := c.Close[i]
		switch {
		case price > c.BB.Upper[i]:
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.BollingerSqueeze, Direction: model.Long,
				Confidence: 0.65, EntryPrice: price,
				StopPrice: price - a, TargetPrice: price + 1.5*a,
				Description: "Squeeze released upward through upper band",
			})
		case price < c.BB.Lower[i]:
			out = append(out, model.Signal{
				TS: c.Bars[i].TS, Pattern: model.BollingerSqueeze, Direction: model.Short,
				Confidence: 0.65, EntryPrice: price,
				StopPrice: price + a, TargetPrice: price - 1.5*a,
				Description: "Squeeze released downward through lower band",
			})
		}
	}
	return out, nil
}

func detectMeanReversionLong(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !(c.ZScore[i-1] < -p.MeanRevZScore && c.ZScore[i] >= -p.MeanRevZScore) {
			continue
		}
		a := c.atr(i)
		target := c.Close[i] + a
		if indicator.Valid(c.BB.Middle[i]) {
			target = c.BB.Middle[i]
		}
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.MeanReversionLong, Direction: model.Long,
			Confidence: 0.6, EntryPrice: c.Close[i],
			StopPrice: c.Close[i] - a, TargetPrice: target,
			Description: fmt.Sprintf("Z-score reverting from %.2f", c.ZScore[i-1]),
		})
	}
	return out, nil
}

func detectMeanReversionShort(c *Context) ([]model.Signal, error) {
	p := c.Params
	var out []model.Signal
	for i := 1; i < len(c.Bars); i++ {
		if !(c.ZScore[i-1] > p.MeanRevZScore && c.ZScore[i] <= p.MeanRevZScore) {
			continue
		}
		a := c.atr(i)
		target := c.Close[i] - a
		if indicator.Valid(c.BB.Middle[i]) {
			target = c.BB.Middle[i]
		}
		out = append(out, model.Signal{
			TS: c.Bars[i].TS, Pattern: model.MeanReversionShort, Direction: model.Short,
			Confidence: 0.6, EntryPrice: c.Close[i],
			StopPrice: c.Close[i] + a, TargetPrice: target,
			Description: fmt.Sprintf("Z-score reverting from %.2f", c.ZScore[i-1]),
		})
	}
	return out, nil
}
