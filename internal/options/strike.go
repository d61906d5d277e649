package options

import (
	"math"

	"odte-scanner/internal/model"
)

// Moneyness picks which strike to trade relative to the underlying.
type Moneyness string

const (
	ATM  Moneyness = "atm"
	OTM1 Moneyness = "otm1"
	OTM2 Moneyness = "otm2"
	ITM1 Moneyness = "itm1"
)

// StrikeTick is the strike spacing of the traded chain.
const StrikeTick = 1.0

// SelectStrike rounds the underlying to the nearest tick and applies the
// moneyness offset. Out-of-the-money is above spot for calls, below for
// puts; in-the-money is the opposite.
func SelectStrike(underlying float64, kind model.OptionType, m Moneyness) float64 {
	atm := math.Round(underlying/StrikeTick) * StrikeTick

	var offset float64
	switch m {
	case OTM1:
		offset = 1
	case OTM2:
		offset = 2
	case ITM1:
		offset = -1
	default:
		offset = 0
	}
	if kind == model.Put {
		offset = -offset
	}
	return atm + offset*StrikeTick
}

// StrikeForSignal maps a signal direction to the contract kind and an
// at-the-money strike. Long signals buy calls, short signals buy puts.
func StrikeForSignal(underlying float64, dir model.Direction, m Moneyness) (model.OptionType, float64) {
	kind := model.Call
	if dir == model.Short {
		kind = model.Put
	}
	return kind, SelectStrike(underlying, kind, m)
}
