// Package options prices short-dated option contracts with a closed-form
// lognormal model, and provides the strike-selection and implied-volatility
// heuristics used when quoting same-day-expiry trades.
package options

import (
	"math"

	"odte-scanner/internal/model"
)

const (
	// TradingDaysPerYear and TradingHoursPerDay define the trading-time
	// scale used to convert minutes-to-close into year-fraction expiries.
	TradingDaysPerYear = 252
	TradingHoursPerDay = 6.5

	// MinPremium floors any positive-expiry quote; real chains don't quote
	// below a cent.
	MinPremium = 0.01
)

// Price returns the closed-form value of a call or put.
//
// S: underlying price, K: strike, T: time to expiry in years, r: risk-free
// rate, sigma: volatility. At T ≤ 0 the price is exactly intrinsic value;
// for T > 0 it is floored at MinPremium. For same-day contracts T is tiny,
// typically between 0.0001 and 0.025.
func Price(S, K, T, r, sigma float64, kind model.OptionType) float64 {
	if T <= 0 {
		return Intrinsic(S, K, kind)
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var price float64
	if kind == model.Call {
		price = S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	} else {
		price = K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
	}

	return math.Max(price, MinPremium)
}

// Intrinsic is the option's expiration value: max(S−K, 0) for calls,
// max(K−S, 0) for puts.
func Intrinsic(S, K float64, kind model.OptionType) float64 {
	if kind == model.Call {
		return math.Max(S-K, 0)
	}
	return math.Max(K-S, 0)
}

// Greeks holds the first-order sensitivities.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64 // per calendar day
	Vega  float64 // per 1% volatility change
}

// ComputeGreeks derives delta/gamma/theta/vega from the same d1/d2 as
// Price. At T ≤ 0, delta collapses to a binary in/out-of-the-money
// indicator (signed by option kind) and the remaining Greeks are zero.
func ComputeGreeks(S, K, T, r, sigma float64, kind model.OptionType) Greeks {
	if T <= 0 {
		itm := Intrinsic(S, K, kind) > 0
		delta := 0.0
		if itm {
			delta = 1.0
		}
		if kind == model.Put {
			delta = -delta
		}
		return Greeks{Delta: delta}
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := normPDF(d1)
	g := Greeks{
		Gamma: nd1 / (S * sigma * sqrtT),
		Vega:  S * nd1 * sqrtT / 100,
	}
	if kind == model.Call {
		g.Delta = normCDF(d1)
		g.Theta = (-(S*nd1*sigma)/(2*sqrtT) - r*K*math.Exp(-r*T)*normCDF(d2)) / 365
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (-(S*nd1*sigma)/(2*sqrtT) + r*K*math.Exp(-r*T)*normCDF(-d2)) / 365
	}
	return g
}

// MinutesToYears converts minutes of remaining trading time into the
// trading-year fraction used by Price.
func MinutesToYears(minutes float64) float64 {
	return minutes / 60 / (TradingDaysPerYear * TradingHoursPerDay)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
