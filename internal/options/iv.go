package options

import "time"

// EstimateIV scales a baseline daily volatility up for the intraday decay
// profile of a same-day contract. The multiplier steps down as the close
// approaches: early-session quotes carry the largest uncertainty premium.
func EstimateIV(baseIV float64, timeToClose time.Duration) float64 {
	h := timeToClose.Hours()
	switch {
	case h > 5:
		return baseIV * 2.5
	case h > 3:
		return baseIV * 2.0
	case h > 1:
		return baseIV * 1.5
	default:
		return baseIV * 1.2
	}
}

// TimeToExpiryYears converts the remaining time to expiry into the
// trading-year fraction used by Price. Non-positive durations map to 0,
// which Price treats as expiration.
func TimeToExpiryYears(until time.Duration) float64 {
	if until <= 0 {
		return 0
	}
	return until.Seconds() / (TradingDaysPerYear * TradingHoursPerDay * 3600)
}
