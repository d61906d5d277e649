package marketdata

import (
	"math"
	"math/rand"
	"time"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"
)

const (
	// BarsPerDay is the number of 5-minute bars in a regular session
	// (9:30 to 16:00).
	BarsPerDay = 78

	// BarInterval is the simulated bar width.
	BarInterval = 5 * time.Minute
)

// SimConfig controls the synthetic intraday generator.
type SimConfig struct {
	BasePrice float64 // first day's open, e.g. 450 for SPY
	DailyVol  float64 // per-day return stddev, fraction (0.01 = 1%)
	GapVol    float64 // overnight gap stddev, fraction
	BaseVol   int64   // mean per-bar volume
}

// DefaultSimConfig returns SPY-like parameters.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		BasePrice: 450.0,
		DailyVol:  0.012,
		GapVol:    0.004,
		BaseVol:   500000,
	}
}

// dateOrdinal counts calendar days since 0001-01-01 (day 1), ignoring the
// time of day and location. Two runs over the same calendar day always get
// the same ordinal, so the per-day RNG streams are reproducible no matter
// when or where the simulation runs.
func dateOrdinal(date time.Time) int64 {
	y, m, d := date.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	const epochOrdinal = 719163 // ordinal of 1970-01-01
	return utc.Unix()/86400 + epochOrdinal
}

// SimulateDays generates n consecutive trading days of 5-minute bars ending
// on the trading day at or before end. Each day is seeded by its own date
// ordinal, so regenerating any single day yields identical bars regardless
// of the requested range. Weekends and exchange holidays are skipped.
func SimulateDays(cfg SimConfig, end time.Time, n int) []model.Bar {
	dates := make([]time.Time, 0, n)
	d := end.In(markethours.NY)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, markethours.NY)
	for len(dates) < n {
		if markethours.IsTradingDay(d) {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	// dates are newest-first; reverse into chronological order.
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}

	bars := make([]model.Bar, 0, n*BarsPerDay)
	for _, date := range dates {
		bars = append(bars, simulateDay(cfg, date)...)
	}
	return AttachPrevDay(bars)
}

// simulateDay builds one session as a geometric random walk around the
// base price, with a mild volume smile (heavier at the open and close).
// Each day draws only from its own ordinal-seeded stream, never from a
// neighboring day, which is what makes single-day regeneration stable.
func simulateDay(cfg SimConfig, date time.Time) []model.Bar {
	rng := rand.New(rand.NewSource(dateOrdinal(date)))

	open := cfg.BasePrice * (1 + rng.NormFloat64()*cfg.GapVol)
	barVol := cfg.DailyVol / math.Sqrt(BarsPerDay)
	drift := rng.NormFloat64() * cfg.DailyVol * 0.3 / BarsPerDay

	sessionOpen := time.Date(date.Year(), date.Month(), date.Day(),
		markethours.OpenHour, markethours.OpenMinute, 0, 0, markethours.NY)

	bars := make([]model.Bar, 0, BarsPerDay)
	price := open
	for i := 0; i < BarsPerDay; i++ {
		ts := sessionOpen.Add(time.Duration(i) * BarInterval)
		o := price
		c := o * (1 + drift + rng.NormFloat64()*barVol)
		spread := math.Abs(rng.NormFloat64()) * barVol * o * 0.6
		h := math.Max(o, c) + spread
		l := math.Min(o, c) - spread

		// U-shaped volume: first and last half hour run heavier.
		smile := 1.0
		if i < 6 || i >= BarsPerDay-6 {
			smile = 1.8
		}
		v := int64(float64(cfg.BaseVol) * smile * (0.5 + rng.Float64()))

		bars = append(bars, model.NewBar(ts, o, h, l, c, v))
		price = c
	}
	return bars
}
