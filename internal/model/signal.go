package model

import (
	"fmt"
	"math"
	"time"
)

// Direction is the trade direction implied by a pattern.
// Long means "buy calls", Short means "buy puts".
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Pattern identifies one of the closed set of intraday patterns the
// detection engine knows about. The set is versioned: adding a member is a
// compatible change, renaming or removing one is not.
type Pattern string

const (
	OpeningRangeBreakout  Pattern = "opening_range_breakout"
	OpeningRangeBreakdown Pattern = "opening_range_breakdown"
	VWAPRejectionLong     Pattern = "vwap_rejection_long"
	VWAPRejectionShort    Pattern = "vwap_rejection_short"
	VWAPCrossoverLong     Pattern = "vwap_crossover_long"
	VWAPCrossoverShort    Pattern = "vwap_crossover_short"
	MACDBullishCross      Pattern = "macd_bullish_cross"
	MACDBearishCross      Pattern = "macd_bearish_cross"
	RSIOversoldBounce     Pattern = "rsi_oversold_bounce"
	RSIOverboughtFade     Pattern = "rsi_overbought_fade"
	EMABullishCross       Pattern = "ema_bullish_cross"
	EMABearishCross       Pattern = "ema_bearish_cross"
	BollingerSqueeze      Pattern = "bollinger_squeeze_breakout"
	VolumeSpike           Pattern = "volume_spike_continuation"
	MeanReversionLong     Pattern = "mean_reversion_long"
	MeanReversionShort    Pattern = "mean_reversion_short"
	GapFillLong           Pattern = "gap_fill_long"
	GapFillShort          Pattern = "gap_fill_short"
	PrevDayHighBreak      Pattern = "previous_day_high_break"
	PrevDayLowBreak       Pattern = "previous_day_low_break"
	MiddayReversal        Pattern = "midday_reversal"
	PowerHourMomentum     Pattern = "power_hour_momentum"
	DoubleBottom          Pattern = "double_bottom"
	DoubleTop             Pattern = "double_top"
	SupportBounce         Pattern = "support_bounce"
	ResistanceRejection   Pattern = "resistance_rejection"
)

// AllPatterns returns the full pattern set in registry order.
func AllPatterns() []Pattern {
	return []Pattern{
		OpeningRangeBreakout, OpeningRangeBreakdown,
		VWAPRejectionLong, VWAPRejectionShort,
		VWAPCrossoverLong, VWAPCrossoverShort,
		MACDBullishCross, MACDBearishCross,
		RSIOversoldBounce, RSIOverboughtFade,
		EMABullishCross, EMABearishCross,
		BollingerSqueeze, VolumeSpike,
		MeanReversionLong, MeanReversionShort,
		GapFillLong, GapFillShort,
		PrevDayHighBreak, PrevDayLowBreak,
		MiddayReversal, PowerHourMomentum,
		DoubleBottom, DoubleTop,
		SupportBounce, ResistanceRejection,
	}
}

// IsValid reports whether p is a member of the closed pattern set.
func (p Pattern) IsValid() bool {
	for _, known := range AllPatterns() {
		if p == known {
			return true
		}
	}
	return false
}

// Title returns a human-readable pattern name ("opening_range_breakout" →
// "Opening Range Breakout").
func (p Pattern) Title() string {
	out := make([]byte, 0, len(p))
	upper := true
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '_' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

// Signal is a detected pattern occurrence with a proposed directional trade
// and risk levels. Signals are immutable once emitted by a detector.
//
// Metadata keys are pattern-specific; documented keys:
//
//	opening_range_*:    or_high, or_low
//	gap_fill_*:         gap_size, prev_close
//	support_bounce:     support_level
//	resistance_*:       resistance_level
type Signal struct {
	TS          time.Time          `json:"ts"`
	Pattern     Pattern            `json:"pattern"`
	Direction   Direction          `json:"direction"`
	Confidence  float64            `json:"confidence"` // [0, 1]
	EntryPrice  float64            `json:"entry_price"`
	StopPrice   float64            `json:"stop_price"`
	TargetPrice float64            `json:"target_price"`
	Description string             `json:"description"`
	Metadata    map[string]float64 `json:"metadata,omitempty"`
}

// RiskReward is |target−entry| / |entry−stop|, 0 when entry == stop.
func (s *Signal) RiskReward() float64 {
	risk := math.Abs(s.EntryPrice - s.StopPrice)
	if risk == 0 {
		return 0
	}
	return math.Abs(s.TargetPrice-s.EntryPrice) / risk
}

func (s *Signal) String() string {
	side := "CALLS"
	if s.Direction == Short {
		side = "PUTS"
	}
	return fmt.Sprintf("[%s] %s -> %s | Entry: $%.2f | Stop: $%.2f | Target: $%.2f | R:R %.1f | Confidence: %.0f%%",
		s.TS.Format("15:04"), s.Pattern, side,
		s.EntryPrice, s.StopPrice, s.TargetPrice, s.RiskReward(), s.Confidence*100)
}
