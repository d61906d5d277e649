package pattern

// Params carries every detector threshold. Zero values are not usable;
// start from DefaultParams and override.
type Params struct {
	// Opening range.
	ORBMinutes int     `yaml:"orb_minutes"`
	ORBBuffer  float64 `yaml:"orb_breakout_buffer"` // dollars beyond the range edge

	// VWAP.
	VWAPRejectionThreshold float64 `yaml:"vwap_rejection_threshold"` // dollars

	// Oscillators.
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	ADXPeriod     int     `yaml:"adx_period"`
	ADXThreshold  float64 `yaml:"adx_threshold"`
	ATRPeriod     int     `yaml:"atr_period"`

	// Moving averages.
	EMAFastPeriod int `yaml:"ema_fast"`
	EMASlowPeriod int `yaml:"ema_slow"`

	// Bollinger.
	BBPeriod           int     `yaml:"bb_period"`
	BBStdDev           float64 `yaml:"bb_std_dev"`
	BBSqueezeThreshold float64 `yaml:"bb_squeeze_threshold"` // bandwidth %

	// Volume and mean reversion.
	VolumeSMAPeriod       int     `yaml:"volume_sma_period"`
	VolumeSpikeMultiplier float64 `yaml:"volume_spike_multiplier"`
	MeanRevZScore         float64 `yaml:"mean_rev_zscore_threshold"`

	// Gap fill.
	GapMinDollars float64 `yaml:"gap_min_dollars"`
	GapMaxBars    int     `yaml:"gap_max_bars"`

	// Support/resistance.
	SRLookbackDays int     `yaml:"sr_lookback_days"`
	SRNumLevels    int     `yaml:"sr_num_levels"`
	SRProximityPct float64 `yaml:"sr_proximity_pct"`

	// Session windows, minutes after midnight exchange time.
	MiddayStart    int `yaml:"midday_start"`
	MiddayEnd      int `yaml:"midday_end"`
	PowerHourStart int `yaml:"power_hour_start"`
	PowerHourEnd   int `yaml:"power_hour_end"`
	MarketOpen     int `yaml:"market_open"`
	MarketClose    int `yaml:"market_close"`
}

// DefaultParams returns the thresholds tuned for 5-minute SPY bars.
func DefaultParams() Params {
	return Params{
		ORBMinutes:             15,
		ORBBuffer:              0.10,
		VWAPRejectionThreshold: 0.15,
		RSIPeriod:              14,
		RSIOverbought:          70,
		RSIOversold:            30,
		MACDFast:               12,
		MACDSlow:               26,
		MACDSignal:             9,
		ADXPeriod:              14,
		ADXThreshold:           25.0,
		ATRPeriod:              14,
		EMAFastPeriod:          9,
		EMASlowPeriod:          21,
		BBPeriod:               20,
		BBStdDev:               2.0,
		BBSqueezeThreshold:     0.5,
		VolumeSMAPeriod:        20,
		VolumeSpikeMultiplier:  2.0,
		MeanRevZScore:          2.0,
		GapMinDollars:          0.5,
		GapMaxBars:             12,
		SRLookbackDays:         20,
		SRNumLevels:            3,
		SRProximityPct:         0.1,
		MiddayStart:            11*60 + 30,
		MiddayEnd:              12*60 + 30,
		PowerHourStart:         15 * 60,
		PowerHourEnd:           15*60 + 30,
		MarketOpen:             9*60 + 30,
		MarketClose:            16 * 60,
	}
}
