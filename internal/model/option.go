package model

import (
	"fmt"
	"time"
)

// OptionType is the contract kind.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// OptionContract describes a same-day-expiry option position at entry.
type OptionContract struct {
	Type            OptionType `json:"type"`
	Strike          float64    `json:"strike"`
	Expiry          time.Time  `json:"expiry"` // market close on the expiry day
	EntryTime       time.Time  `json:"entry_time"`
	EntryUnderlying float64    `json:"entry_underlying"`
	EntryPremium    float64    `json:"entry_premium"`
	IV              float64    `json:"iv"` // implied volatility fixed at entry
	Contracts       int        `json:"contracts"`
}

// IsITM reports whether the contract was in the money at entry.
func (c *OptionContract) IsITM() bool {
	if c.Type == Call {
		return c.EntryUnderlying > c.Strike
	}
	return c.EntryUnderlying < c.Strike
}

// ExitReason records how a simulated trade closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "stop_loss"
	ExitProfitTarget ExitReason = "profit_target"
	ExitExpiration   ExitReason = "expiration"
	ExitNoData       ExitReason = "no_data"
)

// OptionTrade is one completed simulated option trade. Exit fields are
// populated exactly once when an exit condition fires; the record is
// immutable afterwards.
type OptionTrade struct {
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        time.Time  `json:"exit_time"`
	Type            OptionType `json:"type"`
	Strike          float64    `json:"strike"`
	EntryUnderlying float64    `json:"entry_underlying"`
	ExitUnderlying  float64    `json:"exit_underlying"`
	EntryPremium    float64    `json:"entry_premium"`
	ExitPremium     float64    `json:"exit_premium"`
	Contracts       int        `json:"contracts"`
	Pattern         Pattern    `json:"pattern"`
	Direction       Direction  `json:"direction"`
	IV              float64    `json:"iv"`
	ExitReason      ExitReason `json:"exit_reason"`
}

// PnLPerContract is the dollar P&L for one contract (options are per 100
// shares of the underlying).
func (t *OptionTrade) PnLPerContract() float64 {
	return (t.ExitPremium - t.EntryPremium) * 100
}

// TotalPnL is the dollar P&L across all contracts.
func (t *OptionTrade) TotalPnL() float64 {
	return t.PnLPerContract() * float64(t.Contracts)
}

// PnLPct is the premium return in percent; 0 for a non-positive entry.
func (t *OptionTrade) PnLPct() float64 {
	if t.EntryPremium <= 0 {
		return 0
	}
	return (t.ExitPremium - t.EntryPremium) / t.EntryPremium * 100
}

// DurationMinutes is the holding time in minutes.
func (t *OptionTrade) DurationMinutes() float64 {
	return t.ExitTime.Sub(t.EntryTime).Minutes()
}

func (t *OptionTrade) String() string {
	return fmt.Sprintf("[%s] %s $%.0f | %s | Entry: $%.2f | Exit: $%.2f (%s) | P&L $%+.2f",
		t.EntryTime.Format("2006-01-02 15:04"), t.Type, t.Strike, t.Pattern,
		t.EntryPremium, t.ExitPremium, t.ExitReason, t.TotalPnL())
}
