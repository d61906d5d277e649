// Package notification delivers pattern alerts to external channels
// (Telegram, Discord-style webhooks) with per-pattern cooldown control.
package notification

import (
	"context"
	"fmt"
	"log"

	"odte-scanner/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// FormatSignalAlert renders a detected pattern as an alert. Calls are
// quoted for longs, puts for shorts.
func FormatSignalAlert(ticker string, s model.Signal) Alert {
	side := "CALLS"
	if s.Direction == model.Short {
		side = "PUTS"
	}
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("%s %s -> %s", ticker, s.Pattern.Title(), side),
		Message: fmt.Sprintf("%s\nEntry: $%.2f | Stop: $%.2f | Target: $%.2f\nR:R %.1f | Confidence: %.0f%%",
			s.Description, s.EntryPrice, s.StopPrice, s.TargetPrice, s.RiskReward(), s.Confidence*100),
	}
}
