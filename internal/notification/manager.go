package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"odte-scanner/internal/model"
)

// Manager fans a signal out to every configured channel, suppressing
// repeats of the same pattern+direction inside the cooldown window and
// anything below the confidence floor. It owns the last-alert state; no
// other component reads or writes it.
type Manager struct {
	notifiers     []Notifier
	ticker        string
	cooldown      time.Duration
	minConfidence float64
	log           *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time // keyed pattern|direction

	now func() time.Time // stubbed in tests
}

// NewManager wires the delivery channels.
func NewManager(ticker string, notifiers []Notifier, cooldown time.Duration, minConfidence float64, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		notifiers:     notifiers,
		ticker:        ticker,
		cooldown:      cooldown,
		minConfidence: minConfidence,
		log:           log,
		lastSent:      make(map[string]time.Time),
		now:           time.Now,
	}
}

// Notify delivers one signal. It reports whether the alert went out;
// false means it was suppressed by the confidence floor or cooldown.
// Delivery errors on individual channels are logged, not returned: one
// dead channel must not silence the others.
func (m *Manager) Notify(ctx context.Context, sig model.Signal) bool {
	if sig.Confidence < m.minConfidence {
		return false
	}

	key := string(sig.Pattern) + "|" + string(sig.Direction)
	now := m.now()

	m.mu.Lock()
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < m.cooldown {
		m.mu.Unlock()
		return false
	}
	m.lastSent[key] = now
	m.mu.Unlock()

	alert := FormatSignalAlert(m.ticker, sig)
	for _, n := range m.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			m.log.Warn("alert delivery failed", "pattern", string(sig.Pattern), "err", err)
		}
	}
	return true
}
