// Package ws streams live 5-minute bars from a JSON WebSocket feed into
// the scanner pipeline. The expected message format is one model.Bar per
// text frame:
//
//	{"ts":"2026-03-03T10:15:00-05:00","open":451.2,"high":451.6,"low":451.1,"close":451.5,"volume":812345}
//
// The client reconnects automatically with exponential backoff and keeps
// running until the context is cancelled.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"odte-scanner/internal/model"
)

// IngestConfig holds connection settings for the bar stream.
type IngestConfig struct {
	// URL of the bar WebSocket server, e.g. "ws://localhost:9001/bars"
	URL string

	// Ticker is sent as a subscribe message after each connect. Empty
	// skips the subscribe step for feeds that push a fixed symbol.
	Ticker string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds if zero.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *IngestConfig) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// subscribeMsg is the frame sent after connect when a ticker is configured.
type subscribeMsg struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// Ingest connects to a bar WebSocket server and pushes bars into a channel.
type Ingest struct {
	cfg IngestConfig
	log *slog.Logger

	// Optional hook, called each time a reconnection happens.
	OnReconnect func()
}

// NewIngest creates an Ingest. Returns an error if the URL is unparseable.
func NewIngest(cfg IngestConfig, log *slog.Logger) (*Ingest, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("ws url: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ingest{cfg: cfg, log: log}, nil
}

// Start connects and streams bars into barCh. Blocks until ctx is
// cancelled, reconnecting automatically on disconnect. The backoff resets
// after every successful connection.
func (ing *Ingest) Start(ctx context.Context, barCh chan<- model.Bar) error {
	delay := ing.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		connected, err := ing.runOnce(ctx, barCh)
		if err == nil {
			return nil
		}
		if connected {
			delay = ing.cfg.ReconnectDelay
		}

		ing.log.Warn("ws disconnected, reconnecting",
			"error", err, "delay", delay.String())
		if ing.OnReconnect != nil {
			ing.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > ing.cfg.MaxReconnectDelay {
			delay = ing.cfg.MaxReconnectDelay
		}
	}
}

// runOnce makes a single connection attempt and reads until disconnect or
// ctx cancel. The bool reports whether the dial succeeded, so the caller
// can reset its backoff.
func (ing *Ingest) runOnce(ctx context.Context, barCh chan<- model.Bar) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ing.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	ing.log.Info("ws connected", "url", ing.cfg.URL)

	if ing.cfg.Ticker != "" {
		sub := subscribeMsg{Action: "subscribe", Symbol: ing.cfg.Ticker}
		if err := conn.WriteJSON(sub); err != nil {
			return true, fmt.Errorf("subscribe: %w", err)
		}
	}

	// Context watcher closes the connection so the read loop unblocks.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return true, nil
			default:
			}
			return true, err
		}

		bar, err := parseBar(raw)
		if err != nil {
			ing.log.Warn("ws parse error", "error", err, "raw", string(raw))
			continue
		}

		select {
		case barCh <- bar:
		default:
			// Consumer fell behind. Dropping the bar beats stalling the
			// read loop and tripping the server's write deadline.
			ing.log.Warn("bar channel full, dropping bar", "ts", bar.TS)
		}
	}
}

// parseBar decodes one wire frame and rejects bars the pipeline cannot use.
func parseBar(raw []byte) (model.Bar, error) {
	var w struct {
		TS     time.Time `json:"ts"`
		Open   float64   `json:"open"`
		High   float64   `json:"high"`
		Low    float64   `json:"low"`
		Close  float64   `json:"close"`
		Volume int64     `json:"volume"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.Bar{}, err
	}
	if w.TS.IsZero() {
		return model.Bar{}, fmt.Errorf("bar missing timestamp")
	}
	if w.Open <= 0 || w.High <= 0 || w.Low <= 0 || w.Close <= 0 {
		return model.Bar{}, fmt.Errorf("bar has non-positive price")
	}
	if w.High < w.Low {
		return model.Bar{}, fmt.Errorf("bar high %.2f below low %.2f", w.High, w.Low)
	}
	return model.NewBar(w.TS, w.Open, w.High, w.Low, w.Close, w.Volume), nil
}
