// Package redis publishes live signals and bars for downstream consumers
// (dashboards, alert relays). Signals go to a capped stream plus pubsub;
// the latest bar is kept under a TTL key for quick health/UI reads.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"odte-scanner/internal/model"
)

const (
	// Stream trimming: a few sessions of signals is plenty.
	signalStreamMaxLen = 1000
	defaultLatestTTL   = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes signals and latest-bar snapshots to Redis.
type Writer struct {
	client *goredis.Client
	log    *slog.Logger
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a Writer and pings the server.
func New(cfg WriterConfig, log *slog.Logger) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}
	log.Info("redis connected", "addr", cfg.Addr)
	return &Writer{client: client, log: log}, nil
}

// Run drains sigCh into Redis. Blocks until ctx is cancelled or the
// channel is closed.
func (w *Writer) Run(ctx context.Context, ticker string, sigCh <-chan model.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			if err := w.PublishSignal(ctx, ticker, sig); err != nil {
				w.log.Error("signal publish failed", "error", err, "pattern", sig.Pattern)
			}
		}
	}
}

// PublishSignal writes one signal in a single pipeline: XADD to the
// capped per-ticker stream, SET the latest copy, PUBLISH for live
// subscribers.
func (w *Writer) PublishSignal(ctx context.Context, ticker string, sig model.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	payload := string(data)

	pipe := w.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: SignalStream(ticker),
		MaxLen: signalStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": payload},
	})
	pipe.Set(ctx, "signal:latest:"+ticker, payload, defaultLatestTTL)
	pipe.Publish(ctx, SignalChannel(ticker), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("signal pipeline: %w", err)
	}
	return nil
}

// PublishBar keeps the latest bar visible under a TTL key and notifies
// pubsub subscribers. Bars are not streamed; SQLite is the bar history.
func (w *Writer) PublishBar(ctx context.Context, ticker string, bar model.Bar) error {
	data, err := json.Marshal(bar)
	if err != nil {
		return fmt.Errorf("marshal bar: %w", err)
	}
	payload := string(data)

	pipe := w.client.Pipeline()
	pipe.Set(ctx, "bar:5m:latest:"+ticker, payload, defaultLatestTTL)
	pipe.Publish(ctx, BarChannel(ticker), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bar pipeline: %w", err)
	}
	return nil
}

// SignalStream is the per-ticker signal stream key.
func SignalStream(ticker string) string { return "signals:" + ticker }

// SignalChannel is the pubsub channel for live signals.
func SignalChannel(ticker string) string { return "pub:signals:" + ticker }

// BarChannel is the pubsub channel for live bars.
func BarChannel(ticker string) string { return "pub:bars:" + ticker }

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
