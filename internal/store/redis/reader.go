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

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader reads back published signals and latest-bar snapshots, mainly
// for the HTTP API and dashboards.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a Reader and pings the server.
func NewReader(cfg ReaderConfig, log *slog.Logger) (*Reader, error) {
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
	log.Info("redis reader connected", "addr", cfg.Addr)
	return &Reader{client: client}, nil
}

// RecentSignals returns up to n of the newest signals for a ticker in
// chronological order.
func (r *Reader) RecentSignals(ctx context.Context, ticker string, n int64) ([]model.Signal, error) {
	msgs, err := r.client.XRevRangeN(ctx, SignalStream(ticker), "+", "-", n).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis xrevrange: %w", err)
	}

	sigs := make([]model.Signal, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		raw, ok := msgs[i].Values["data"].(string)
		if !ok {
			continue
		}
		var sig model.Signal
		if err := json.Unmarshal([]byte(raw), &sig); err != nil {
			return nil, fmt.Errorf("unmarshal signal %s: %w", msgs[i].ID, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// LatestBar returns the most recently published bar, or nil when the TTL
// key has expired.
func (r *Reader) LatestBar(ctx context.Context, ticker string) (*model.Bar, error) {
	raw, err := r.client.Get(ctx, "bar:5m:latest:"+ticker).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get latest bar: %w", err)
	}

	var bar model.Bar
	if err := json.Unmarshal([]byte(raw), &bar); err != nil {
		return nil, fmt.Errorf("unmarshal latest bar: %w", err)
	}
	return &bar, nil
}

// SubscribeSignals opens a pubsub subscription on the live signal channel.
// The caller owns the returned PubSub and must Close it.
func (r *Reader) SubscribeSignals(ctx context.Context, ticker string) *goredis.PubSub {
	return r.client.Subscribe(ctx, SignalChannel(ticker))
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.client.Close()
}
