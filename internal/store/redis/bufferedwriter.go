package redis

import (
	"context"
	"log/slog"
	"sync"

	"odte-scanner/internal/model"
)

// pendingSignal is a signal held locally while the breaker is open.
type pendingSignal struct {
	Ticker string
	Signal model.Signal
}

// BufferedWriter wraps a Writer with a circuit breaker. While the
// breaker is open, signals queue locally (oldest dropped past maxBuf)
// and flush automatically when the breaker closes. Bars are latest-only
// snapshots, so they are simply skipped while open.
type BufferedWriter struct {
	writer *Writer
	cb     *Breaker
	ctx    context.Context
	log    *slog.Logger

	mu     sync.Mutex
	buffer []pendingSignal
	maxBuf int

	// OnBuffer runs when a signal is queued, OnFlush after a drain.
	// Both are optional, used for metrics.
	OnBuffer func()
	OnFlush  func(count int)
}

// NewBufferedWriter wraps w with cb. A maxBufferSize of zero or less
// defaults to 10000.
func NewBufferedWriter(ctx context.Context, w *Writer, cb *Breaker, maxBufferSize int, log *slog.Logger) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	if log == nil {
		log = slog.Default()
	}
	bw := &BufferedWriter{
		writer: w,
		cb:     cb,
		ctx:    ctx,
		log:    log,
		buffer: make([]pendingSignal, 0, 64),
		maxBuf: maxBufferSize,
	}

	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prev != nil {
			prev(from, to)
		}
		if to == Closed {
			go bw.flush()
		}
	}
	return bw
}

// PublishSignal publishes through the breaker, queueing locally when the
// breaker rejects the call. A queued signal is not an error.
func (bw *BufferedWriter) PublishSignal(ticker string, sig model.Signal) error {
	err := bw.cb.Do(func() error {
		return bw.writer.PublishSignal(bw.ctx, ticker, sig)
	})
	if err == ErrOpen {
		bw.enqueue(ticker, sig)
		return nil
	}
	return err
}

// PublishBar publishes the latest bar through the breaker. Stale
// snapshots are worthless, so an open breaker drops the bar.
func (bw *BufferedWriter) PublishBar(ticker string, bar model.Bar) error {
	err := bw.cb.Do(func() error {
		return bw.writer.PublishBar(bw.ctx, ticker, bar)
	})
	if err == ErrOpen {
		return nil
	}
	return err
}

// Pending reports the number of queued signals.
func (bw *BufferedWriter) Pending() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

func (bw *BufferedWriter) enqueue(ticker string, sig model.Signal) {
	bw.mu.Lock()
	if len(bw.buffer) >= bw.maxBuf {
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, pendingSignal{Ticker: ticker, Signal: sig})
	bw.mu.Unlock()

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush drains the queue after the breaker closes. Signals that fail
// again stay queued for the next close.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	queued := bw.buffer
	bw.buffer = make([]pendingSignal, 0, 64)
	bw.mu.Unlock()

	if len(queued) == 0 {
		return
	}

	flushed := 0
	for i, p := range queued {
		err := bw.cb.Do(func() error {
			return bw.writer.PublishSignal(bw.ctx, p.Ticker, p.Signal)
		})
		if err != nil {
			// Requeue the remainder in order.
			bw.mu.Lock()
			bw.buffer = append(queued[i:], bw.buffer...)
			bw.mu.Unlock()
			bw.log.Warn("signal flush interrupted",
				"flushed", flushed, "requeued", len(queued)-i, "error", err)
			break
		}
		flushed++
	}

	if flushed > 0 {
		bw.log.Info("flushed buffered signals", "count", flushed)
	}
	if bw.OnFlush != nil {
		bw.OnFlush(flushed)
	}
}
