package marketdata

import (
	"time"

	"odte-scanner/internal/model"
)

// Resample merges finer bars into interval-wide buckets aligned to the
// Unix clock (a 5m bucket starts at :30, :35, ...). Input must be sorted;
// partial trailing buckets are emitted as-is so the caller never loses
// the most recent data.
func Resample(bars []model.Bar, interval time.Duration) []model.Bar {
	if len(bars) == 0 {
		return nil
	}
	var (
		out []model.Bar
		r   = NewResampler(interval)
	)
	r.OnBar = func(b model.Bar) { out = append(out, b) }
	for _, b := range bars {
		r.Push(b)
	}
	r.Flush()
	return out
}

// Resampler is an incremental single-symbol bucket merger. Push is O(1);
// when a bar lands in a new bucket the previous bucket is finalized through
// OnBar. It is not goroutine-safe: run it from the single stream consumer.
type Resampler struct {
	interval int64 // seconds

	bucket  int64 // bucket start, Unix seconds
	forming model.Bar
	started bool

	// OnBar receives each finalized bucket. Must be set before Push.
	OnBar func(model.Bar)

	// OnStaleBar is called when an out-of-order bar older than the
	// forming bucket is dropped. Optional.
	OnStaleBar func(model.Bar)
}

// NewResampler builds a resampler for the given bucket width.
func NewResampler(interval time.Duration) *Resampler {
	return &Resampler{interval: int64(interval / time.Second)}
}

// Push merges one bar into the forming bucket, finalizing the previous
// bucket if the bar crossed a boundary.
func (r *Resampler) Push(b model.Bar) {
	ts := b.TS.Unix()
	bucket := ts - ts%r.interval

	if r.started && bucket < r.bucket {
		if r.OnStaleBar != nil {
			r.OnStaleBar(b)
		}
		return
	}

	if r.started && bucket > r.bucket {
		r.OnBar(r.forming)
		r.started = false
	}

	if !r.started {
		r.bucket = bucket
		r.forming = model.NewBar(
			time.Unix(bucket, 0).In(b.TS.Location()),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		r.started = true
		return
	}

	f := &r.forming
	if b.High > f.High {
		f.High = b.High
	}
	if b.Low < f.Low {
		f.Low = b.Low
	}
	f.Close = b.Close
	f.Volume += b.Volume
}

// Flush finalizes the forming bucket, if any. Call at stream end or at
// the session close so the last partial bucket is not lost.
func (r *Resampler) Flush() {
	if r.started {
		r.OnBar(r.forming)
		r.started = false
	}
}
