package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"
)

func testBars(n int) []model.Bar {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, markethours.NY)
	bars := make([]model.Bar, 0, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * 5 * time.Minute)
		o := 450.0 + float64(i)*0.1
		bars = append(bars, model.NewBar(ts, o, o+0.3, o-0.2, o+0.1, int64(1000+i)))
	}
	return bars
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	bars := testBars(5)
	if err := w.InsertBars("SPY", bars); err != nil {
		t.Fatal(err)
	}

	last, err := w.LastTimestamp("SPY")
	if err != nil {
		t.Fatal(err)
	}
	if last != bars[4].TS.Unix() {
		t.Errorf("last ts = %d, want %d", last, bars[4].TS.Unix())
	}

	r, err := NewReader(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := r.ReadBars("SPY", 0, last)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d bars, want 5", len(got))
	}
	for i := range got {
		if !got[i].TS.Equal(bars[i].TS) || got[i].Close != bars[i].Close || got[i].Volume != bars[i].Volume {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], bars[i])
		}
	}

	// Upsert replaces rather than duplicates.
	if err := w.InsertBars("SPY", bars[:2]); err != nil {
		t.Fatal(err)
	}
	got, err = r.ReadBars("SPY", 0, last)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("after upsert got %d bars, want 5", len(got))
	}
}

func TestLastTimestampEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	last, err := w.LastTimestamp("QQQ")
	if err != nil {
		t.Fatal(err)
	}
	if last != 0 {
		t.Errorf("empty cache last ts = %d, want 0", last)
	}
}
