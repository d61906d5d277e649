package marketdata

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"
)

func mkBar(t *testing.T, day, minute int, o, h, l, c float64, v int64) model.Bar {
	t.Helper()
	ts := time.Date(2024, 3, 4+day, 9, 30, 0, 0, markethours.NY).
		Add(time.Duration(minute) * time.Minute)
	return model.NewBar(ts, o, h, l, c, v)
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAttachPrevDay(t *testing.T) {
	bars := []model.Bar{
		mkBar(t, 0, 0, 450, 451, 449.5, 450.5, 100),
		mkBar(t, 0, 5, 450.5, 452, 450, 451, 200),
		mkBar(t, 1, 0, 451.5, 452, 451, 451.8, 300),
	}
	out := AttachPrevDay(bars)

	if out[0].HasPrevDay() || out[1].HasPrevDay() {
		t.Fatal("first day must not carry previous-day columns")
	}
	b := out[2]
	if !b.HasPrevDay() {
		t.Fatal("second day missing previous-day columns")
	}
	if b.PrevOpen != 450 || b.PrevHigh != 452 || b.PrevLow != 449.5 || b.PrevClose != 451 {
		t.Errorf("prev OHLC = %v/%v/%v/%v", b.PrevOpen, b.PrevHigh, b.PrevLow, b.PrevClose)
	}
	if b.PrevVolume != 300 {
		t.Errorf("prev volume = %d, want 300", b.PrevVolume)
	}
	// Input is untouched.
	if !math.IsNaN(bars[2].PrevClose) {
		t.Error("AttachPrevDay mutated its input")
	}
}

func TestSimulateDaysStructure(t *testing.T) {
	end := time.Date(2026, 3, 3, 12, 0, 0, 0, markethours.NY)
	cfg := DefaultSimConfig()
	bars := SimulateDays(cfg, end, 3)

	if len(bars) != 3*BarsPerDay {
		t.Fatalf("got %d bars, want %d", len(bars), 3*BarsPerDay)
	}
	days := model.Days(bars)
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	// 2026-03-01 is a Sunday, so three trading days back from Tue Mar 3
	// are Feb 27, Mar 2, Mar 3.
	wantDates := []time.Time{
		time.Date(2026, 2, 27, 0, 0, 0, 0, markethours.NY),
		time.Date(2026, 3, 2, 0, 0, 0, 0, markethours.NY),
		time.Date(2026, 3, 3, 0, 0, 0, 0, markethours.NY),
	}
	for i, d := range days {
		if !d.Date.Equal(wantDates[i]) {
			t.Errorf("day %d = %s, want %s", i, d.Date, wantDates[i])
		}
		first := bars[d.Start]
		if first.TS.Hour() != 9 || first.TS.Minute() != 30 {
			t.Errorf("day %d opens at %s, want 09:30", i, first.TS)
		}
	}
	for i, b := range bars {
		if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
			t.Fatalf("bar %d violates OHLC ordering: %+v", i, b)
		}
		if b.Volume <= 0 {
			t.Fatalf("bar %d has non-positive volume", i)
		}
	}
}

func TestSimulateDaysDeterministicPerDay(t *testing.T) {
	end := time.Date(2026, 3, 3, 16, 0, 0, 0, markethours.NY)
	cfg := DefaultSimConfig()

	a := SimulateDays(cfg, end, 3)
	b := SimulateDays(cfg, end, 3)
	for i := range a {
		if !a[i].TS.Equal(b[i].TS) || a[i].Close != b[i].Close || a[i].Volume != b[i].Volume {
			t.Fatalf("rerun diverged at bar %d", i)
		}
	}

	// Requesting only the final day reproduces the same bars the 3-day
	// range produced for it.
	solo := SimulateDays(cfg, end, 1)
	tail := a[len(a)-BarsPerDay:]
	for i := range solo {
		if !solo[i].TS.Equal(tail[i].TS) ||
			solo[i].Open != tail[i].Open ||
			solo[i].High != tail[i].High ||
			solo[i].Low != tail[i].Low ||
			solo[i].Close != tail[i].Close ||
			solo[i].Volume != tail[i].Volume {
			t.Fatalf("single-day regeneration diverged at bar %d", i)
		}
	}
}

func TestSimulateDaysSkipsHolidays(t *testing.T) {
	// Christmas 2026 falls on Friday Dec 25.
	end := time.Date(2026, 12, 28, 16, 0, 0, 0, markethours.NY)
	bars := SimulateDays(DefaultSimConfig(), end, 3)
	days := model.Days(bars)
	wantDates := []time.Time{
		time.Date(2026, 12, 23, 0, 0, 0, 0, markethours.NY),
		time.Date(2026, 12, 24, 0, 0, 0, 0, markethours.NY),
		time.Date(2026, 12, 28, 0, 0, 0, 0, markethours.NY),
	}
	for i, d := range days {
		if !d.Date.Equal(wantDates[i]) {
			t.Errorf("day %d = %s, want %s", i, d.Date, wantDates[i])
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	src := []model.Bar{
		mkBar(t, 0, 0, 450, 451, 449.5, 450.5, 100),
		mkBar(t, 0, 5, 450.5, 452, 450, 451, 200),
		mkBar(t, 1, 0, 451.5, 452, 451, 451.8, 300),
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, src); err != nil {
		t.Fatal(err)
	}

	got, err := ParseCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(src) {
		t.Fatalf("got %d bars, want %d", len(got), len(src))
	}
	for i := range got {
		if !got[i].TS.Equal(src[i].TS) || got[i].Close != src[i].Close {
			t.Errorf("bar %d = %v, want %v", i, got[i], src[i])
		}
	}
	// ParseCSV enriches: the second day sees the first day's close.
	if got[2].PrevClose != 451 {
		t.Errorf("prev close = %v, want 451", got[2].PrevClose)
	}
}

func TestParseCSVNaiveTimestamps(t *testing.T) {
	in := "timestamp,open,high,low,close,volume\n" +
		"2024-03-04 09:30,450,451,449.5,450.5,100\n"
	bars, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 4, 9, 30, 0, 0, markethours.NY)
	if !bars[0].TS.Equal(want) {
		t.Errorf("ts = %s, want %s (exchange-local)", bars[0].TS, want)
	}
}

func TestParseCSVRejectsUnsortedRows(t *testing.T) {
	in := "2024-03-04 09:35,450,451,449,450.5,100\n" +
		"2024-03-04 09:30,450,451,449,450.5,100\n"
	if _, err := ParseCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for non-increasing timestamps")
	}
}

func TestResampleBatch(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, markethours.NY)
	var fine []model.Bar
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		o := 450.0 + float64(i)*0.1
		fine = append(fine, model.NewBar(ts, o, o+0.3, o-0.2, o+0.1, 100))
	}

	out := Resample(fine, 5*time.Minute)
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}
	b := out[0]
	if !b.TS.Equal(base) {
		t.Errorf("bucket ts = %s, want %s", b.TS, base)
	}
	if b.Open != 450.0 {
		t.Errorf("open = %v, want first minute's open", b.Open)
	}
	if !closeTo(b.Close, 450.5) {
		t.Errorf("close = %v, want last minute's close", b.Close)
	}
	if !closeTo(b.High, 450.7) {
		t.Errorf("high = %v, want 450.7", b.High)
	}
	if !closeTo(b.Low, 449.8) {
		t.Errorf("low = %v, want 449.8", b.Low)
	}
	if b.Volume != 500 {
		t.Errorf("volume = %v, want 500", b.Volume)
	}
}

func TestResamplerDropsStaleBars(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, markethours.NY)
	r := NewResampler(5 * time.Minute)
	var out []model.Bar
	stale := 0
	r.OnBar = func(b model.Bar) { out = append(out, b) }
	r.OnStaleBar = func(model.Bar) { stale++ }

	r.Push(model.NewBar(base.Add(6*time.Minute), 451, 451.5, 450.5, 451.2, 100))
	r.Push(model.NewBar(base, 450, 450.5, 449.5, 450.2, 100)) // behind the forming bucket
	r.Flush()

	if stale != 1 {
		t.Errorf("stale count = %d, want 1", stale)
	}
	if len(out) != 1 || out[0].Open != 451 {
		t.Errorf("out = %v, want single bucket from the fresh bar", out)
	}
}
