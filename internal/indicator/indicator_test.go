package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Fatalf("got %v want %v (tol %v)", got, want, tol)
	}
}

func assertNaN(t *testing.T, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Fatalf("got %v, want NaN", got)
	}
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4}, 2)
	assertNaN(t, got[0])
	assertClose(t, got[1], 1.5, 1e-12)
	assertClose(t, got[2], 2.5, 1e-12)
	assertClose(t, got[3], 3.5, 1e-12)

	// Window longer than the series is all NaN.
	for _, v := range SMA([]float64{1, 2}, 5) {
		assertNaN(t, v)
	}
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{2, 4, 6}, 2)
	assertNaN(t, got[0])
	assertClose(t, got[1], 3, 1e-12)        // SMA seed
	assertClose(t, got[2], 5, 1e-12)        // 6*2/3 + 3*1/3

	// Leading NaNs are skipped before seeding.
	nanIn := []float64{math.NaN(), math.NaN(), 2, 4, 6}
	got = EMA(nanIn, 2)
	assertNaN(t, got[0])
	assertNaN(t, got[2])
	assertClose(t, got[3], 3, 1e-12)
	assertClose(t, got[4], 5, 1e-12)
}

func TestRSI(t *testing.T) {
	got := RSI([]float64{10, 11, 10, 11}, 2)
	assertNaN(t, got[0])
	assertNaN(t, got[1])
	assertClose(t, got[2], 50, 1e-9)
	// avgGain=(0.5+1)/2=0.75, avgLoss=0.25 -> RS=3 -> 75.
	assertClose(t, got[3], 75, 1e-9)
}

func TestRSIZeroLossIsNaN(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6}
	for _, v := range RSI(rising, 3) {
		assertNaN(t, v)
	}
}

func TestTrueRangeAndATR(t *testing.T) {
	high := []float64{10, 12, 11}
	low := []float64{9, 10, 9}
	close := []float64{9.5, 11, 10}

	tr := TrueRange(high, low, close)
	assertClose(t, tr[0], 1, 1e-12)   // first bar high-low
	assertClose(t, tr[1], 2.5, 1e-12) // |high-prevClose| = 12-9.5
	assertClose(t, tr[2], 2, 1e-12)   // high-low and |low-prevClose| both 2

	atr := ATR(high, low, close, 2)
	assertNaN(t, atr[0])
	assertClose(t, atr[1], 1.75, 1e-12)  // SMA seed (1+2.5)/2
	assertClose(t, atr[2], 1.875, 1e-12) // (1.75 + 2)/2
}

func TestMACDWarmup(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 100 + float64(i)*0.1
	}
	m := MACD(series, 12, 26, 9)
	assertNaN(t, m.Line[24])
	if !Valid(m.Line[25]) {
		t.Fatal("MACD line should be defined once the slow EMA seeds")
	}
	assertNaN(t, m.Signal[32])
	if !Valid(m.Signal[33]) {
		t.Fatal("signal line should seed 9 values after the MACD line")
	}
	assertClose(t, m.Histogram[40], m.Line[40]-m.Signal[40], 1e-12)
}

func TestBollingerAndZScore(t *testing.T) {
	series := []float64{1, 2, 3, 2, 1, 2, 3, 2, 1, 2}
	bb := BollingerBands(series, 4, 2.0)
	for i := 0; i < 3; i++ {
		assertNaN(t, bb.Upper[i])
	}
	for i := 3; i < len(series); i++ {
		if !(bb.Lower[i] < bb.Middle[i] && bb.Middle[i] < bb.Upper[i]) {
			t.Fatalf("band ordering broken at %d: %v %v %v", i, bb.Lower[i], bb.Middle[i], bb.Upper[i])
		}
		if bb.Bandwidth[i] <= 0 {
			t.Fatalf("bandwidth %v at %d", bb.Bandwidth[i], i)
		}
	}

	z := ZScore(series, 4)
	assertNaN(t, z[2])
	if !Valid(z[4]) {
		t.Fatal("z-score should be defined once the window fills")
	}

	flat := []float64{5, 5, 5, 5, 5}
	for _, v := range ZScore(flat, 3) {
		assertNaN(t, v)
	}
}

func TestADX(t *testing.T) {
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*0.5
		high[i] = base + 0.4
		low[i] = base - 0.4
		close[i] = base + 0.2
	}
	res := ADX(high, low, close, 14)
	last := n - 1
	if !Valid(res.ADX[last]) {
		t.Fatal("ADX should be defined by the end of a 40-bar series")
	}
	// A persistent uptrend scores a strong ADX with +DI leading.
	if res.ADX[last] < 25 {
		t.Fatalf("trend ADX = %v, want > 25", res.ADX[last])
	}
	if res.PlusDI[last] <= res.MinusDI[last] {
		t.Fatalf("+DI %v should lead -DI %v in an uptrend", res.PlusDI[last], res.MinusDI[last])
	}
}

func TestPivots(t *testing.T) {
	p := Pivots(452, 448, 450)
	assertClose(t, p.Pivot, 450, 1e-12)
	assertClose(t, p.R1, 452, 1e-12)
	assertClose(t, p.S1, 448, 1e-12)
	if !(p.S2 < p.S1 && p.R2 > p.R1) {
		t.Fatalf("pivot ordering broken: %+v", p)
	}
}

func TestDoubleBottom(t *testing.T) {
	// Two distinct lows near 448 more than five bars apart.
	low := []float64{450, 449.5, 449, 448.02, 449, 449.5, 450, 450.2, 450, 449.5, 449, 448.00, 449, 449.8, 450.2, 450.5}
	if !DetectDoubleBottom(low, len(low), 0.2) {
		t.Fatal("expected a double bottom")
	}
	high := make([]float64, len(low))
	for i, v := range low {
		high[i] = 900 - v
	}
	if !DetectDoubleTop(high, len(high), 0.2) {
		t.Fatal("expected a double top on the mirrored series")
	}

	trend := make([]float64, 16)
	for i := range trend {
		trend[i] = 450 - float64(i)*0.3
	}
	if DetectDoubleBottom(trend, len(trend), 0.2) {
		t.Fatal("monotone series is not a double bottom")
	}
}
