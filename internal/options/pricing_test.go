package options

import (
	"math"
	"testing"
	"time"

	"odte-scanner/internal/model"
)

func assertClose(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %.6f want %.6f (tol %.6f)", got, want, tol)
	}
}

func TestPriceAtExpiryIsIntrinsic(t *testing.T) {
	cases := []struct {
		name string
		S, K float64
		kind model.OptionType
		want float64
	}{
		{"itm call", 450, 445, model.Call, 5.00},
		{"otm put", 450, 445, model.Put, 0.00},
		{"itm put", 440, 445, model.Put, 5.00},
		{"atm call", 445, 445, model.Call, 0.00},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Price(tc.S, tc.K, 0, 0.05, 0.3, tc.kind)
			if got != tc.want {
				t.Fatalf("Price = %.4f, want %.4f", got, tc.want)
			}
		})
	}
}

func TestPriceFloor(t *testing.T) {
	// A deep OTM call with almost no time left prices at the floor, not zero.
	got := Price(450, 470, 0.00001, 0.05, 0.10, model.Call)
	if got != MinPremium {
		t.Fatalf("deep OTM price = %v, want floor %v", got, MinPremium)
	}
}

func TestPriceMonotonicInTime(t *testing.T) {
	times := []float64{0, 0.0005, 0.001, 0.005, 0.01, 0.025}
	prev := -1.0
	for _, T := range times {
		p := Price(450, 451, T, 0.05, 0.35, model.Call)
		if p < prev {
			t.Fatalf("price decreased with more time: T=%v p=%v prev=%v", T, p, prev)
		}
		prev = p
	}
}

func TestPutCallParity(t *testing.T) {
	S, K, T, r, sigma := 452.3, 451.0, 0.012, 0.05, 0.4
	call := Price(S, K, T, r, sigma, model.Call)
	put := Price(S, K, T, r, sigma, model.Put)
	assertClose(t, call-put, S-K*math.Exp(-r*T), 1e-9)
}

func TestGreeks(t *testing.T) {
	g := ComputeGreeks(450, 450, 0.01, 0.05, 0.3, model.Call)
	if g.Delta < 0.45 || g.Delta > 0.60 {
		t.Fatalf("ATM call delta = %v, want near 0.5", g.Delta)
	}
	if g.Gamma <= 0 || g.Vega <= 0 {
		t.Fatalf("gamma %v and vega %v must be positive", g.Gamma, g.Vega)
	}
	if g.Theta >= 0 {
		t.Fatalf("long call theta = %v, want negative", g.Theta)
	}

	p := ComputeGreeks(450, 450, 0.01, 0.05, 0.3, model.Put)
	assertClose(t, p.Delta, g.Delta-1, 1e-12)
	assertClose(t, p.Gamma, g.Gamma, 1e-12)
	assertClose(t, p.Vega, g.Vega, 1e-12)
}

func TestGreeksAtExpiry(t *testing.T) {
	g := ComputeGreeks(450, 445, 0, 0.05, 0.3, model.Call)
	if g.Delta != 1 || g.Gamma != 0 || g.Vega != 0 || g.Theta != 0 {
		t.Fatalf("expired ITM call greeks = %+v", g)
	}
	p := ComputeGreeks(450, 445, 0, 0.05, 0.3, model.Put)
	if p.Delta != 0 {
		t.Fatalf("expired OTM put delta = %v, want 0", p.Delta)
	}
	itmPut := ComputeGreeks(440, 445, 0, 0.05, 0.3, model.Put)
	if itmPut.Delta != -1 {
		t.Fatalf("expired ITM put delta = %v, want -1", itmPut.Delta)
	}
}

func TestEstimateIV(t *testing.T) {
	cases := []struct {
		left time.Duration
		mult float64
	}{
		{6 * time.Hour, 2.5},
		{4 * time.Hour, 2.0},
		{2 * time.Hour, 1.5},
		{30 * time.Minute, 1.2},
	}
	for _, tc := range cases {
		assertClose(t, EstimateIV(0.15, tc.left), 0.15*tc.mult, 1e-12)
	}
}

func TestTimeToExpiryYears(t *testing.T) {
	// A full trading day is 1/252 of a trading year.
	day := time.Duration(TradingHoursPerDay * float64(time.Hour))
	assertClose(t, TimeToExpiryYears(day), 1.0/252, 1e-12)

	if TimeToExpiryYears(-time.Minute) != 0 {
		t.Fatal("negative duration must map to 0")
	}
}

func TestSelectStrike(t *testing.T) {
	cases := []struct {
		S    float64
		kind model.OptionType
		m    Moneyness
		want float64
	}{
		{450.4, model.Call, ATM, 450},
		{450.6, model.Call, ATM, 451},
		{450.4, model.Call, OTM1, 451},
		{450.4, model.Call, OTM2, 452},
		{450.4, model.Call, ITM1, 449},
		{450.4, model.Put, OTM1, 449},
		{450.4, model.Put, OTM2, 448},
		{450.4, model.Put, ITM1, 451},
	}
	for _, tc := range cases {
		got := SelectStrike(tc.S, tc.kind, tc.m)
		if got != tc.want {
			t.Fatalf("SelectStrike(%v,%v,%v) = %v, want %v", tc.S, tc.kind, tc.m, got, tc.want)
		}
	}

	kind, strike := StrikeForSignal(450.2, model.Short, ATM)
	if kind != model.Put || strike != 450 {
		t.Fatalf("short signal mapped to %v @ %v", kind, strike)
	}
}
