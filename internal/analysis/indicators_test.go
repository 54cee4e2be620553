// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"math"
	"testing"
)

func closeTo(t *testing.T, got, want, tolerance float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s = %v, want %v (±%v)", what, got, want, tolerance)
	}
}

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	closeTo(t, got[0], math.Log(1.1), 1e-12, "first return")
	closeTo(t, got[1], math.Log(0.9), 1e-12, "second return")

	if LogReturns([]float64{100}) != nil {
		t.Error("single price should yield no returns")
	}
	// A zero price contributes a zero return rather than infinity.
	got = LogReturns([]float64{100, 0, 50})
	if got[0] != 0 || got[1] != 0 {
		t.Errorf("returns through zero price = %v, want zeros", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got, err := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}
	closeTo(t, got, 4, 1e-12, "MA(3)")

	if _, err := MovingAverage([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for insufficient prices")
	}
	if _, err := MovingAverage([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	// Alternating +1%/-1% moves: returns are ±ln(1.01)-ish with mean ~0.
	prices := []float64{100, 101, 100, 101, 100}
	got, err := AnnualizedVolatility(prices, 4)
	if err != nil {
		t.Fatalf("AnnualizedVolatility: %v", err)
	}
	up := math.Log(101.0 / 100.0)
	down := math.Log(100.0 / 101.0)
	mean := (2*up + 2*down) / 4
	variance := (2*math.Pow(up-mean, 2) + 2*math.Pow(down-mean, 2)) / 4
	want := math.Sqrt(variance) * math.Sqrt(252)
	closeTo(t, got, want, 1e-9, "annualized volatility")

	if _, err := AnnualizedVolatility([]float64{100, 101}, 4); err == nil {
		t.Error("expected error for insufficient prices")
	}

	// Constant prices have zero volatility.
	flat := []float64{100, 100, 100, 100, 100}
	got, err = AnnualizedVolatility(flat, 4)
	if err != nil {
		t.Fatal(err)
	}
	closeTo(t, got, 0, 1e-12, "flat volatility")
}

func TestRollingVolatilityLength(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 100 + float64(i%2)
	}
	vols := RollingVolatility(prices, 20)
	// 24 returns, windows of 20: 5 rolling values.
	if len(vols) != 5 {
		t.Errorf("len = %d, want 5", len(vols))
	}
	if RollingVolatility(prices[:10], 20) != nil {
		t.Error("expected nil for insufficient history")
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	got, err := RSI(rising, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	closeTo(t, got, 100, 1e-9, "RSI of all gains")

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	got, err = RSI(falling, 14)
	if err != nil {
		t.Fatal(err)
	}
	closeTo(t, got, 0, 1e-9, "RSI of all losses")

	// Equal alternating gains and losses balance to 50.
	alternating := make([]float64, 15)
	for i := range alternating {
		alternating[i] = 100 + float64(i%2)
	}
	got, err = RSI(alternating, 14)
	if err != nil {
		t.Fatal(err)
	}
	closeTo(t, got, 50, 1e-9, "RSI of balanced moves")

	if _, err := RSI(rising[:10], 14); err == nil {
		t.Error("expected error for insufficient prices")
	}
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 105, 110, 121}
	closeTo(t, Momentum(prices, 2), math.Log(121.0/105.0), 1e-12, "2 step momentum")
	if Momentum(prices, 10) != 0 {
		t.Error("momentum over missing history should be 0")
	}
}
