// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-engine/pkg/types"
)

func writeSnapshot(t *testing.T, dir, symbol string, f snapshotFile) {
	t.Helper()
	data, err := yaml.Marshal(&f)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, symbol+".yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// dailyCandles builds n daily candles ending on end with a constant price.
func dailyCandles(n int, end time.Time, price float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := 0; i < n; i++ {
		d := end.AddDate(0, 0, -(n - 1 - i))
		out[i] = types.Candle{Date: d, Open: price, High: price, Low: price, Close: price, Volume: 1000}
	}
	return out
}

func TestSnapshotQuoteDerivesChange(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL", snapshotFile{
		Quote: types.Quote{Price: 231.5, PreviousClose: 226.0, Currency: "USD"},
	})
	s := NewSnapshot(dir)

	q, err := s.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", q.Symbol)
	}
	if q.Change != 5.5 {
		t.Errorf("Change = %v, want 5.5", q.Change)
	}
	if q.ChangePercent < 2.43 || q.ChangePercent > 2.44 {
		t.Errorf("ChangePercent = %v, want ~2.433", q.ChangePercent)
	}
}

func TestSnapshotUnknownSymbol(t *testing.T) {
	s := NewSnapshot(t.TempDir())
	_, err := s.Quote(context.Background(), "GHOST")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("error = %v, want not_found", err)
	}
}

func TestSnapshotCorruptFixture(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "BAD.yaml"), []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSnapshot(dir)
	_, err := s.Quote(context.Background(), "BAD")
	if !errors.Is(err, types.ErrProvider) {
		t.Errorf("error = %v, want provider", err)
	}
}

func TestSnapshotHistoryWindow(t *testing.T) {
	dir := t.TempDir()
	end := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	writeSnapshot(t, dir, "AAPL", snapshotFile{Candles: dailyCandles(400, end, 230)})
	s := NewSnapshot(dir)

	got, err := s.History(context.Background(), "AAPL", 30, "1d")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	if !got[len(got)-1].Date.Equal(end) {
		t.Errorf("last candle %v, want %v", got[len(got)-1].Date, end)
	}
	if got[0].Date.Before(end.AddDate(0, 0, -30)) {
		t.Errorf("first candle %v outside the 30 day window", got[0].Date)
	}
}

func TestSnapshotHistoryWeekly(t *testing.T) {
	dir := t.TempDir()
	end := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	writeSnapshot(t, dir, "AAPL", snapshotFile{Candles: dailyCandles(50, end, 230)})
	s := NewSnapshot(dir)

	got, err := s.History(context.Background(), "AAPL", 0, "1wk")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10 weekly candles from 50 daily", len(got))
	}
	if !got[len(got)-1].Date.Equal(end) {
		t.Errorf("newest candle dropped by weekly thinning: %v", got[len(got)-1].Date)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Fatal("weekly candles not ascending")
		}
	}
}

func TestSnapshotFundamentals(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL", snapshotFile{
		Quarterly: []types.StatementPeriod{
			{Period: "2026Q2", Revenue: 90e9}, {Period: "2026Q1", Revenue: 95e9},
			{Period: "2025Q4", Revenue: 120e9}, {Period: "2025Q3", Revenue: 85e9},
			{Period: "2025Q2", Revenue: 88e9}, {Period: "2025Q1", Revenue: 92e9},
		},
		Annual: []types.StatementPeriod{{Period: "2025", Revenue: 390e9}},
	})
	s := NewSnapshot(dir)

	rep, err := s.Fundamentals(context.Background(), "AAPL", 4, types.FrequencyQuarterly)
	if err != nil {
		t.Fatalf("Fundamentals: %v", err)
	}
	if len(rep.Statements) != 4 {
		t.Errorf("len = %d, want 4", len(rep.Statements))
	}
	if rep.Statements[0].Period != "2026Q2" {
		t.Errorf("first period = %q, want newest", rep.Statements[0].Period)
	}

	rep, err = s.Fundamentals(context.Background(), "AAPL", 5, types.FrequencyAnnual)
	if err != nil {
		t.Fatalf("Fundamentals annual: %v", err)
	}
	if len(rep.Statements) != 1 || rep.Frequency != types.FrequencyAnnual {
		t.Errorf("annual report wrong: %+v", rep)
	}
}

func TestSnapshotMissingCompany(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "AAPL", snapshotFile{Quote: types.Quote{Price: 1}})
	s := NewSnapshot(dir)
	if _, err := s.Company(context.Background(), "AAPL"); !errors.Is(err, types.ErrProvider) {
		t.Errorf("error = %v, want provider", err)
	}
}
