// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"testing"
	"time"

	"github.com/pdiddy/equity-engine/pkg/types"
)

func TestSummarizePrices(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candles := []types.Candle{
		{Date: base, Open: 100, High: 104, Low: 98, Close: 100},
		{Date: base.AddDate(0, 0, 1), Open: 100, High: 112, Low: 99, Close: 110},
		{Date: base.AddDate(0, 0, 2), Open: 110, High: 111, Low: 102, Close: 108},
	}

	s := SummarizePrices(candles)

	if s.Points != 3 {
		t.Errorf("Points = %d, want 3", s.Points)
	}
	if s.StartDate != "2026-03-02" || s.EndDate != "2026-03-04" {
		t.Errorf("dates = %s..%s, want 2026-03-02..2026-03-04", s.StartDate, s.EndDate)
	}
	if s.PeriodHigh != 112 || s.PeriodLow != 98 {
		t.Errorf("range = %.0f..%.0f, want 98..112", s.PeriodLow, s.PeriodHigh)
	}
	closeTo(t, s.ChangePercent, 8.0, 1e-9, "ChangePercent")
	wantPos := (108.0 - 98.0) / (112.0 - 98.0)
	closeTo(t, s.PricePosition, wantPos, 1e-9, "PricePosition")
}

func TestSummarizePricesEdges(t *testing.T) {
	if s := SummarizePrices(nil); s.Points != 0 {
		t.Errorf("empty input: Points = %d, want 0", s.Points)
	}

	flat := []types.Candle{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), High: 50, Low: 50, Close: 50},
	}
	s := SummarizePrices(flat)
	if s.PricePosition != 0.5 {
		t.Errorf("flat range: PricePosition = %f, want 0.5", s.PricePosition)
	}
}
