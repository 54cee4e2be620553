// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"github.com/pdiddy/equity-engine/pkg/types"
)

// PriceSummary condenses a candle series into period aggregates.
// Per prd005-market-analysis R1.
type PriceSummary struct {
	// Points is the number of candles summarized.
	Points int `json:"points" yaml:"points"`

	// StartDate and EndDate bound the period (YYYY-MM-DD).
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`

	// StartClose and EndClose are the first and last closing prices.
	StartClose float64 `json:"start_close" yaml:"start_close"`
	EndClose   float64 `json:"end_close" yaml:"end_close"`

	// PeriodHigh and PeriodLow are the extremes over the period.
	PeriodHigh float64 `json:"period_high" yaml:"period_high"`
	PeriodLow  float64 `json:"period_low" yaml:"period_low"`

	// ChangePercent is the close-to-close move over the period.
	ChangePercent float64 `json:"change_percent" yaml:"change_percent"`

	// PricePosition locates the last close inside the period range:
	// 0 at the low, 1 at the high, 0.5 when the range is flat.
	PricePosition float64 `json:"price_position" yaml:"price_position"`
}

// SummarizePrices aggregates a candle series, oldest first. Empty input
// yields a zero summary.
func SummarizePrices(candles []types.Candle) PriceSummary {
	if len(candles) == 0 {
		return PriceSummary{}
	}
	first := candles[0]
	last := candles[len(candles)-1]
	high, low := first.High, first.Low
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	s := PriceSummary{
		Points:     len(candles),
		StartDate:  first.Date.Format("2006-01-02"),
		EndDate:    last.Date.Format("2006-01-02"),
		StartClose: first.Close,
		EndClose:   last.Close,
		PeriodHigh: high,
		PeriodLow:  low,
	}
	if first.Close > 0 {
		s.ChangePercent = (last.Close - first.Close) / first.Close * 100
	}
	if high > low {
		s.PricePosition = (last.Close - low) / (high - low)
	} else {
		s.PricePosition = 0.5
	}
	return s
}
