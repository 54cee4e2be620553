//go:build mage

package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-engine/pkg/types"
)

const snapshotsDir = ".equity-engine/snapshots"

// demoSnapshot mirrors the snapshot provider's fixture layout.
type demoSnapshot struct {
	Company   types.CompanyInfo       `yaml:"company"`
	Quote     types.Quote             `yaml:"quote"`
	Candles   []types.Candle          `yaml:"candles"`
	Quarterly []types.StatementPeriod `yaml:"quarterly"`
	Annual    []types.StatementPeriod `yaml:"annual"`
}

// Seed writes a demo AAPL snapshot fixture so the CLI works out of the box:
//
//	mage seed && bin/equity-engine research create AAPL
func Seed() error {
	mg.Deps(Init)

	path := filepath.Join(snapshotsDir, "AAPL.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists, leaving it alone.\n", path)
		return nil
	}

	data, err := yaml.Marshal(demoFixture())
	if err != nil {
		return fmt.Errorf("marshaling fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// demoFixture builds a deterministic two-year series: a gentle uptrend with
// a mild oscillation so regime and risk stages have something to chew on.
func demoFixture() demoSnapshot {
	end := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	const days = 730

	candles := make([]types.Candle, 0, days)
	for i := 0; i < days; i++ {
		date := end.AddDate(0, 0, i-days+1)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		t := float64(i)
		price := 150*math.Pow(1.0006, t) + 6*math.Sin(t/19)
		price = math.Round(price*100) / 100
		candles = append(candles, types.Candle{
			Date:   date,
			Open:   math.Round((price-0.4)*100) / 100,
			High:   math.Round((price+1.1)*100) / 100,
			Low:    math.Round((price-1.3)*100) / 100,
			Close:  price,
			Volume: 48_000_000 + int64(i%7)*1_500_000,
		})
	}

	last := candles[len(candles)-1].Close
	prev := candles[len(candles)-2].Close

	return demoSnapshot{
		Company: types.CompanyInfo{
			Symbol:   "AAPL",
			Name:     "Apple Inc.",
			Exchange: "NASDAQ",
			Sector:   "Technology",
			Industry: "Consumer Electronics",
		},
		Quote: types.Quote{
			Symbol:        "AAPL",
			Price:         last,
			PreviousClose: prev,
			Currency:      "USD",
			Volume:        52_164_000,
			MarketCap:     3.4e12,
			AsOf:          end,
		},
		Candles: candles,
		Quarterly: []types.StatementPeriod{
			{Period: "2026Q2", Revenue: 96.4e9, NetIncome: 25.1e9, EPS: 1.64},
			{Period: "2026Q1", Revenue: 91.8e9, NetIncome: 23.6e9, EPS: 1.53},
			{Period: "2025Q4", Revenue: 124.3e9, NetIncome: 33.9e9, EPS: 2.18},
			{Period: "2025Q3", Revenue: 94.9e9, NetIncome: 23.4e9, EPS: 1.51},
			{Period: "2025Q2", Revenue: 90.8e9, NetIncome: 21.4e9, EPS: 1.40},
			{Period: "2025Q1", Revenue: 85.8e9, NetIncome: 21.4e9, EPS: 1.40},
			{Period: "2024Q4", Revenue: 119.6e9, NetIncome: 33.9e9, EPS: 2.18},
			{Period: "2024Q3", Revenue: 89.5e9, NetIncome: 22.9e9, EPS: 1.46},
		},
		Annual: []types.StatementPeriod{
			{Period: "2025", Revenue: 402.1e9, NetIncome: 102.3e9, EPS: 6.60},
			{Period: "2024", Revenue: 391.0e9, NetIncome: 93.7e9, EPS: 6.08},
			{Period: "2023", Revenue: 383.3e9, NetIncome: 97.0e9, EPS: 6.13},
			{Period: "2022", Revenue: 394.3e9, NetIncome: 99.8e9, EPS: 6.11},
			{Period: "2021", Revenue: 365.8e9, NetIncome: 94.7e9, EPS: 5.61},
		},
	}
}
