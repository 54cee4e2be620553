// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Snapshot serves market data from per-symbol YAML fixture files in a
// directory: <dir>/<SYMBOL>.yaml. Responses are deterministic functions of
// the file contents; no clock or network is consulted. History windows are
// measured from the newest candle in the fixture.
// Per prd003-data-providers R2.
type Snapshot struct {
	dir string
}

// NewSnapshot returns a snapshot provider reading from dir.
func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{dir: dir}
}

// snapshotFile is the on-disk fixture layout.
type snapshotFile struct {
	Company   types.CompanyInfo       `yaml:"company"`
	Quote     types.Quote             `yaml:"quote"`
	Candles   []types.Candle          `yaml:"candles"`
	Quarterly []types.StatementPeriod `yaml:"quarterly"`
	Annual    []types.StatementPeriod `yaml:"annual"`
}

func (s *Snapshot) load(symbol string) (*snapshotFile, error) {
	path := filepath.Join(s.dir, symbol+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, types.NewError(types.KindNotFound, "provider.Snapshot",
			fmt.Sprintf("no snapshot for symbol %s (looked for %s)", symbol, path))
	}
	if err != nil {
		return nil, types.WrapError(types.KindProvider, "provider.Snapshot", err)
	}
	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, types.WrapError(types.KindProvider, "provider.Snapshot",
			fmt.Errorf("parsing snapshot %s: %w", path, err))
	}
	sort.Slice(f.Candles, func(i, j int) bool { return f.Candles[i].Date.Before(f.Candles[j].Date) })
	return &f, nil
}

func (s *Snapshot) Quote(_ context.Context, symbol string) (types.Quote, error) {
	f, err := s.load(symbol)
	if err != nil {
		return types.Quote{}, err
	}
	q := f.Quote
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	// Derive change fields when the fixture leaves them out.
	if q.Change == 0 && q.PreviousClose != 0 {
		q.Change = q.Price - q.PreviousClose
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
	return q, nil
}

func (s *Snapshot) History(_ context.Context, symbol string, days int, interval string) ([]types.Candle, error) {
	f, err := s.load(symbol)
	if err != nil {
		return nil, err
	}
	if len(f.Candles) == 0 {
		return nil, types.NewError(types.KindProvider, "provider.Snapshot",
			fmt.Sprintf("snapshot for %s has no candles", symbol))
	}
	candles := f.Candles
	if days > 0 {
		cutoff := candles[len(candles)-1].Date.AddDate(0, 0, -days)
		i := sort.Search(len(candles), func(i int) bool { return candles[i].Date.After(cutoff) })
		candles = candles[i:]
	}
	if interval == "1wk" {
		candles = weekly(candles)
	}
	out := make([]types.Candle, len(candles))
	copy(out, candles)
	return out, nil
}

// weekly thins daily candles to one per trading week, keeping the newest
// candle and every fifth one before it.
func weekly(candles []types.Candle) []types.Candle {
	var out []types.Candle
	for i := len(candles) - 1; i >= 0; i -= 5 {
		out = append(out, candles[i])
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func (s *Snapshot) Company(_ context.Context, symbol string) (types.CompanyInfo, error) {
	f, err := s.load(symbol)
	if err != nil {
		return types.CompanyInfo{}, err
	}
	c := f.Company
	if c.Symbol == "" {
		c.Symbol = symbol
	}
	if c.Name == "" {
		return types.CompanyInfo{}, types.NewError(types.KindProvider, "provider.Snapshot",
			fmt.Sprintf("snapshot for %s has no company record", symbol))
	}
	return c, nil
}

func (s *Snapshot) Fundamentals(_ context.Context, symbol string, periods int, freq types.ReportFrequency) (types.FundamentalsReport, error) {
	f, err := s.load(symbol)
	if err != nil {
		return types.FundamentalsReport{}, err
	}
	statements := f.Quarterly
	if freq == types.FrequencyAnnual {
		statements = f.Annual
	}
	if len(statements) == 0 {
		return types.FundamentalsReport{}, types.NewError(types.KindProvider, "provider.Snapshot",
			fmt.Sprintf("snapshot for %s has no %s statements", symbol, freq))
	}
	if periods > 0 && len(statements) > periods {
		statements = statements[:periods]
	}
	out := make([]types.StatementPeriod, len(statements))
	copy(out, statements)
	return types.FundamentalsReport{Symbol: symbol, Frequency: freq, Statements: out}, nil
}
