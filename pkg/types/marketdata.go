// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Quote is a point-in-time price snapshot for a symbol.
// Per prd003-data-providers R1.2.
type Quote struct {
	// Symbol is the quoted ticker.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Price is the last traded price.
	Price float64 `json:"price" yaml:"price"`

	// PreviousClose is the prior session's closing price.
	PreviousClose float64 `json:"previous_close" yaml:"previous_close"`

	// Change is Price minus PreviousClose.
	Change float64 `json:"change" yaml:"change"`

	// ChangePercent is Change relative to PreviousClose, in percent.
	ChangePercent float64 `json:"change_percent" yaml:"change_percent"`

	// Currency is the quote currency code (e.g. "USD").
	Currency string `json:"currency" yaml:"currency"`

	// Volume is the session share volume.
	Volume int64 `json:"volume" yaml:"volume"`

	// MarketCap is the market capitalization, when known.
	MarketCap float64 `json:"market_cap,omitempty" yaml:"market_cap,omitempty"`

	// AsOf is the snapshot timestamp.
	AsOf time.Time `json:"as_of" yaml:"as_of"`
}

// Candle is one OHLCV bar of price history.
// Per prd003-data-providers R1.3.
type Candle struct {
	// Date is the bar's opening date.
	Date time.Time `json:"date" yaml:"date"`

	Open   float64 `json:"open" yaml:"open"`
	High   float64 `json:"high" yaml:"high"`
	Low    float64 `json:"low" yaml:"low"`
	Close  float64 `json:"close" yaml:"close"`
	Volume int64   `json:"volume" yaml:"volume"`
}

// CompanyInfo describes the entity behind a symbol.
// Per prd003-data-providers R1.4.
type CompanyInfo struct {
	// Symbol is the ticker.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Name is the legal or trading name.
	Name string `json:"name" yaml:"name"`

	// Exchange is the listing exchange code.
	Exchange string `json:"exchange,omitempty" yaml:"exchange,omitempty"`

	// Sector and Industry classify the business.
	Sector   string `json:"sector,omitempty" yaml:"sector,omitempty"`
	Industry string `json:"industry,omitempty" yaml:"industry,omitempty"`

	// Description is a short business summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ReportFrequency is the cadence of financial reports.
type ReportFrequency string

const (
	FrequencyQuarterly ReportFrequency = "quarterly"
	FrequencyAnnual    ReportFrequency = "annual"
)

// StatementPeriod summarizes one reporting period's financials.
// Per prd003-data-providers R1.5.
type StatementPeriod struct {
	// Period labels the reporting period (e.g. "2026Q1", "2025").
	Period string `json:"period" yaml:"period"`

	// Revenue is total revenue for the period.
	Revenue float64 `json:"revenue" yaml:"revenue"`

	// NetIncome is net income for the period.
	NetIncome float64 `json:"net_income" yaml:"net_income"`

	// EPS is diluted earnings per share.
	EPS float64 `json:"eps" yaml:"eps"`

	// TotalAssets and TotalLiabilities are balance sheet totals.
	TotalAssets      float64 `json:"total_assets,omitempty" yaml:"total_assets,omitempty"`
	TotalLiabilities float64 `json:"total_liabilities,omitempty" yaml:"total_liabilities,omitempty"`

	// OperatingCashFlow is cash generated by operations.
	OperatingCashFlow float64 `json:"operating_cash_flow,omitempty" yaml:"operating_cash_flow,omitempty"`
}

// FundamentalsReport is a symbol's financial statements over recent periods,
// newest first. Per prd003-data-providers R1.5.
type FundamentalsReport struct {
	// Symbol is the reported ticker.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Frequency is the report cadence.
	Frequency ReportFrequency `json:"frequency" yaml:"frequency"`

	// Statements holds per-period summaries, newest first.
	Statements []StatementPeriod `json:"statements" yaml:"statements"`
}

// TrendRegime classifies the prevailing market trend for a symbol.
// Per prd005-market-analysis R4.1.
type TrendRegime string

const (
	RegimeBull    TrendRegime = "bull"
	RegimeBear    TrendRegime = "bear"
	RegimeNeutral TrendRegime = "neutral"
)

// RegimeConfidence grades how decisive the regime signal is.
type RegimeConfidence string

const (
	ConfidenceLow    RegimeConfidence = "low"
	ConfidenceMedium RegimeConfidence = "medium"
	ConfidenceHigh   RegimeConfidence = "high"
)

// RegimeReport is the output of market regime detection over price history.
// Per prd005-market-analysis R4.
type RegimeReport struct {
	// Regime is the classified trend.
	Regime TrendRegime `json:"regime" yaml:"regime"`

	// Confidence grades the signal strength.
	Confidence RegimeConfidence `json:"confidence" yaml:"confidence"`

	// Momentum is the volatility-scaled momentum score.
	Momentum float64 `json:"momentum" yaml:"momentum"`

	// Volatility is the annualized volatility of log returns.
	Volatility float64 `json:"volatility" yaml:"volatility"`

	// MA50 and MA200 are the trailing simple moving averages. Zero when
	// the history is too short to compute them.
	MA50  float64 `json:"ma50,omitempty" yaml:"ma50,omitempty"`
	MA200 float64 `json:"ma200,omitempty" yaml:"ma200,omitempty"`

	// RSI is the 14-period relative strength index of the latest close.
	RSI float64 `json:"rsi,omitempty" yaml:"rsi,omitempty"`

	// Observations is the number of candles the detection used.
	Observations int `json:"observations" yaml:"observations"`
}
