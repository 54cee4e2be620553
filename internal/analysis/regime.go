// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/equity-engine/pkg/types"
)

const (
	// Default moving average windows for trend detection (Faber regime
	// filter over daily candles).
	shortMAWindow = 50
	longMAWindow  = 200

	// Volatility-scaled momentum thresholds. Exceeding mediumThreshold in
	// the direction of the MA alignment gives medium confidence,
	// highThreshold gives high confidence.
	mediumThreshold = 0.25
	highThreshold   = 1.0

	// recentVolWindow is the return window used to scale momentum.
	recentVolWindow = 20

	// fallbackAnnualVol stands in when the history is too short to
	// estimate volatility: 20% annualized.
	fallbackAnnualVol = 0.2

	// rsiPeriod is the standard Wilder lookback.
	rsiPeriod = 14

	// minTrendPoints is the least history trend detection accepts.
	minTrendPoints = 10
)

// DetectRegime classifies the prevailing trend from price history using a
// moving average alignment check with volatility-scaled momentum
// thresholds: bull needs price above the short MA above the long MA plus
// momentum beyond +0.25σ (medium) or +1.0σ (high); bear mirrors it below;
// anything mixed is neutral. MA windows shrink proportionally when the
// history is shorter than the defaults. Per prd005-market-analysis R4.
func DetectRegime(candles []types.Candle) (types.RegimeReport, error) {
	prices := Closes(candles)
	if len(prices) < minTrendPoints {
		return types.RegimeReport{}, types.NewError(types.KindAnalysis, "analysis.DetectRegime",
			fmt.Sprintf("need at least %d data points, got %d", minTrendPoints, len(prices)))
	}

	shortW, longW := adaptWindows(len(prices))

	var shortMA, longMA float64
	haveMAs := len(prices) >= longW
	if haveMAs {
		var err error
		if shortMA, err = MovingAverage(prices, shortW); err != nil {
			return types.RegimeReport{}, types.WrapError(types.KindAnalysis, "analysis.DetectRegime", err)
		}
		if longMA, err = MovingAverage(prices, longW); err != nil {
			return types.RegimeReport{}, types.WrapError(types.KindAnalysis, "analysis.DetectRegime", err)
		}
	}

	// Log return over the whole window, scaled by recent volatility so
	// quiet stocks are not penalized.
	logReturn := 0.0
	if prices[0] > 0 {
		logReturn = math.Log(prices[len(prices)-1] / prices[0])
	}
	recentVol, err := AnnualizedVolatility(prices, recentVolWindow)
	if err != nil || recentVol <= 0 {
		recentVol = fallbackAnnualVol
	}
	scaledMomentum := logReturn / recentVol

	regime, confidence := classifyTrend(prices[len(prices)-1], shortMA, longMA, haveMAs, scaledMomentum)

	report := types.RegimeReport{
		Regime:       regime,
		Confidence:   confidence,
		Momentum:     scaledMomentum,
		Volatility:   recentVol,
		Observations: len(prices),
	}
	if haveMAs {
		report.MA50 = shortMA
		report.MA200 = longMA
	}
	if rsi, err := RSI(prices, rsiPeriod); err == nil {
		report.RSI = rsi
	}
	return report, nil
}

// adaptWindows shrinks the MA windows when the history cannot cover the
// defaults, keeping the short window strictly inside the long one.
func adaptWindows(n int) (short, long int) {
	short, long = shortMAWindow, longMAWindow
	if n < short {
		short = max(5, n/3)
		long = max(short+5, n-5)
		return short, long
	}
	if n < long {
		long = max(short+10, n-5)
	}
	return short, long
}

func classifyTrend(price, shortMA, longMA float64, haveMAs bool, scaledMomentum float64) (types.TrendRegime, types.RegimeConfidence) {
	if !haveMAs {
		return types.RegimeNeutral, types.ConfidenceLow
	}
	switch {
	case price > shortMA && shortMA > longMA:
		if scaledMomentum > highThreshold {
			return types.RegimeBull, types.ConfidenceHigh
		}
		if scaledMomentum > mediumThreshold {
			return types.RegimeBull, types.ConfidenceMedium
		}
		return types.RegimeNeutral, types.ConfidenceLow
	case price < shortMA && shortMA < longMA:
		if scaledMomentum < -highThreshold {
			return types.RegimeBear, types.ConfidenceHigh
		}
		if scaledMomentum < -mediumThreshold {
			return types.RegimeBear, types.ConfidenceMedium
		}
		return types.RegimeNeutral, types.ConfidenceLow
	default:
		return types.RegimeNeutral, types.ConfidenceMedium
	}
}

// VolatilityLevel grades current volatility against its own history.
type VolatilityLevel string

const (
	VolatilityLow    VolatilityLevel = "low"
	VolatilityNormal VolatilityLevel = "normal"
	VolatilityHigh   VolatilityLevel = "high"
)

// ClassifyVolatility compares the latest rolling volatility against the
// mean of its history: beyond one standard deviation above is high, below
// is low. Returns the current annualized volatility and its level.
// Per prd005-market-analysis R2.3.
func ClassifyVolatility(prices []float64, window int) (float64, VolatilityLevel, error) {
	vols := RollingVolatility(prices, window)
	if len(vols) == 0 {
		return 0, VolatilityNormal, types.NewError(types.KindAnalysis, "analysis.ClassifyVolatility",
			fmt.Sprintf("need at least %d prices for a %d day volatility window", window+1, window))
	}
	current := vols[len(vols)-1]
	if len(vols) == 1 {
		return current, VolatilityNormal, nil
	}
	mean, err := stats.Mean(vols)
	if err != nil {
		return current, VolatilityNormal, nil
	}
	sd, err := stats.StandardDeviationPopulation(vols)
	if err != nil {
		return current, VolatilityNormal, nil
	}
	switch {
	case current > mean+sd:
		return current, VolatilityHigh, nil
	case current < mean-sd:
		return current, VolatilityLow, nil
	default:
		return current, VolatilityNormal, nil
	}
}
