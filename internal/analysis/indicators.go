// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis computes technical indicators and classifies market
// regimes from price history. All functions are pure and deterministic.
// Implements: prd005-market-analysis (R1-R4);
//
//	docs/ARCHITECTURE § Market Analysis.
package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// LogReturns computes r_t = ln(P_t / P_{t-1}) for consecutive prices.
// The result has one fewer element than prices. Non-positive prices yield
// a zero return for that step. Per prd005-market-analysis R1.1.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			out[i-1] = math.Log(prices[i] / prices[i-1])
		}
	}
	return out
}

// MovingAverage returns the trailing simple moving average of the last
// window prices. Per prd005-market-analysis R1.2.
func MovingAverage(prices []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("moving average window must be positive, got %d", window)
	}
	if len(prices) < window {
		return 0, fmt.Errorf("moving average needs %d prices, got %d", window, len(prices))
	}
	mean, err := stats.Mean(prices[len(prices)-window:])
	if err != nil {
		return 0, fmt.Errorf("computing moving average: %w", err)
	}
	return mean, nil
}

// AnnualizedVolatility is the population standard deviation of the log
// returns over the last window steps, scaled by sqrt(252).
// Per prd005-market-analysis R2.1.
func AnnualizedVolatility(prices []float64, window int) (float64, error) {
	if len(prices) < window+1 {
		return 0, fmt.Errorf("volatility needs %d prices, got %d", window+1, len(prices))
	}
	returns := LogReturns(prices[len(prices)-window-1:])
	sd, err := stats.StandardDeviationPopulation(returns)
	if err != nil {
		return 0, fmt.Errorf("computing volatility: %w", err)
	}
	return sd * math.Sqrt(tradingDaysPerYear), nil
}

// RollingVolatility computes the annualized volatility at each index where a
// full window of returns is available, in price order. Indices without
// enough history are absent from the result; the caller aligns by offset
// window. Per prd005-market-analysis R2.2.
func RollingVolatility(prices []float64, window int) []float64 {
	if len(prices) < window+1 {
		return nil
	}
	returns := LogReturns(prices)
	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		sd, err := stats.StandardDeviationPopulation(returns[i-window : i])
		if err != nil {
			continue
		}
		out = append(out, sd*math.Sqrt(tradingDaysPerYear))
	}
	return out
}

// RSI computes Wilder's relative strength index over the given period for
// the latest price. Per prd005-market-analysis R3.1.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi period must be positive, got %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("rsi needs %d prices, got %d", period+1, len(prices))
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remaining prices.
	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// Momentum is the log return over the last span steps, as a fraction.
// Per prd005-market-analysis R1.3.
func Momentum(prices []float64, span int) float64 {
	if span <= 0 || len(prices) < span+1 {
		return 0
	}
	first := prices[len(prices)-1-span]
	last := prices[len(prices)-1]
	if first <= 0 || last <= 0 {
		return 0
	}
	return math.Log(last / first)
}

// Closes extracts closing prices from candles in order.
func Closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
