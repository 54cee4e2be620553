// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"regexp"
)

type glossaryEntry struct {
	term      string
	expansion string
	pattern   *regexp.Regexp
}

func entry(term, expansion string) glossaryEntry {
	return glossaryEntry{
		term:      term,
		expansion: expansion,
		pattern:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
	}
}

// glossary lists the terms beginner rendering expands, in a fixed order so
// output stays deterministic.
var glossary = []glossaryEntry{
	entry("previous close", "the price at the end of the prior trading day"),
	entry("candles", "bars of price history, each showing the open, high, low, and close for one period"),
	entry("period high", "the highest price reached inside the window being looked at"),
	entry("volatility", "how much the price swings around its average; bigger numbers mean wilder moves"),
	entry("annualized", "scaled to a one year horizon so windows of different lengths compare directly"),
	entry("momentum", "the tendency of a price that has been rising or falling to keep moving the same way"),
	entry("moving average", "the average closing price over a trailing window, which smooths out daily noise"),
	entry("RSI", "relative strength index, a 0 to 100 gauge of recent gains against losses; above 70 is usually read as overbought, below 30 as oversold"),
	entry("revenue", "the money a company takes in from sales before any costs"),
	entry("net income", "the profit left after all costs and taxes"),
	entry("EPS", "earnings per share, the company's profit divided by its share count"),
	entry("market capitalization", "the total value of all the company's shares combined"),
	entry("regime", "the broad trend the stock is in: rising (bull), falling (bear), or sideways (neutral)"),
	entry("fundamentals", "the company's reported financials, like revenue and profit"),
}

// glossaryFor returns Markdown list lines for each known term found in body.
func glossaryFor(body string) []string {
	var lines []string
	for _, e := range glossary {
		if e.pattern.MatchString(body) {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", e.term, e.expansion))
		}
	}
	return lines
}
