// Package arbitrage compares the price books of two markets and reports
// items that can be bought in one and sold in the other at a profit.
package arbitrage

import (
	"sort"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/price"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Opportunity is a fee-adjusted profitable buy/sell pair. Profit always
// equals Sell - Buy - Sell*fee and is at least the matcher's minimum.
type Opportunity struct {
	ID         string
	Item       string
	From       string
	To         string
	Buy        int
	Sell       int
	Profit     decimal.Decimal
	DetectedAt time.Time
}

// Matcher finds opportunities between a buying and a selling market.
type Matcher struct {
	feeRate   decimal.Decimal
	minProfit decimal.Decimal
	now       func() time.Time
}

// NewMatcher creates a matcher charging feeRate on the sale.
func NewMatcher(feeRate, minProfit float64) *Matcher {
	return &Matcher{
		feeRate:   decimal.NewFromFloat(feeRate),
		minProfit: decimal.NewFromFloat(minProfit),
		now:       time.Now,
	}
}

// WithClock replaces the detection timestamp source.
func (m *Matcher) WithClock(now func() time.Time) *Matcher {
	m.now = now
	return m
}

// Profit returns sell - buy - sell*fee.
func (m *Matcher) Profit(buy, sell int) decimal.Decimal {
	s := decimal.NewFromInt(int64(sell))
	return s.Sub(decimal.NewFromInt(int64(buy))).Sub(s.Mul(m.feeRate))
}

// Match buys in from and sells in to. Items priced in only one book are
// skipped. Results are ordered by item name.
func (m *Matcher) Match(fromName string, from price.Book, toName string, to price.Book) []Opportunity {
	names := make(map[string]struct{}, len(from)+len(to))
	for n := range from {
		names[n] = struct{}{}
	}
	for n := range to {
		names[n] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var out []Opportunity
	ts := m.now()
	for _, name := range sorted {
		buy, ok := from[name]
		if !ok {
			continue
		}
		sell, ok := to[name]
		if !ok {
			continue
		}
		profit := m.Profit(buy, sell)
		if profit.LessThan(m.minProfit) {
			continue
		}
		out = append(out, Opportunity{
			ID:         uuid.NewString(),
			Item:       name,
			From:       fromName,
			To:         toName,
			Buy:        buy,
			Sell:       sell,
			Profit:     profit,
			DetectedAt: ts,
		})
	}
	return out
}
