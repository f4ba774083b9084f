package idgraph

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FallbackCurrency is the reporting currency used when the graph carries no
// costed entity at all.
const FallbackCurrency = "EUR"

// Cost is one costed entity with its recurrence: the input of the
// monthly-equivalent aggregation.
type Cost struct {
	Money Money
	Cycle BillingCycle
}

// Costs returns every costed entity in the graph with its recurrence:
// services carrying a cost and subscription records. This is the input of
// base-currency detection and the monthly aggregate.
func (g *Graph) Costs() []Cost {
	var costs []Cost
	for _, s := range g.Services() {
		if s.Cost == nil {
			continue
		}
		costs = append(costs, Cost{Money: *s.Cost, Cycle: s.BillingCycle})
	}
	for _, sub := range g.Subscriptions() {
		costs = append(costs, Cost{Money: sub.Cost(), Cycle: ParseBillingCycle(sub.Frequency)})
	}
	return costs
}

// Monies projects the cost list onto its monetary values.
func Monies(costs []Cost) []Money {
	out := make([]Money, 0, len(costs))
	for _, c := range costs {
		out = append(out, c.Money)
	}
	return out
}

// DetectBaseCurrency returns the dominant currency across all costed
// entities: the most frequent code, case-normalized. Ties keep the first
// currency that reached the current maximum, so the result is stable under
// re-reads of the same collection. With no costs it falls back to
// FallbackCurrency.
func DetectBaseCurrency(costs []Money) string {
	counts := make(map[string]int)
	best, bestCount := FallbackCurrency, 0
	for _, c := range costs {
		code := strings.ToUpper(c.Currency())
		if code == "" {
			continue
		}
		counts[code]++
		if counts[code] > bestCount {
			best, bestCount = code, counts[code]
		}
	}
	return best
}

// DetectForeignCurrencies returns the distinct currency codes present that
// differ from base, in order of first appearance.
func DetectForeignCurrencies(costs []Money, base string) []string {
	base = strings.ToUpper(base)
	seen := make(map[string]bool)
	var foreign []string
	for _, c := range costs {
		code := strings.ToUpper(c.Currency())
		if code == "" || code == base || seen[code] {
			continue
		}
		seen[code] = true
		foreign = append(foreign, code)
	}
	return foreign
}

// Convert converts an amount from one currency into the base currency using
// the given rate table. Rates are expressed as "1 base = rate units of the
// quoted currency".
//
// Conversion is a soft operation: with no rates, or with a rate table whose
// recorded base matches neither side, the amount passes through unchanged.
// The second return value reports whether a real conversion happened, so
// aggregates can surface unconvertible currencies instead of silently mixing
// them into the total.
func Convert(amount decimal.Decimal, from, base string, rates *ExchangeRates) (decimal.Decimal, bool) {
	from, base = strings.ToUpper(from), strings.ToUpper(base)
	if from == base || from == "" {
		return amount, true
	}
	if rates == nil {
		return amount, false
	}
	if rates.Base == base {
		if rate, ok := rates.Rate(from); ok && !rate.IsZero() {
			return amount.Div(rate), true
		}
	}
	if rates.Base == from {
		if rate, ok := rates.Rate(base); ok {
			return amount.Mul(rate), true
		}
	}
	return amount, false
}

// MonthlyEquivalent returns the amount a cost contributes to monthly
// aggregates: a yearly cost contributes a twelfth, a monthly cost
// contributes itself, every other cycle contributes nothing.
func MonthlyEquivalent(c Cost) (Money, bool) {
	switch c.Cycle {
	case Monthly:
		return c.Money, true
	case Yearly:
		return M(c.Money.Amount().Div(decimal.NewFromInt(12)), c.Money.Currency()), true
	default:
		return Money{}, false
	}
}

// CostSummary is the aggregate recurring-cost report.
type CostSummary struct {
	// Base is the reporting currency of Total.
	Base string
	// PerCurrency maps each currency code to the subtotal of its
	// monthly-equivalent amounts, unconverted.
	PerCurrency map[string]Money
	// Total is the monthly recurring cost in the base currency, converted
	// entity by entity (not from the subtotals) and rounded once at the end.
	Total Money
	// Unconvertible lists the currency codes whose amounts pass through into
	// Total unconverted because no usable rate covered them.
	Unconvertible []string
}

// Summarize aggregates the monthly-equivalent recurring costs. Each entity's
// amount is converted individually before summing, so rounding differences
// never compound across entities; the single rounding happens on the final
// total.
func Summarize(costs []Cost, base string, rates *ExchangeRates) CostSummary {
	base = strings.ToUpper(base)
	sum := CostSummary{
		Base:        base,
		PerCurrency: make(map[string]Money),
	}
	total := decimal.Zero
	badSeen := make(map[string]bool)
	for _, c := range costs {
		monthly, ok := MonthlyEquivalent(c)
		if !ok {
			continue
		}
		code := strings.ToUpper(monthly.Currency())
		if code == "" {
			code = base
		}
		sum.PerCurrency[code] = sum.PerCurrency[code].Add(M(monthly.Amount(), code))

		converted, ok := Convert(monthly.Amount(), code, base, rates)
		if !ok && !badSeen[code] {
			badSeen[code] = true
			sum.Unconvertible = append(sum.Unconvertible, code)
		}
		total = total.Add(converted)
	}
	sum.Total = M(total, base).Round()
	return sum
}
