package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/idgraph"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	base    string
	offline bool
	rateURL string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the monthly recurring cost summary" }
func (*summaryCmd) Usage() string {
	return `idg summary [-base <currency>] [-offline]

  Displays per-currency monthly subtotals and the converted monthly total in
  the base currency (detected from the graph unless -base is given).
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "", "Reporting currency (default: detected from the graph)")
	f.BoolVar(&c.offline, "offline", false, "Do not contact the rate provider, use cached rates only")
	f.StringVar(&c.rateURL, "rates-url", idgraph.DefaultFrankfurterURL, "Exchange-rate provider base URL")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g, store, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}

	costs := g.Costs()
	monies := idgraph.Monies(costs)
	base := c.base
	if base == "" {
		base = idgraph.DetectBaseCurrency(monies)
	}
	foreign := idgraph.DetectForeignCurrencies(monies, base)

	var rates *idgraph.ExchangeRates
	if len(foreign) > 0 {
		frankfurter := idgraph.NewFrankfurter()
		frankfurter.BaseURL = c.rateURL
		var provider idgraph.RateProvider = frankfurter
		if c.offline {
			provider = offlineProvider{}
		}
		svc := idgraph.NewRateService(provider, store)
		rates, err = svc.Fetch(ctx, base, foreign)
		if err != nil {
			// Soft failure: report in base-currency-less mode.
			fmt.Printf("warning: %v; foreign amounts are reported unconverted\n", err)
		}
	}

	summary := idgraph.Summarize(costs, base, rates)

	var b strings.Builder
	fmt.Fprintf(&b, "# Monthly recurring costs\n\n")
	codes := make([]string, 0, len(summary.PerCurrency))
	for code := range summary.PerCurrency {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, "- %s: %s\n", code, summary.PerCurrency[code])
	}
	fmt.Fprintf(&b, "\n**Total: %s**\n", summary.Total)
	if len(summary.Unconvertible) > 0 {
		fmt.Fprintf(&b, "\nUnconverted currencies: %s\n", strings.Join(summary.Unconvertible, ", "))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

// offlineProvider always fails, forcing the rate service onto its cache.
type offlineProvider struct{}

func (offlineProvider) Latest(context.Context, string, []string) (*idgraph.ExchangeRates, error) {
	return nil, fmt.Errorf("offline")
}
