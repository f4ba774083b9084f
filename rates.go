package idgraph

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/etnz/idgraph/date"
	"github.com/shopspring/decimal"
)

// ExchangeRates is one rate table from the provider: the quoted currencies
// against a single base, as of a provider-side date.
type ExchangeRates struct {
	Base  string             `json:"base"`
	Date  date.Date          `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Rate returns the rate quoted for a currency code, as a decimal.
func (r *ExchangeRates) Rate(code string) (decimal.Decimal, bool) {
	v, ok := r.Rates[strings.ToUpper(code)]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// Covers reports whether the table quotes every one of the given codes.
func (r *ExchangeRates) Covers(codes []string) bool {
	for _, c := range codes {
		if _, ok := r.Rates[strings.ToUpper(c)]; !ok {
			return false
		}
	}
	return true
}

// RateProvider is the external foreign-exchange contract: latest rates for
// base against the given target codes. Implementations perform one blocking
// round trip with no retry; cancellation comes from ctx.
type RateProvider interface {
	Latest(ctx context.Context, base string, targets []string) (*ExchangeRates, error)
}

// rateCacheTTL is the freshness window of a cached rate table.
const rateCacheTTL = 24 * time.Hour

// ratesCollection is the store collection holding one cache entry per base
// currency.
const ratesCollection = "rates"

// jrateCache is the persisted cache entry shape.
type jrateCache struct {
	Rates     *ExchangeRates `json:"rates"`
	Timestamp int64          `json:"timestamp"` // epoch milliseconds
}

// RateService fetches exchange rates through a provider and caches them in
// the store, keyed by base currency. A provider failure degrades to the last
// cached table, stale or not; the caller only ever sees nil rates when there
// is nothing usable at all.
type RateService struct {
	Provider RateProvider
	Store    Store

	// now is the wall clock, replaceable in tests.
	now func() time.Time
}

// NewRateService creates a rate service over a provider and a cache store.
func NewRateService(provider RateProvider, store Store) *RateService {
	return &RateService{Provider: provider, Store: store, now: time.Now}
}

// Fetch returns rates for base against targets. Cached tables younger than
// 24 hours that cover every target are returned without a network call. An
// empty target set means every cost is already in the base currency: no
// request is ever issued for it.
//
// On provider failure Fetch falls back to the cached table even when it is
// expired, and returns ErrRateProviderUnavailable only when there is no
// cache at all. Callers treat a nil table as "convert nothing".
func (s *RateService) Fetch(ctx context.Context, base string, targets []string) (*ExchangeRates, error) {
	base = strings.ToUpper(base)
	if len(targets) == 0 {
		return nil, nil
	}

	cached := s.cached(base)
	if cached != nil && cached.fresh(s.now()) && cached.Rates.Covers(targets) {
		return cached.Rates, nil
	}

	rates, err := s.Provider.Latest(ctx, base, targets)
	if err != nil {
		if cached != nil {
			// Stale rates beat no rates for a cost report.
			log.Printf("rate provider failed (%v), using cached rates for %s", err, base)
			return cached.Rates, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRateProviderUnavailable, err)
	}

	entry := jrateCache{Rates: rates, Timestamp: s.now().UnixMilli()}
	if err := s.Store.Put(ratesCollection, base, entry); err != nil {
		// A cache write failure must not fail the fetch.
		log.Printf("rate cache write err (ignored): %v", err)
	}
	return rates, nil
}

// cached loads the cache entry for a base currency, nil if absent or
// unreadable.
func (s *RateService) cached(base string) *jrateCache {
	var entry jrateCache
	err := s.Store.Get(ratesCollection, base, &entry)
	if err != nil || entry.Rates == nil {
		return nil
	}
	return &entry
}

func (c *jrateCache) fresh(now time.Time) bool {
	age := now.Sub(time.UnixMilli(c.Timestamp))
	return age < rateCacheTTL
}
