package idgraph

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeProvider counts calls and serves a canned table or a canned error.
type fakeProvider struct {
	rates *ExchangeRates
	err   error
	calls int
}

func (p *fakeProvider) Latest(ctx context.Context, base string, targets []string) (*ExchangeRates, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.rates, nil
}

func usdTable() *ExchangeRates {
	return &ExchangeRates{Base: "EUR", Rates: map[string]float64{"USD": 1.1}}
}

func TestFetchEmptyTargets(t *testing.T) {
	provider := &fakeProvider{rates: usdTable()}
	s := NewRateService(provider, NewMemStore())

	rates, err := s.Fetch(context.Background(), "EUR", nil)
	if err != nil || rates != nil {
		t.Errorf("Fetch with no targets = %v, %v, want nil, nil", rates, err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}

func TestFetchCachesResult(t *testing.T) {
	provider := &fakeProvider{rates: usdTable()}
	s := NewRateService(provider, NewMemStore())

	for i := 0; i < 3; i++ {
		rates, err := s.Fetch(context.Background(), "EUR", []string{"USD"})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if _, ok := rates.Rate("USD"); !ok {
			t.Fatalf("no USD rate in %v", rates)
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestFetchExpiredCacheRefetches(t *testing.T) {
	provider := &fakeProvider{rates: usdTable()}
	s := NewRateService(provider, NewMemStore())

	now := time.Now()
	s.now = func() time.Time { return now }
	if _, err := s.Fetch(context.Background(), "EUR", []string{"USD"}); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return now.Add(25 * time.Hour) }
	if _, err := s.Fetch(context.Background(), "EUR", []string{"USD"}); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestFetchUncoveredCacheRefetches(t *testing.T) {
	provider := &fakeProvider{rates: usdTable()}
	s := NewRateService(provider, NewMemStore())

	if _, err := s.Fetch(context.Background(), "EUR", []string{"USD"}); err != nil {
		t.Fatal(err)
	}
	// The cached table has no GBP quote, so a new request must go out.
	if _, err := s.Fetch(context.Background(), "EUR", []string{"USD", "GBP"}); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestFetchStaleFallback(t *testing.T) {
	provider := &fakeProvider{rates: usdTable()}
	store := NewMemStore()
	s := NewRateService(provider, store)

	now := time.Now()
	s.now = func() time.Time { return now }
	if _, err := s.Fetch(context.Background(), "EUR", []string{"USD"}); err != nil {
		t.Fatal(err)
	}

	// Provider goes down and the cache expires: the stale table still serves.
	provider.err = errors.New("boom")
	s.now = func() time.Time { return now.Add(48 * time.Hour) }
	rates, err := s.Fetch(context.Background(), "EUR", []string{"USD"})
	if err != nil {
		t.Fatalf("Fetch with stale cache: %v", err)
	}
	if rates == nil || rates.Rates["USD"] != 1.1 {
		t.Errorf("stale fallback rates = %v, want cached table", rates)
	}
}

func TestFetchNoCacheNoProvider(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	s := NewRateService(provider, NewMemStore())

	_, err := s.Fetch(context.Background(), "EUR", []string{"USD"})
	if !errors.Is(err, ErrRateProviderUnavailable) {
		t.Errorf("err = %v, want ErrRateProviderUnavailable", err)
	}
}
