package idgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/idgraph/date"
)

// DefaultFrankfurterURL is the public, key-less frankfurter.app endpoint.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// Frankfurter fetches exchange rates from a frankfurter-style endpoint:
//
//	GET <base-url>/latest?from=EUR&to=USD,GBP
//	-> { "base": "EUR", "date": "2025-08-27", "rates": { "USD": 1.16, ... } }
//
// One blocking round trip, no retry; cancellation and deadlines come from
// the request context.
type Frankfurter struct {
	BaseURL string
	Client  *http.Client
}

// NewFrankfurter creates a provider against the public endpoint.
func NewFrankfurter() *Frankfurter {
	return &Frankfurter{BaseURL: DefaultFrankfurterURL, Client: http.DefaultClient}
}

// Latest implements RateProvider.
func (f *Frankfurter) Latest(ctx context.Context, base string, targets []string) (*ExchangeRates, error) {
	if len(targets) == 0 {
		// All costs are already in base, there is nothing to ask for.
		return nil, nil
	}
	q := url.Values{}
	q.Set("from", strings.ToUpper(base))
	q.Set("to", strings.ToUpper(strings.Join(targets, ",")))
	addr := strings.TrimSuffix(f.BaseURL, "/") + "/latest?" + q.Encode()

	var jobj any
	if err := jwget(ctx, f.client(), addr, &jobj); err != nil {
		return nil, err
	}
	return parseRates(jobj)
}

func (f *Frankfurter) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// parseRates plucks the rate table out of the provider response. Provider
// payloads are loosely shaped (extra fields like "amount", providers that
// nest the table), so fields are extracted by path rather than by struct.
func parseRates(jobj any) (*ExchangeRates, error) {
	rbase, err := pluck(jobj, "$.base")
	if err != nil {
		return nil, err
	}
	base, ok := rbase.(string)
	if !ok {
		return nil, fmt.Errorf("error parsing rates: %q is %T, not a string", "base", rbase)
	}

	out := &ExchangeRates{Base: strings.ToUpper(base), Rates: make(map[string]float64)}

	if rdate, err := pluck(jobj, "$.date"); err == nil {
		if str, ok := rdate.(string); ok {
			if d, err := date.Parse(str); err == nil {
				out.Date = d
			}
		}
	}

	rrates, err := pluck(jobj, "$.rates")
	if err != nil {
		return nil, fmt.Errorf("error parsing rates: %w", err)
	}
	table, ok := rrates.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error parsing rates: %q is %T, not an object", "rates", rrates)
	}
	for code, v := range table {
		val, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("error parsing rates: rate %q is %T, not a number", code, v)
		}
		out.Rates[strings.ToUpper(code)] = val
	}
	return out, nil
}

// pluck extracts a single value by jsonpath.
func pluck(jobj any, path string) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1
	// answer, or a single answer: by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return jval, nil
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

var _ RateProvider = (*Frankfurter)(nil)
