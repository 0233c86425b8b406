package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultCBRURL is the Central Bank of Russia daily rates feed.
const DefaultCBRURL = "https://www.cbr-xml-daily.ru/daily_json.js"

// CBRFetcher reads rates from the CBR daily JSON feed.
type CBRFetcher struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewCBRFetcher creates a fetcher for url (DefaultCBRURL if empty).
// Requests are limited to one per second with a small burst so a run of
// failed refreshes cannot hammer the feed.
func NewCBRFetcher(url string, timeout time.Duration) *CBRFetcher {
	if url == "" {
		url = DefaultCBRURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CBRFetcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
	}
}

type cbrResponse struct {
	Date   string               `json:"Date"`
	Valute map[string]cbrValute `json:"Valute"`
}

type cbrValute struct {
	CharCode string          `json:"CharCode"`
	Nominal  int64           `json:"Nominal"`
	Value    decimal.Decimal `json:"Value"`
}

// Fetch returns RUB per unit for every supported currency.
// A response missing any supported currency is an error.
func (f *CBRFetcher) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var body cbrResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(Supported))
	for _, code := range Supported {
		v, ok := body.Valute[code]
		if !ok {
			return nil, fmt.Errorf("rate for %s missing from response", code)
		}
		nominal := v.Nominal
		if nominal <= 0 {
			nominal = 1
		}
		if !v.Value.IsPositive() {
			return nil, fmt.Errorf("rate for %s is not positive", code)
		}
		result[code] = v.Value.Div(decimal.NewFromInt(nominal))
	}

	return result, nil
}
