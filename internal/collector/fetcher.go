package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"EarningsChart/internal/model"
)

// Fetcher abstracts an external market-data provider.
type Fetcher interface {
	// FetchDailySeries returns daily closes of ticker covering period
	// (Yahoo-style: 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max).
	// Points may be unsorted or contain duplicates; the Collector cleans them.
	FetchDailySeries(ctx context.Context, ticker, period string) (model.PriceSeries, error)
	Name() string
}

// periodStart returns the first calendar date covered by period, ending at now.
func periodStart(now time.Time, period string) (time.Time, error) {
	now = model.DateOf(now)
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	case "max":
		return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	for _, unit := range []string{"mo", "d", "y"} {
		if !strings.HasSuffix(p, unit) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(p, unit))
		if err != nil || n <= 0 {
			break
		}
		switch unit {
		case "d":
			return now.AddDate(0, 0, -n), nil
		case "mo":
			return now.AddDate(0, -n, 0), nil
		case "y":
			return now.AddDate(-n, 0, 0), nil
		}
	}
	return time.Time{}, model.Errorf(model.KindInvalidInput, "unsupported period %q", period)
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func upstreamStatus(provider string, status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return model.Errorf(model.KindUpstream, "%s: status %d, body: %s", provider, status, snippet)
}

func upstreamErr(provider string, err error) error {
	return model.Wrap(model.KindUpstream, err, fmt.Sprintf("%s request failed", provider))
}
