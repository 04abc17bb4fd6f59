package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"EarningsChart/internal/model"
)

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	now     func() time.Time
}

// NewPolygonFetcher creates a new fetcher with optional proxy support.
func NewPolygonFetcher(baseURL, apiKey, proxyURL string) *PolygonFetcher {
	return &PolygonFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		now:     time.Now,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonBar is the JSON shape of one aggregate; T is ms epoch of the
// session start in New York.
type polygonBar struct {
	T int64   `json:"t"`
	C float64 `json:"c"`
}

type polygonResp struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []polygonBar `json:"results"`
	Error        string       `json:"error"`
}

func (f *PolygonFetcher) FetchDailySeries(ctx context.Context, ticker, period string) (model.PriceSeries, error) {
	now := f.now()
	from, err := periodStart(now, period)
	if err != nil {
		return model.PriceSeries{}, err
	}
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		f.BaseURL, url.PathEscape(ticker), from.Format(model.DateLayout), model.DateOf(now).Format(model.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, upstreamErr("polygon", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, upstreamErr("polygon", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	default:
		return model.PriceSeries{}, upstreamStatus("polygon", resp.StatusCode, body)
	}

	var pr polygonResp
	if err := json.Unmarshal(body, &pr); err != nil {
		return model.PriceSeries{}, model.Wrap(model.KindUnexpectedFormat, err, "Unexpected data format from provider.")
	}
	if pr.Status == "ERROR" {
		return model.PriceSeries{}, model.Errorf(model.KindUpstream, "polygon api error: %s", pr.Error)
	}
	if len(pr.Results) == 0 {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}

	ny := exchangeLocation("America/New_York", -5*3600)
	series := model.PriceSeries{
		Ticker:    ticker,
		Source:    f.Name(),
		Points:    make([]model.PricePoint, len(pr.Results)),
		FetchedAt: now.UTC(),
	}
	for i, b := range pr.Results {
		series.Points[i] = model.PricePoint{
			Date:  model.DateOf(time.UnixMilli(b.T).In(ny)),
			Price: b.C,
		}
	}
	log.Debug().Str("ticker", ticker).Int("points", len(series.Points)).Msg("polygon series fetched")
	return series, nil
}
