package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"

	"EarningsChart/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Prices are pointers because Yahoo reports missing sessions as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote    []yahooQuote    `json:"quote"`
				AdjClose []yahooAdjClose `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooQuote struct {
	Close []*float64 `json:"close"`
}

type yahooAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

func (f *YahooFetcher) FetchDailySeries(ctx context.Context, ticker, period string) (model.PriceSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s&events=div%%2Csplit",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)), url.QueryEscape(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, upstreamErr("yahoo", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, upstreamErr("yahoo", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if chart.Chart.Error != nil && strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	case resp.StatusCode != http.StatusOK:
		return model.PriceSeries{}, upstreamStatus("yahoo", resp.StatusCode, body)
	}
	if decodeErr != nil {
		return model.PriceSeries{}, model.Wrap(model.KindUnexpectedFormat, decodeErr, "Unexpected data format from provider.")
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, model.Errorf(model.KindUpstream, "yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}

	result := chart.Chart.Result[0]
	closes, err := pickCloses(len(result.Timestamp), result.Indicators.AdjClose, result.Indicators.Quote)
	if err != nil {
		return model.PriceSeries{}, err
	}
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)

	series := model.PriceSeries{
		Ticker:    ticker,
		Source:    f.Name(),
		Points:    make([]model.PricePoint, 0, len(result.Timestamp)),
		FetchedAt: time.Now().UTC(),
	}
	for i, ts := range result.Timestamp {
		c := closes[i]
		if c == nil {
			continue // holiday or halted session
		}
		series.Points = append(series.Points, model.PricePoint{
			Date:  model.DateOf(time.Unix(ts, 0).In(loc)),
			Price: *c,
		})
	}
	log.Debug().Str("ticker", ticker).Int("points", len(series.Points)).Msg("yahoo series fetched")
	return series, nil
}

// pickCloses prefers adjusted closes and falls back to raw closes.
func pickCloses(n int, adj []yahooAdjClose, quote []yahooQuote) ([]*float64, error) {
	if len(adj) > 0 && len(adj[0].AdjClose) == n {
		return adj[0].AdjClose, nil
	}
	if len(quote) > 0 && len(quote[0].Close) == n {
		return quote[0].Close, nil
	}
	return nil, model.Wrap(model.KindUnexpectedFormat,
		errors.New("no close or adjclose column aligned with timestamps"), "Unexpected data format from provider.")
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
