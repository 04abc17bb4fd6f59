package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"EarningsChart/internal/model"
)

// CSVFetcher reads daily closes from <Dir>/<TICKER>.csv. The file needs a
// header with a Date column (YYYY-MM-DD) and one of "Adj Close", "Close" or
// "Price".
type CSVFetcher struct {
	Dir string
	now func() time.Time
}

// NewCSVFetcher creates a fetcher rooted at dir.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir, now: time.Now}
}

func (f *CSVFetcher) Name() string { return "csv" }

var csvPriceColumns = []string{"adj close", "close", "price"}

func (f *CSVFetcher) FetchDailySeries(ctx context.Context, ticker, period string) (model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	if strings.ContainsAny(ticker, `/\`) || strings.Contains(ticker, "..") {
		return model.PriceSeries{}, model.Errorf(model.KindInvalidInput, "invalid ticker %q", ticker)
	}
	from, err := periodStart(f.now(), period)
	if err != nil {
		return model.PriceSeries{}, err
	}

	file, err := os.Open(filepath.Join(f.Dir, ticker+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}
	if err != nil {
		return model.PriceSeries{}, model.Wrap(model.KindUnexpectedFormat, err, "read csv header")
	}
	dateCol, priceCol := columnIndex(header, "date"), -1
	for _, name := range csvPriceColumns {
		if priceCol = columnIndex(header, name); priceCol >= 0 {
			break
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return model.PriceSeries{}, model.Errorf(model.KindUnexpectedFormat, "Unexpected data format from provider.")
	}

	series := model.PriceSeries{Ticker: ticker, Source: f.Name(), FetchedAt: time.Now().UTC()}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.PriceSeries{}, model.Wrap(model.KindUnexpectedFormat, err, "read csv row")
		}
		if dateCol >= len(rec) || priceCol >= len(rec) {
			continue
		}
		date, err := model.ParseDate(strings.TrimSpace(rec[dateCol]))
		if err != nil || date.Before(from) {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			continue // blank or "null" close
		}
		series.Points = append(series.Points, model.PricePoint{Date: date, Price: price})
	}
	if len(series.Points) == 0 {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}
	return series, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
