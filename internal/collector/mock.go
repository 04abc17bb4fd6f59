package collector

import (
	"context"
	"sync/atomic"
	"time"

	"EarningsChart/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64                        // base price for generated series
	Days   int                            // generated series length
	Series map[string][]model.PricePoint // fixed series per ticker
	Err    error
	Delay  time.Duration

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchDailySeries ran.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchDailySeries(ctx context.Context, ticker, _ string) (model.PriceSeries, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return model.PriceSeries{}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	series := model.PriceSeries{Ticker: ticker, Source: m.Name(), FetchedAt: time.Now().UTC()}
	if m.Series != nil {
		pts, ok := m.Series[ticker]
		if !ok {
			return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
		}
		series.Points = append([]model.PricePoint(nil), pts...)
		return series, nil
	}
	days := m.Days
	if days <= 0 {
		days = 500
	}
	series.Points = generateMockPoints(m.Price, days, time.Now())
	return series, nil
}

// generateMockPoints produces count weekday closes ending at end.
func generateMockPoints(basePrice float64, count int, end time.Time) []model.PricePoint {
	if basePrice <= 0 {
		basePrice = 100
	}
	pts := make([]model.PricePoint, count)
	day := model.DateOf(end)
	for i := count - 1; i >= 0; i-- {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		pts[i] = model.PricePoint{
			Date:  day,
			Price: basePrice * (1 + float64(i-count/2)*0.001),
		}
		day = day.AddDate(0, 0, -1)
	}
	return pts
}
