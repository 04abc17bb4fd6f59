package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"EarningsChart/internal/cache"
	"EarningsChart/internal/metrics"
	"EarningsChart/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCleanSeries(t *testing.T) {
	in := model.PriceSeries{Ticker: "X", Points: []model.PricePoint{
		{Date: day("2024-01-03"), Price: 3},
		{Date: day("2024-01-01"), Price: 1},
		{Date: day("2024-01-02"), Price: math.NaN()},
		{Date: day("2024-01-04"), Price: -1},
		{Date: day("2024-01-03"), Price: 33},
		{Date: time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC), Price: math.Inf(1)},
		{Date: time.Date(2024, 1, 6, 15, 30, 0, 0, time.UTC), Price: 6},
	}}

	out := CleanSeries(in)

	require.Len(t, out.Points, 3)
	assert.Equal(t, "2024-01-01", out.Points[0].Date.Format(model.DateLayout))
	assert.Equal(t, 33.0, out.Points[1].Price, "last duplicate wins")
	assert.Equal(t, day("2024-01-06"), out.Points[2].Date, "time of day is dropped")
}

func newTestCollector(f Fetcher, c cache.Cache, m *metrics.Registry) *Collector {
	return NewCollector(f, Options{Period: "2y", Timeout: time.Second, CacheTTL: time.Minute, Cache: c, Metrics: m})
}

func TestCollector_CachesCleanSeries(t *testing.T) {
	f := &MockFetcher{Series: map[string][]model.PricePoint{
		"AAPL": {{Date: day("2024-01-02"), Price: 2}, {Date: day("2024-01-01"), Price: 1}},
	}}
	m := metrics.New()
	c := newTestCollector(f, cache.NewMemory(), m)
	ctx := context.Background()

	first, err := c.Collect(ctx, " aapl ")
	require.NoError(t, err)
	second, err := c.Collect(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.Calls())
	assert.Equal(t, "AAPL", first.Ticker)
	assert.Equal(t, day("2024-01-01"), first.Points[0].Date)
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("memory")))
}

func TestCollector_Refresh(t *testing.T) {
	f := &MockFetcher{Price: 50, Days: 10}
	c := newTestCollector(f, cache.NewMemory(), nil)
	ctx := context.Background()

	_, err := c.Refresh(ctx, "msft")
	require.NoError(t, err)
	_, err = c.Collect(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Calls())
}

func TestCollector_EmptyAfterCleaningIsNotFound(t *testing.T) {
	f := &MockFetcher{Series: map[string][]model.PricePoint{
		"NAN": {{Date: day("2024-01-01"), Price: math.NaN()}},
	}}
	c := newTestCollector(f, nil, nil)

	_, err := c.Collect(context.Background(), "NAN")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestCollector_EmptyTicker(t *testing.T) {
	c := newTestCollector(&MockFetcher{}, nil, nil)
	_, err := c.Collect(context.Background(), "  ")
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestCollector_BreakerOpensOnUpstreamFailures(t *testing.T) {
	f := &MockFetcher{Err: model.Errorf(model.KindUpstream, "boom")}
	c := newTestCollector(f, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.Collect(ctx, "AAPL")
		assert.True(t, errors.Is(err, model.ErrUpstream))
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.Collect(ctx, "AAPL")
	assert.True(t, errors.Is(err, model.ErrUnavailable))
	assert.Equal(t, int64(5), f.Calls())
}

func TestCollector_NotFoundDoesNotTripBreaker(t *testing.T) {
	f := &MockFetcher{Series: map[string][]model.PricePoint{}}
	c := newTestCollector(f, nil, nil)

	for i := 0; i < 10; i++ {
		_, err := c.Collect(context.Background(), "NOPE")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestCollector_Timeout(t *testing.T) {
	f := &MockFetcher{Price: 10, Delay: time.Second}
	c := NewCollector(f, Options{Timeout: 20 * time.Millisecond})

	_, err := c.Collect(context.Background(), "SLOW")
	assert.True(t, errors.Is(err, model.ErrUpstream))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGenerateMockPoints_WeekdaysOnly(t *testing.T) {
	pts := generateMockPoints(100, 20, day("2024-01-14")) // a Sunday
	require.Len(t, pts, 20)
	for i, p := range pts {
		assert.NotEqual(t, time.Saturday, p.Date.Weekday())
		assert.NotEqual(t, time.Sunday, p.Date.Weekday())
		if i > 0 {
			assert.True(t, pts[i-1].Date.Before(p.Date))
		}
	}
	assert.Equal(t, "2024-01-12", pts[19].Date.Format(model.DateLayout))
}

func TestNewCollector_RateLimit(t *testing.T) {
	f := &MockFetcher{}
	assert.Equal(t, rate.Inf, NewCollector(f, Options{RatePerSecond: -1}).limiter.Limit())
	assert.Equal(t, rate.Inf, NewCollector(f, Options{}).limiter.Limit())
	assert.Equal(t, rate.Limit(2), NewCollector(f, Options{RatePerSecond: 2, Burst: 4}).limiter.Limit())
}
