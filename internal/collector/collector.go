package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"EarningsChart/internal/cache"
	"EarningsChart/internal/metrics"
	"EarningsChart/internal/model"
)

// Options tunes how the Collector talks to its Fetcher.
type Options struct {
	Period        string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RatePerSecond float64 // <= 0 disables rate limiting
	Burst         int
	Cache         cache.Cache // nil disables caching
	Metrics       *metrics.Registry
}

// Collector fetches, cleans and caches price series from a Fetcher. It is
// safe for concurrent use.
type Collector struct {
	Fetcher Fetcher
	opts    Options
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options) *Collector {
	if opts.Period == "" {
		opts.Period = "2y"
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	c := &Collector{
		Fetcher: fetcher,
		opts:    opts,
		limiter: rate.NewLimiter(limit, opts.Burst),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fetcher.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).
				Msg("provider circuit breaker changed state")
		},
	})
	return c
}

// Name returns the provider name.
func (c *Collector) Name() string { return c.Fetcher.Name() }

// Period returns the history window requested from the provider.
func (c *Collector) Period() string { return c.opts.Period }

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (c *Collector) BreakerState() string { return c.breaker.State().String() }

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Collect returns the cleaned daily series of ticker, from cache when fresh.
func (c *Collector) Collect(ctx context.Context, ticker string) (model.PriceSeries, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return model.PriceSeries{}, model.Errorf(model.KindInvalidInput, "ticker is required")
	}
	key := c.cacheKey(ticker)

	if series, ok := c.fromCache(ctx, key); ok {
		return series, nil
	}

	series, err := c.fetch(ctx, ticker)
	if err != nil {
		return model.PriceSeries{}, err
	}
	series = CleanSeries(series)
	if series.Len() == 0 {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}

	c.toCache(ctx, key, series)
	return series, nil
}

// Refresh bypasses the cache, fetches ticker and stores the result.
func (c *Collector) Refresh(ctx context.Context, ticker string) (model.PriceSeries, error) {
	ticker = NormalizeTicker(ticker)
	series, err := c.fetch(ctx, ticker)
	if err != nil {
		return model.PriceSeries{}, err
	}
	series = CleanSeries(series)
	if series.Len() == 0 {
		return model.PriceSeries{}, model.Errorf(model.KindNotFound, "No data found for ticker '%s'.", ticker)
	}
	c.toCache(ctx, c.cacheKey(ticker), series)
	return series, nil
}

func (c *Collector) fetch(ctx context.Context, ticker string) (model.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.PriceSeries{}, model.Wrap(model.KindUnavailable, err, "rate limit wait")
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.Fetcher.FetchDailySeries(ctx, ticker, c.opts.Period)
	})
	c.opts.Metrics.ObserveFetch(c.Name(), err, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.PriceSeries{}, model.Wrap(model.KindUnavailable, err,
			fmt.Sprintf("market data provider %s is temporarily unavailable", c.Name()))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.PriceSeries{}, model.Wrap(model.KindUpstream, err, "market data provider timed out")
	}
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Str("provider", c.Name()).Msg("fetch daily series failed")
		var typed *model.Error
		if errors.As(err, &typed) {
			return model.PriceSeries{}, err
		}
		return model.PriceSeries{}, fmt.Errorf("fetch daily series: %w", err)
	}
	series := out.(model.PriceSeries)
	series.Ticker = ticker
	log.Info().Str("ticker", ticker).Str("provider", c.Name()).Int("points", series.Len()).
		Dur("duration", time.Since(start)).Msg("series fetched")
	return series, nil
}

func (c *Collector) cacheKey(ticker string) string {
	return fmt.Sprintf("series:%s:%s:%s", c.Name(), ticker, c.opts.Period)
}

func (c *Collector) fromCache(ctx context.Context, key string) (model.PriceSeries, bool) {
	if c.opts.Cache == nil {
		return model.PriceSeries{}, false
	}
	b, ok, err := c.opts.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
	}
	if !ok {
		c.opts.Metrics.CacheMiss(c.opts.Cache.Type())
		return model.PriceSeries{}, false
	}
	var series model.PriceSeries
	if err := json.Unmarshal(b, &series); err != nil || series.Len() == 0 {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		c.opts.Metrics.CacheMiss(c.opts.Cache.Type())
		return model.PriceSeries{}, false
	}
	c.opts.Metrics.CacheHit(c.opts.Cache.Type())
	return series, true
}

func (c *Collector) toCache(ctx context.Context, key string, series model.PriceSeries) {
	if c.opts.Cache == nil {
		return
	}
	b, err := json.Marshal(series)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("encode series for cache")
		return
	}
	if err := c.opts.Cache.Set(ctx, key, b, c.opts.CacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// countsAsSuccess keeps caller-side outcomes from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch model.KindOf(err) {
	case model.KindNotFound, model.KindInvalidInput, model.KindUnexpectedFormat:
		return true
	}
	return false
}

// CleanSeries sorts points by date, drops missing, non-finite and negative
// prices, and keeps the last point of any duplicated date.
func CleanSeries(series model.PriceSeries) model.PriceSeries {
	pts := make([]model.PricePoint, 0, len(series.Points))
	for _, p := range series.Points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 || p.Date.IsZero() {
			continue
		}
		pts = append(pts, model.PricePoint{Date: model.DateOf(p.Date), Price: p.Price})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	series.Points = out
	return series
}
