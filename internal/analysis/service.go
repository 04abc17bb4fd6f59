package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"EarningsChart/internal/calculator"
	"EarningsChart/internal/metrics"
	"EarningsChart/internal/model"
	"EarningsChart/internal/recorder"
)

// SeriesSource supplies cleaned daily series; *collector.Collector satisfies it.
type SeriesSource interface {
	Collect(ctx context.Context, ticker string) (model.PriceSeries, error)
	Name() string
}

// Service answers chart lookups: fetch, resolve the earnings date to a
// trading day, derive statistics and shape the chart payload.
type Service struct {
	Source   SeriesSource
	Recorder recorder.Recorder
	Metrics  *metrics.Registry
}

// NewService creates a Service. rec may be nil.
func NewService(src SeriesSource, rec recorder.Recorder, m *metrics.Registry) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Source: src, Recorder: rec, Metrics: m}
}

// Analyze builds the chart report of ticker around earningsDate (YYYY-MM-DD).
// The report echoes ticker as given; fetching and history use the
// normalized symbol.
func (s *Service) Analyze(ctx context.Context, ticker, earningsDate string) (*model.Report, error) {
	requested := ticker
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	report, stats, err := s.analyze(ctx, ticker, earningsDate)

	outcome := "ok"
	if err != nil {
		outcome = string(model.KindOf(err))
	}
	s.Metrics.Lookup(outcome)
	s.record(ctx, ticker, earningsDate, stats, outcome)

	if err != nil {
		log.Info().Err(err).Str("ticker", ticker).Str("earnings_date", earningsDate).
			Str("outcome", outcome).Msg("lookup failed")
		return nil, err
	}
	report.Ticker = requested
	return report, nil
}

func (s *Service) analyze(ctx context.Context, ticker, earningsDate string) (*model.Report, *model.Stats, error) {
	target, err := model.ParseDate(strings.TrimSpace(earningsDate))
	if err != nil {
		return nil, nil, model.Wrap(model.KindInvalidInput, err,
			"earnings_date must be formatted as YYYY-MM-DD")
	}

	series, err := s.Source.Collect(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := calculator.ResolveNearest(series.Dates(), target)
	if err != nil {
		return nil, nil, err
	}
	stats, err := calculator.DeriveStats(series, resolved)
	if err != nil {
		return nil, nil, err
	}
	return BuildReport(series, target, stats), stats, nil
}

// BuildReport shapes stats and series into the rounded JSON payload.
func BuildReport(series model.PriceSeries, requested time.Time, stats *model.Stats) *model.Report {
	data := make([]model.ChartPoint, series.Len())
	for i, p := range series.Points {
		data[i] = model.ChartPoint{
			Date:  p.Date.Format(model.DateLayout),
			Price: calculator.RoundMoney(p.Price),
		}
	}
	return &model.Report{
		Ticker:           series.Ticker,
		Source:           series.Source,
		RequestedDate:    requested.Format(model.DateLayout),
		EarningsDate:     stats.ReferenceDate.Format(model.DateLayout),
		LatestDate:       stats.LatestDate.Format(model.DateLayout),
		EarningsPrice:    calculator.RoundMoney(stats.ReferencePrice),
		LatestPrice:      calculator.RoundMoney(stats.LatestPrice),
		PriceChangePct:   calculator.RoundMoney(stats.ChangePct),
		NextDayChangePct: calculator.RoundMoneyPtr(stats.NextDayChangePct),
		MinPrice:         calculator.RoundMoney(stats.MinPrice),
		MaxPrice:         calculator.RoundMoney(stats.MaxPrice),
		PriceRange:       calculator.RoundMoney(stats.PriceRange),
		Data:             data,
	}
}

// record stores the lookup best-effort; failures are only logged.
func (s *Service) record(ctx context.Context, ticker, requested string, stats *model.Stats, outcome string) {
	evt := &recorder.LookupEvent{
		Ticker:        ticker,
		Provider:      s.Source.Name(),
		RequestedDate: requested,
		Outcome:       outcome,
	}
	if stats != nil {
		evt.ResolvedDate = stats.ReferenceDate.Format(model.DateLayout)
		evt.ReferencePrice = stats.ReferencePrice
		evt.LatestPrice = stats.LatestPrice
		evt.PriceChangePct = stats.ChangePct
		evt.NextDayChangePct = stats.NextDayChangePct
	}
	// Keep recording when the client went away mid-request.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.Recorder.RecordLookup(rctx, evt); err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("record lookup")
	}
}

// History returns the most recent lookups, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]recorder.LookupEvent, error) {
	return s.Recorder.RecentLookups(ctx, limit)
}
