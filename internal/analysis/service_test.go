package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarningsChart/internal/collector"
	"EarningsChart/internal/model"
	"EarningsChart/internal/recorder"
)

type memRecorder struct {
	recorder.NoopRecorder
	events []recorder.LookupEvent
}

func (m *memRecorder) RecordLookup(_ context.Context, evt *recorder.LookupEvent) error {
	m.events = append(m.events, *evt)
	return nil
}

func day(s string) model.PricePoint {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return model.PricePoint{Date: d}
}

func pt(s string, price float64) model.PricePoint {
	p := day(s)
	p.Price = price
	return p
}

func newService(series map[string][]model.PricePoint) (*Service, *memRecorder) {
	src := collector.NewCollector(&collector.MockFetcher{Series: series}, collector.Options{})
	rec := &memRecorder{}
	return NewService(src, rec, nil), rec
}

func TestAnalyze(t *testing.T) {
	svc, rec := newService(map[string][]model.PricePoint{
		"AAPL": {
			pt("2024-01-04", 100.004),
			pt("2024-01-05", 103.333), // Friday
			pt("2024-01-08", 110.0),   // Monday
			pt("2024-01-09", 90.126),
		},
	})

	r, err := svc.Analyze(context.Background(), "aapl", "2024-01-06")
	require.NoError(t, err)

	assert.Equal(t, "aapl", r.Ticker, "ticker is echoed as given")
	assert.Equal(t, "2024-01-06", r.RequestedDate)
	assert.Equal(t, "2024-01-05", r.EarningsDate, "Saturday resolves to Friday")
	assert.Equal(t, "2024-01-09", r.LatestDate)
	assert.Equal(t, 103.33, r.EarningsPrice)
	assert.Equal(t, 90.13, r.LatestPrice)
	assert.Equal(t, -12.78, r.PriceChangePct)
	require.NotNil(t, r.NextDayChangePct)
	assert.Equal(t, 6.45, *r.NextDayChangePct)
	assert.Equal(t, 90.13, r.MinPrice)
	assert.Equal(t, 110.0, r.MaxPrice)
	assert.Equal(t, 19.87, r.PriceRange)
	require.Len(t, r.Data, 4)
	assert.Equal(t, model.ChartPoint{Date: "2024-01-04", Price: 100.0}, r.Data[0])

	require.Len(t, rec.events, 1)
	assert.Equal(t, "ok", rec.events[0].Outcome)
	assert.Equal(t, "AAPL", rec.events[0].Ticker)
	assert.Equal(t, "2024-01-05", rec.events[0].ResolvedDate)
}

func TestAnalyze_ThreeDaySeries(t *testing.T) {
	svc, _ := newService(map[string][]model.PricePoint{
		"X": {pt("2024-01-01", 100), pt("2024-01-02", 110), pt("2024-01-03", 90)},
	})
	r, err := svc.Analyze(context.Background(), "X", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.EarningsPrice)
	assert.Equal(t, 90.0, r.LatestPrice)
	assert.Equal(t, -10.0, r.PriceChangePct)
	assert.Equal(t, 10.0, *r.NextDayChangePct)
	assert.Equal(t, 20.0, r.PriceRange)
}

func TestAnalyze_NextDayAbsentSerializesAsNull(t *testing.T) {
	svc, _ := newService(map[string][]model.PricePoint{
		"X": {pt("2024-01-01", 100), pt("2024-01-02", 110)},
	})
	r, err := svc.Analyze(context.Background(), "X", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", r.EarningsDate)
	assert.Nil(t, r.NextDayChangePct)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"next_day_change_pct":null`)
}

func TestAnalyze_Errors(t *testing.T) {
	svc, rec := newService(map[string][]model.PricePoint{
		"ZERO": {pt("2024-01-01", 0), pt("2024-01-02", 1)},
	})
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "ZERO", "01/02/2024")
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = svc.Analyze(ctx, "MISSING", "2024-01-01")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = svc.Analyze(ctx, "ZERO", "2024-01-01")
	assert.True(t, errors.Is(err, model.ErrDomain))

	require.Len(t, rec.events, 3)
	assert.Equal(t, "invalid_input", rec.events[0].Outcome)
	assert.Equal(t, "not_found", rec.events[1].Outcome)
	assert.Equal(t, "domain_error", rec.events[2].Outcome)
}
