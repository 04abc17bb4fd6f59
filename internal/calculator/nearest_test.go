package calculator

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarningsChart/internal/model"
)

func d(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = d(s)
	}
	return out
}

func TestResolveNearest(t *testing.T) {
	// Thu, Fri, Mon, Tue
	cal := dates("2024-01-04", "2024-01-05", "2024-01-08", "2024-01-09")

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"exact match", "2024-01-05", "2024-01-05"},
		{"before first", "2023-12-01", "2024-01-04"},
		{"after last", "2024-03-01", "2024-01-09"},
		{"saturday is closer to friday", "2024-01-06", "2024-01-05"},
		{"sunday is closer to monday", "2024-01-07", "2024-01-08"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNearest(cal, d(tt.target))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(model.DateLayout))
		})
	}
}

func TestResolveNearest_TieBreakPrefersEarlier(t *testing.T) {
	cal := dates("2024-01-01", "2024-01-03")
	got, err := ResolveNearest(cal, d("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got.Format(model.DateLayout))
}

func TestResolveNearest_DiscardsTimeOfDay(t *testing.T) {
	cal := dates("2024-01-01", "2024-01-03")
	target := time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC)
	got, err := ResolveNearest(cal, target)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", got.Format(model.DateLayout))
}

func TestResolveNearest_EmptyCalendar(t *testing.T) {
	_, err := ResolveNearest(nil, d("2024-01-01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestResolveNearest_Idempotent(t *testing.T) {
	cal := dates("2024-01-02", "2024-01-05", "2024-01-11", "2024-01-12", "2024-02-01")
	start := d("2023-12-25")
	for i := 0; i < 50; i++ {
		target := start.AddDate(0, 0, i)
		first, err := ResolveNearest(cal, target)
		require.NoError(t, err)
		second, err := ResolveNearest(cal, first)
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "target %s", target.Format(model.DateLayout))
	}
}

func TestResolveNearest_EveryCalendarDateResolvesToItself(t *testing.T) {
	cal := dates("2024-01-02", "2024-01-03", "2024-01-04", "2024-01-08", "2024-01-09")
	for _, c := range cal {
		got, err := ResolveNearest(cal, c)
		require.NoError(t, err)
		assert.True(t, got.Equal(c))
	}
}

func nySeries(t *testing.T) model.PriceSeries {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return model.PriceSeries{Ticker: "X", Points: []model.PricePoint{
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, ny), Price: 100},
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, ny), Price: 105},
		{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, ny), Price: 95},
	}}
}

func TestResolveNearest_ExchangeLocalDates(t *testing.T) {
	s := nySeries(t)

	got, err := ResolveNearest(s.Dates(), d("2024-01-04"))
	require.NoError(t, err)
	assert.True(t, got.Equal(s.Points[0].Date), "exact match returns the calendar element")

	got, err = ResolveNearest(s.Dates(), d("2024-01-06"))
	require.NoError(t, err)
	assert.True(t, got.Equal(s.Points[1].Date))
}

func TestResolveThenDerive_ExchangeLocalDates(t *testing.T) {
	s := nySeries(t)
	for _, target := range []string{"2024-01-04", "2024-01-06", "2024-01-07", "2023-12-01", "2024-02-01"} {
		resolved, err := ResolveNearest(s.Dates(), d(target))
		require.NoError(t, err)
		st, err := DeriveStats(s, resolved)
		require.NoError(t, err, "target %s", target)
		assert.True(t, st.ReferenceDate.Equal(resolved), "target %s", target)
	}

	st, err := DeriveStats(s, d("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 105.0, st.ReferencePrice)
	require.NotNil(t, st.NextDayChangePct)
	assert.InDelta(t, (95.0-105.0)/105.0*100, *st.NextDayChangePct, 1e-9)
}
