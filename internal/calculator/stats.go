package calculator

import (
	"time"

	"EarningsChart/internal/model"
)

// DeriveStats computes the change since the reference date, the move on the
// following trading day and the min/max range of the series. Values are kept
// at full precision; rounding is a presentation concern.
func DeriveStats(series model.PriceSeries, reference time.Time) (*model.Stats, error) {
	if series.Len() == 0 {
		return nil, model.Errorf(model.KindInvalidInput, "price series is empty")
	}
	idx := indexOf(series.Dates(), reference)
	if idx < 0 {
		return nil, model.Errorf(model.KindInvalidInput,
			"reference date %s is not a trading date of %s", reference.Format(model.DateLayout), series.Ticker)
	}

	ref := series.Points[idx]
	if ref.Price == 0 {
		return nil, model.Errorf(model.KindDomain,
			"reference price on %s is zero, percentage change is undefined", ref.Date.Format(model.DateLayout))
	}
	latest := series.Latest()

	low, high, err := PriceRange(series)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{
		ReferenceDate:  ref.Date,
		ReferencePrice: ref.Price,
		LatestDate:     latest.Date,
		LatestPrice:    latest.Price,
		ChangePct:      PercentChange(ref.Price, latest.Price),
		MinPrice:       low,
		MaxPrice:       high,
		PriceRange:     high - low,
	}
	if idx+1 < series.Len() {
		next := PercentChange(ref.Price, series.Points[idx+1].Price)
		stats.NextDayChangePct = &next
	}
	return stats, nil
}

// PercentChange returns (to-from)/from*100. from must be non-zero.
func PercentChange(from, to float64) float64 {
	return (to - from) / from * 100
}
