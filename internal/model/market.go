package model

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// PricePoint is a single daily close on a trading date.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries holds the daily closes of one ticker, ascending by date.
type PriceSeries struct {
	Ticker    string       `json:"ticker"`
	Source    string       `json:"source"`
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Len returns the number of trading days in the series.
func (s PriceSeries) Len() int { return len(s.Points) }

// Dates returns the trading calendar of the series.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Prices returns the closes in series order.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Latest returns the last point. The series must not be empty.
func (s PriceSeries) Latest() PricePoint {
	return s.Points[len(s.Points)-1]
}

// DateOf truncates t to its calendar date at midnight UTC, keeping the
// wall-clock date of t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
