package model

import "time"

// Stats is the full-precision result of deriving statistics around a
// reference trading date.
type Stats struct {
	ReferenceDate    time.Time
	ReferencePrice   float64
	LatestDate       time.Time
	LatestPrice      float64
	ChangePct        float64
	NextDayChangePct *float64 // nil when no trading day follows the reference
	MinPrice         float64
	MaxPrice         float64
	PriceRange       float64
}

// ChartPoint is one entry of the charting series.
type ChartPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Report is the JSON payload returned for a chart lookup. Monetary and
// percentage fields are rounded to 2 decimals.
type Report struct {
	Ticker           string       `json:"ticker"`
	Source           string       `json:"source"`
	RequestedDate    string       `json:"requested_date"`
	EarningsDate     string       `json:"earnings_date"`
	LatestDate       string       `json:"latest_date"`
	EarningsPrice    float64      `json:"earnings_price"`
	LatestPrice      float64      `json:"latest_price"`
	PriceChangePct   float64      `json:"price_change_pct"`
	NextDayChangePct *float64     `json:"next_day_change_pct"`
	MinPrice         float64      `json:"min_price"`
	MaxPrice         float64      `json:"max_price"`
	PriceRange       float64      `json:"price_range"`
	Data             []ChartPoint `json:"data"`
}
