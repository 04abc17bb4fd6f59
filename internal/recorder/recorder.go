package recorder

import (
	"context"
	"time"
)

// LookupEvent is one chart lookup served by the service.
type LookupEvent struct {
	ID               int64     `db:"id" json:"id"`
	Timestamp        time.Time `db:"-" json:"timestamp"`
	Unix             int64     `db:"timestamp" json:"-"`
	Ticker           string    `db:"ticker" json:"ticker"`
	Provider         string    `db:"provider" json:"provider"`
	RequestedDate    string    `db:"requested_date" json:"requested_date"`
	ResolvedDate     string    `db:"resolved_date" json:"resolved_date"`
	ReferencePrice   float64   `db:"reference_price" json:"reference_price"`
	LatestPrice      float64   `db:"latest_price" json:"latest_price"`
	PriceChangePct   float64   `db:"price_change_pct" json:"price_change_pct"`
	NextDayChangePct *float64  `db:"next_day_change_pct" json:"next_day_change_pct"`
	Outcome          string    `db:"outcome" json:"outcome"`
}

// Recorder persists lookup history for later inspection.
type Recorder interface {
	RecordLookup(ctx context.Context, evt *LookupEvent) error
	RecentLookups(ctx context.Context, limit int) ([]LookupEvent, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
