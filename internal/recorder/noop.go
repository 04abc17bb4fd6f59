package recorder

import (
	"context"
	"time"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordLookup(_ context.Context, _ *LookupEvent) error { return nil }
func (n *NoopRecorder) RecentLookups(_ context.Context, _ int) ([]LookupEvent, error) {
	return []LookupEvent{}, nil
}
func (n *NoopRecorder) PruneBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                                              { return nil }
