package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarningsChart/internal/model"
	"EarningsChart/internal/recorder"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRefresher) Refresh(_ context.Context, ticker string) (model.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ticker)
	if f.fail[ticker] {
		return model.PriceSeries{}, errors.New("boom")
	}
	return model.PriceSeries{Ticker: ticker}, nil
}

type pruneRecorder struct {
	recorder.NoopRecorder
	cutoff time.Time
}

func (p *pruneRecorder) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return 3, nil
}

func TestRunWarmNow(t *testing.T) {
	ref := &fakeRefresher{fail: map[string]bool{"BAD": true}}
	s := NewScheduler(context.Background(), ref, recorder.NewNoopRecorder(), nil, []string{"AAPL", "BAD", "MSFT"}, 0)

	assert.Equal(t, 2, s.RunWarmNow())
	assert.Equal(t, []string{"AAPL", "BAD", "MSFT"}, ref.calls)
}

func TestRunWarmNow_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := &fakeRefresher{}
	s := NewScheduler(ctx, ref, recorder.NewNoopRecorder(), nil, []string{"AAPL"}, 0)

	assert.Equal(t, 0, s.RunWarmNow())
	assert.Empty(t, ref.calls)
}

func TestPruneTask(t *testing.T) {
	rec := &pruneRecorder{}
	s := NewScheduler(context.Background(), &fakeRefresher{}, rec, nil, nil, 24*time.Hour)

	before := time.Now().Add(-24 * time.Hour)
	s.pruneTask()
	assert.WithinDuration(t, before, rec.cutoff, time.Second)
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRefresher{}, recorder.NewNoopRecorder(), nil, []string{"AAPL"}, time.Hour)
	require.NoError(t, s.RegisterAll("0 */30 * * * *", "0 0 3 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	empty := NewScheduler(context.Background(), &fakeRefresher{}, recorder.NewNoopRecorder(), nil, nil, 0)
	require.NoError(t, empty.RegisterAll("0 */30 * * * *", "0 0 3 * * *"))
	assert.Empty(t, empty.Cron.Entries())

	bad := NewScheduler(context.Background(), &fakeRefresher{}, recorder.NewNoopRecorder(), nil, []string{"AAPL"}, 0)
	assert.Error(t, bad.RegisterAll("not a cron", ""))
}
