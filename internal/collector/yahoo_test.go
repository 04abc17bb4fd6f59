package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EarningsChart/internal/model"
)

// Timestamps are 09:30 New York on 2024-01-02, 2024-01-03 and 2024-01-04.
const yahooOK = `{"chart":{"result":[{"meta":{"symbol":"AAPL","exchangeTimezoneName":"America/New_York","gmtoffset":-18000},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"close":[185.64,184.25,181.91]}],"adjclose":[{"adjclose":[184.9,null,181.2]}]}}],"error":null}}`

const yahooNoAdj = `{"chart":{"result":[{"meta":{"symbol":"AAPL","exchangeTimezoneName":"America/New_York","gmtoffset":-18000},
"timestamp":[1704205800,1704292200],
"indicators":{"quote":[{"close":[185.64,184.25]}]}}],"error":null}}`

const yahooNoClose = `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
"timestamp":[1704205800,1704292200],
"indicators":{"quote":[{"open":[1,2]}]}}],"error":null}}`

const yahooNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func yahooServer(t *testing.T, status int, body string) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2y", r.URL.Query().Get("range"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetcher_PrefersAdjClose(t *testing.T) {
	f := yahooServer(t, http.StatusOK, yahooOK)
	s, err := f.FetchDailySeries(context.Background(), "AAPL", "2y")
	require.NoError(t, err)

	require.Len(t, s.Points, 2, "null adjclose is dropped")
	assert.Equal(t, "2024-01-02", s.Points[0].Date.Format(model.DateLayout))
	assert.Equal(t, 184.9, s.Points[0].Price)
	assert.Equal(t, "2024-01-04", s.Points[1].Date.Format(model.DateLayout))
	assert.Equal(t, "yahoo", s.Source)
}

func TestYahooFetcher_FallsBackToClose(t *testing.T) {
	f := yahooServer(t, http.StatusOK, yahooNoAdj)
	s, err := f.FetchDailySeries(context.Background(), "AAPL", "2y")
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 184.25, s.Points[1].Price)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no close column", http.StatusOK, yahooNoClose, model.ErrUnexpectedFormat},
		{"not found body", http.StatusNotFound, yahooNotFound, model.ErrNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, model.ErrNotFound},
		{"server error", http.StatusBadGateway, "oops", model.ErrUpstream},
		{"garbage", http.StatusOK, "<html>", model.ErrUnexpectedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := yahooServer(t, tt.status, tt.body)
			_, err := f.FetchDailySeries(context.Background(), "AAPL", "2y")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	f := NewYahooFetcher("")
	assert.Equal(t, "^GSPC", f.yahooSymbol("SPX"))
	assert.Equal(t, "MSFT", f.yahooSymbol("MSFT"))
}
