package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"EarningsChart/internal/model"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

type healthBody struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Period   string `json:"period"`
	Breaker  string `json:"breaker"`
}

type historyBody struct {
	Lookups any `json:"lookups"`
	Count   int `json:"count"`
}

// GET /api/chart/{ticker}?earnings_date=YYYY-MM-DD
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	date := r.URL.Query().Get("earnings_date")
	if date == "" {
		s.writeError(w, r, model.Errorf(model.KindInvalidInput, "earnings_date query parameter is required"))
		return
	}

	report, err := s.service.Analyze(r.Context(), ticker, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, model.Errorf(model.KindInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyBody{Lookups: events, Count: len(events)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, healthBody{
		Status:   "ok",
		Provider: s.provider.Name(),
		Period:   s.provider.Period(),
		Breaker:  s.provider.BreakerState(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found", Kind: string(model.KindNotFound)})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindUnexpectedFormat, model.KindUpstream:
		return http.StatusBadGateway
	case model.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	status := StatusFor(kind)
	detail := err.Error()
	if kind == model.KindInternal {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("internal error")
		detail = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, errorBody{Detail: detail, Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
