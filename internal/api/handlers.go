package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"marketboard/internal/apperr"
)

const (
	defaultHistoryEntries = 1800
	maxHistoryEntries     = 9999
	maxUploadBytes        = 4 << 20
)

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrCancelled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
		s.log.Error("request failed", zap.Error(err))
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func parseItemID(r *http.Request) (int32, error) {
	raw := mux.Vars(r)["itemId"]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("unknown item " + raw)
	}
	return int32(id), nil
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view, err := s.agg.ResolveAndFetchListings(r.Context(), itemID, mux.Vars(r)["worldOrDc"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseItemID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := defaultHistoryEntries
	if v := r.URL.Query().Get("entries"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxHistoryEntries {
			limit = n
		}
	}

	view, err := s.agg.ResolveAndFetchSales(r.Context(), itemID, mux.Vars(r)["worldOrDc"], limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.writeError(w, apperr.BadRequest("request body too large or unreadable"))
		return
	}

	if err := s.pipeline.Process(r.Context(), mux.Vars(r)["apiKey"], body); err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleTaxRates(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("world")
	target, err := s.catalog.Resolve(token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if target.World == nil {
		s.writeError(w, apperr.BadRequest("tax rates are tracked per world, not per data center"))
		return
	}

	rates, err := s.taxRates.Retrieve(r.Context(), target.World.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rates == nil {
		s.writeError(w, apperr.NotFound("no tax rates recorded for "+target.World.Name))
		return
	}
	json.NewEncoder(w).Encode(rates)
}

func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := s.history.History(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"count": rec.Counts})
}

func (s *Server) handleWorlds(w http.ResponseWriter, r *http.Request) {
	byID := s.catalog.WorldsByID()
	type worldOut struct {
		ID   int32  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]worldOut, 0, len(byID))
	for id, name := range byID {
		out = append(out, worldOut{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleDataCenters(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.catalog.DataCenters())
}

func (s *Server) handleMarketable(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.catalog.MarketableItems())
}
