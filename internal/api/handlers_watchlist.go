package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/service"
	"github.com/wallet-watchdog/internal/types"
)

// maxBulkUploadBytes caps the CSV payload for bulk watchlist imports
const maxBulkUploadBytes = 1 << 20

// handleAddToWatchlist handles POST /api/watchlist - promote a report into
// a watchlist entry
func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	var req service.AddRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ReportID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Report ID required", nil)
		return
	}

	entry, err := s.watchlistSvc.Add(r.Context(), email, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.invalidateCache(r, email)
	respondJSON(w, http.StatusCreated, entry)
}

// handleListWatchlist handles GET /api/watchlist?tag=&health=
func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	filter := service.ListFilter{
		OwnershipTag: types.OwnershipTag(r.URL.Query().Get("tag")),
		Health:       types.HealthBand(r.URL.Query().Get("health")),
	}

	entries, err := s.watchlistSvc.List(r.Context(), email, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.WatchedWallet{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleWatchlistSummary handles GET /api/watchlist/summary - fleet
// aggregates, served from cache when fresh
func (s *Server) handleWatchlistSummary(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	if s.cache != nil {
		var cached service.AggregateView
		if found, err := s.cache.Get(r.Context(), s.cache.AggregateKey(email), &cached); err == nil && found {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	view, err := s.watchlistSvc.Summary(r.Context(), email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.cache != nil {
		_ = s.cache.Set(r.Context(), s.cache.AggregateKey(email), view) // nolint:errcheck // cache write is best effort
	}

	respondJSON(w, http.StatusOK, view)
}

// handleUpdateTag handles PATCH /api/watchlist/{id}/tag
func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	var req struct {
		OwnershipTag string `json:"ownershipTag"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.watchlistSvc.UpdateTag(r.Context(), email, id, types.OwnershipTag(req.OwnershipTag)); err != nil {
		respondServiceError(w, err)
		return
	}

	s.invalidateCache(r, email)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleRemoveFromWatchlist handles DELETE /api/watchlist/{id}
func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.watchlistSvc.Remove(r.Context(), email, id); err != nil {
		respondServiceError(w, err)
		return
	}

	s.invalidateCache(r, email)
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleReanalyze handles POST /api/watchlist/reanalyze - refresh every
// active entry
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	result, err := s.watchlistSvc.Reanalyze(r.Context(), email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.invalidateCache(r, email)
	respondJSON(w, http.StatusOK, result)
}

// handleBulkUpload handles POST /api/watchlist/bulk - CSV import. The body
// is the raw CSV content.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	content, err := io.ReadAll(io.LimitReader(r.Body, maxBulkUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Failed to read upload", nil)
		return
	}
	if len(content) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Empty upload", nil)
		return
	}

	result, err := s.watchlistSvc.BulkUpload(r.Context(), email, string(content))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.invalidateCache(r, email)
	respondJSON(w, http.StatusOK, result)
}

// handleCompare handles POST /api/watchlist/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	rows, err := s.watchlistSvc.Compare(r.Context(), email, req.IDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"wallets": rows})
}

func (s *Server) invalidateCache(r *http.Request, email string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateUser(r.Context(), email) // nolint:errcheck // stale entries expire via TTL anyway
}
