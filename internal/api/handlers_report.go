package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wallet-watchdog/internal/models"
	"github.com/wallet-watchdog/internal/types"
)

// handleCreateReport handles POST /api/reports - generate a wallet report
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Blockchain    string `json:"blockchain"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	report, err := s.reportService.BuildReport(r.Context(), email, req.WalletAddress, types.ChainID(req.Blockchain))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// handleGetReport handles GET /api/reports/{id}
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	id := mux.Vars(r)["id"]
	report, err := s.reportService.GetReport(r.Context(), email, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Report not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleListReports handles GET /api/reports?limit=N
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	reports, err := s.reportService.ListReports(r.Context(), email, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if reports == nil {
		reports = []*models.WalletReport{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
