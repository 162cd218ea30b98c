package api

import (
	"net/http"
	"strconv"
	"time"
)

// handleAnalyticsSummary handles GET /api/analytics/summary?days=N
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	summary, err := s.analyticsSvc.Summary(r.Context(), since)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleAnalyticsDaily handles GET /api/analytics/daily?days=N
func (s *Server) handleAnalyticsDaily(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	series, err := s.analyticsSvc.Daily(r.Context(), days, time.Now().UTC())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":   days,
		"series": series,
	})
}
