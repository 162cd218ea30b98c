package api

import (
	"net/http"

	"github.com/wallet-watchdog/internal/service"
	"github.com/wallet-watchdog/internal/types"
)

// subscriptionView augments the stored subscription with derived fields the
// frontend renders directly.
type subscriptionView struct {
	Plan                 types.PlanID `json:"plan"`
	PlanName             string       `json:"planName"`
	PriceCents           int          `json:"priceCents"`
	ReportsUsedThisMonth int          `json:"reportsUsedThisMonth"`
	ReportsLimit         *int         `json:"reportsLimit"`
	RemainingReports     *int         `json:"remainingReports"`
	WatchlistLimit       *int         `json:"watchlistLimit"`
	SubscriptionStart    string       `json:"subscriptionStart"`
}

// handleGetSubscription handles GET /api/subscription
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	sub, err := s.subscriptionSvc.GetOrCreate(r.Context(), email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	cfg, _ := service.PlanFor(sub.Plan)
	respondJSON(w, http.StatusOK, &subscriptionView{
		Plan:                 sub.Plan,
		PlanName:             cfg.Name,
		PriceCents:           cfg.PriceCents,
		ReportsUsedThisMonth: sub.ReportsUsedThisMonth,
		ReportsLimit:         sub.ReportsLimit,
		RemainingReports:     sub.RemainingReports(),
		WatchlistLimit:       sub.WatchlistLimit,
		SubscriptionStart:    sub.SubscriptionStart.Format("2006-01-02"),
	})
}

// handleUpgrade handles POST /api/subscription/upgrade - apply a plan change
// directly, used after a completed checkout or for downgrades to free
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	sub, err := s.subscriptionSvc.Upgrade(r.Context(), email, types.PlanID(req.Plan))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

// handleCheckout handles POST /api/checkout - open a payment session for a
// paid plan. Free has no checkout; it is applied immediately.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	email := userEmail(r)
	if email == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "User email required", nil)
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	planID := types.PlanID(req.Plan)
	cfg, ok := service.PlanFor(planID)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Unknown plan: "+req.Plan, nil)
		return
	}

	if cfg.PriceCents == 0 {
		sub, err := s.subscriptionSvc.Upgrade(r.Context(), email, planID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"checkoutRequired": false,
			"subscription":     sub,
		})
		return
	}

	session, err := s.checkout.CreateCheckoutSession(r.Context(), email, cfg.Name, cfg.PriceCents)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TrackPayment(r.Context(), email, int64(cfg.PriceCents), "", false)
		}
		respondError(w, http.StatusBadGateway, ErrCodePaymentFailed, "Unable to start checkout", nil)
		return
	}

	if s.metrics != nil {
		s.metrics.TrackPayment(r.Context(), email, int64(cfg.PriceCents), session.ID, true)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"checkoutRequired": true,
		"sessionId":        session.ID,
		"url":              session.URL,
	})
}
