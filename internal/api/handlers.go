/**
 * @description
 * This file contains the HTTP handler functions for the recurring donation
 * service. Handlers parse incoming requests, call the batch runner or the
 * subscription management service, and write the JSON response.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/app"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/metrics"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/store"
)

// BatchRunner is the trigger-facing surface of the batch runner.
type BatchRunner interface {
	RunOnce(ctx context.Context, now time.Time) (*app.BatchReport, error)
}

// SubscriptionService is the management surface consumed by the handlers.
type SubscriptionService interface {
	Create(ctx context.Context, ownerID, campaignID uuid.UUID, amount int64, frequency domain.Frequency) (*domain.Subscription, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error)
	Deactivate(ctx context.Context, subscriptionID, ownerID uuid.UUID) error
}

// Handler holds the collaborators the HTTP layer interacts with.
type Handler struct {
	runner  BatchRunner
	service SubscriptionService
}

// NewHandler creates a new Handler.
func NewHandler(runner BatchRunner, service SubscriptionService) *Handler {
	return &Handler{runner: runner, service: service}
}

// handleRunRecurring executes one batch of due recurring donations and
// returns the aggregate report. The endpoint is idempotent: a repeated call
// observes already-advanced schedules and settles nothing twice.
func (h *Handler) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.RunOnce(r.Context(), time.Now().UTC())
	if err != nil {
		http.Error(w, "failed to run recurring donations", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// handleCreateSubscription registers a new recurring donation agreement.
// Caller identity arrives as owner_id: authentication lives in the upstream
// gateway layer, not in this service.
func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID    uuid.UUID        `json:"owner_id"`
		CampaignID uuid.UUID        `json:"campaign_id"`
		Amount     int64            `json:"amount"`
		Frequency  domain.Frequency `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == uuid.Nil || req.CampaignID == uuid.Nil {
		http.Error(w, "owner_id and campaign_id are required", http.StatusBadRequest)
		return
	}

	sub, err := h.service.Create(r.Context(), req.OwnerID, req.CampaignID, req.Amount, req.Frequency)
	if err != nil {
		if errors.Is(err, app.ErrInvalidAmount) || errors.Is(err, app.ErrInvalidFrequency) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.SubscriptionsCreatedTotal.WithLabelValues(string(sub.Frequency)).Inc()
	respondWithJSON(w, http.StatusCreated, sub)
}

// handleListSubscriptions returns the subscriptions of one donor.
func (h *Handler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		http.Error(w, "owner_id query parameter is required", http.StatusBadRequest)
		return
	}

	subs, err := h.service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}

	respondWithJSON(w, http.StatusOK, subs)
}

// handleDeactivateSubscription suspends a subscription on owner request.
func (h *Handler) handleDeactivateSubscription(w http.ResponseWriter, r *http.Request) {
	subscriptionID, err := uuid.Parse(chi.URLParam(r, "subscriptionID"))
	if err != nil {
		http.Error(w, "invalid subscription id", http.StatusBadRequest)
		return
	}
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		http.Error(w, "owner_id query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Deactivate(r.Context(), subscriptionID, ownerID); err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
