/**
 * @description
 * This file contains the business logic for recurring donation subscription
 * management: donors opt in, list their agreements, and suspend them. The
 * settlement path never goes through this service.
 */
package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

var (
	ErrInvalidAmount    = errors.New("subscription amount must be positive")
	ErrInvalidFrequency = errors.New("subscription frequency is not recognized")
)

// SubscriptionStore defines the database operations the management service needs.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error)
	DeactivateSubscription(ctx context.Context, subscriptionID, ownerID uuid.UUID) error
}

// Service provides subscription management for donors.
type Service struct {
	repo SubscriptionStore
}

// NewService creates a subscription management service.
func NewService(repo SubscriptionStore) Service {
	return Service{repo: repo}
}

// Create registers a new recurring donation agreement. The first charge
// happens on the next scheduler pass: next_execution_at starts null, which the
// due query treats as "due now".
func (s Service) Create(ctx context.Context, ownerID, campaignID uuid.UUID, amount int64, frequency domain.Frequency) (*domain.Subscription, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !frequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	sub := &domain.Subscription{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		CampaignID: campaignID,
		Amount:     amount,
		Frequency:  frequency,
	}
	return s.repo.CreateSubscription(ctx, sub)
}

// ListByOwner returns the donor's subscriptions, newest first.
func (s Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Deactivate suspends a subscription on owner request. It stays in the table
// so history and reactivation remain possible.
func (s Service) Deactivate(ctx context.Context, subscriptionID, ownerID uuid.UUID) error {
	return s.repo.DeactivateSubscription(ctx, subscriptionID, ownerID)
}
