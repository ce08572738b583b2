package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/store"
)

type stubSubscriptionStore struct {
	created     *domain.Subscription
	deactivated []uuid.UUID
	listed      []domain.Subscription
	err         error
}

func (s *stubSubscriptionStore) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = sub
	out := *sub
	out.IsActive = true
	return &out, nil
}

func (s *stubSubscriptionStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	return s.listed, s.err
}

func (s *stubSubscriptionStore) DeactivateSubscription(ctx context.Context, subscriptionID, ownerID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deactivated = append(s.deactivated, subscriptionID)
	return nil
}

func TestCreate_ValidSubscription(t *testing.T) {
	stub := &stubSubscriptionStore{}
	svc := NewService(stub)

	ownerID := uuid.New()
	campaignID := uuid.New()
	sub, err := svc.Create(context.Background(), ownerID, campaignID, 50000, domain.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, ownerID, sub.OwnerID)
	assert.Equal(t, campaignID, sub.CampaignID)
	assert.Equal(t, int64(50000), sub.Amount)
	assert.Equal(t, domain.FrequencyMonthly, sub.Frequency)
	assert.True(t, sub.IsActive)

	// The first charge belongs to the next scheduler pass, not to creation.
	require.NotNil(t, stub.created)
	assert.Nil(t, stub.created.NextExecutionAt)
	assert.Nil(t, stub.created.LastExecutedAt)
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(&stubSubscriptionStore{})

	for _, amount := range []int64{0, -1, -50000} {
		_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), amount, domain.FrequencyDaily)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %d", amount)
	}
}

func TestCreate_RejectsUnknownFrequency(t *testing.T) {
	svc := NewService(&stubSubscriptionStore{})

	for _, freq := range []domain.Frequency{"", "yearly", "hourly", "Monthly"} {
		_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), 25000, freq)
		assert.ErrorIs(t, err, ErrInvalidFrequency, "frequency %q", freq)
	}
}

func TestDeactivate_PassesThroughNotFound(t *testing.T) {
	svc := NewService(&stubSubscriptionStore{err: store.ErrSubscriptionNotFound})

	err := svc.Deactivate(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, store.ErrSubscriptionNotFound)
}
