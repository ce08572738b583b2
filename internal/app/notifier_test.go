package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

type stubNotificationStore struct {
	rows []domain.Notification
	err  error
}

func (s *stubNotificationStore) InsertNotification(ctx context.Context, n *domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, *n)
	return nil
}

type stubPublisher struct {
	exchanges   []string
	routingKeys []string
	bodies      []interface{}
	err         error
}

func (p *stubPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.exchanges = append(p.exchanges, exchange)
	p.routingKeys = append(p.routingKeys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func TestNotify_PersistsRowAndPublishesEvent(t *testing.T) {
	rows := &stubNotificationStore{}
	pub := &stubPublisher{}
	notifier := NewRecordingNotifier(rows, pub, testLogger())

	ownerID := uuid.New()
	err := notifier.Notify(context.Background(), ownerID, NotificationSettled, "Donasi rutin berhasil", "settled")
	require.NoError(t, err)

	require.Len(t, rows.rows, 1)
	assert.Equal(t, ownerID, rows.rows[0].OwnerID)
	assert.Equal(t, "Donasi rutin berhasil", rows.rows[0].Title)

	require.Len(t, pub.bodies, 1)
	assert.Equal(t, "notification_events", pub.exchanges[0])
	assert.Equal(t, "donation.recurring.success", pub.routingKeys[0])
}

func TestNotify_RoutingKeyDistinguishesOutcomes(t *testing.T) {
	pub := &stubPublisher{}
	notifier := NewRecordingNotifier(&stubNotificationStore{}, pub, testLogger())

	ownerID := uuid.New()
	require.NoError(t, notifier.Notify(context.Background(), ownerID, NotificationSettled, "Donasi rutin berhasil", "settled"))
	require.NoError(t, notifier.Notify(context.Background(), ownerID, NotificationInsufficientBalance, "Saldo tidak mencukupi", "short"))

	require.Len(t, pub.routingKeys, 2)
	assert.Equal(t, "donation.recurring.success", pub.routingKeys[0])
	assert.Equal(t, "donation.recurring.failed", pub.routingKeys[1])
}

func TestNotify_PublishFailureStillPersistsRow(t *testing.T) {
	rows := &stubNotificationStore{}
	pub := &stubPublisher{err: errors.New("broker down")}
	notifier := NewRecordingNotifier(rows, pub, testLogger())

	err := notifier.Notify(context.Background(), uuid.New(), NotificationInsufficientBalance, "Saldo tidak mencukupi", "short")
	require.Error(t, err)
	assert.Len(t, rows.rows, 1)
}

func TestNotify_NilPublisherOnlyPersists(t *testing.T) {
	rows := &stubNotificationStore{}
	notifier := NewRecordingNotifier(rows, nil, testLogger())

	err := notifier.Notify(context.Background(), uuid.New(), NotificationSettled, "t", "m")
	require.NoError(t, err)
	assert.Len(t, rows.rows, 1)
}
