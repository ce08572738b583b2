/**
 * @description
 * Notification sink for settlement outcomes. Each notification is persisted
 * as a row for the in-app inbox and published as an AMQP event for downstream
 * delivery channels. Both writes are best-effort: the settlement outcome never
 * depends on them.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

const (
	notificationExchange       = "notification_events"
	notificationRoutingPrefix  = "donation.recurring"
	routingKeySettled          = notificationRoutingPrefix + ".success"
	routingKeyInsufficientFund = notificationRoutingPrefix + ".failed"
)

// routingKeyFor maps a settlement outcome to its topic routing key so
// consumers can bind to success and failure events independently.
func routingKeyFor(kind NotificationKind) string {
	if kind == NotificationInsufficientBalance {
		return routingKeyInsufficientFund
	}
	return routingKeySettled
}

// NotificationStore persists notification rows.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *domain.Notification) error
}

// EventPublisher publishes notification events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// RecordingNotifier writes a notification row and publishes a matching event.
type RecordingNotifier struct {
	store     NotificationStore
	publisher EventPublisher
	logger    *slog.Logger
}

// NewRecordingNotifier creates the composite notifier. publisher may be a
// fallback no-op when the broker is unavailable.
func NewRecordingNotifier(store NotificationStore, publisher EventPublisher, logger *slog.Logger) *RecordingNotifier {
	return &RecordingNotifier{store: store, publisher: publisher, logger: logger}
}

type notificationEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notify records the notification and publishes its event under the routing
// key of the given outcome. A partial failure is reported but does not undo
// the other half.
func (n *RecordingNotifier) Notify(ctx context.Context, ownerID uuid.UUID, kind NotificationKind, title, message string) error {
	notification := &domain.Notification{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   title,
		Message: message,
	}

	var insertErr error
	if insertErr = n.store.InsertNotification(ctx, notification); insertErr != nil {
		n.logger.Warn("failed to persist notification", "owner_id", ownerID, "error", insertErr)
	}

	var publishErr error
	if n.publisher != nil {
		event := notificationEvent{
			NotificationID: notification.ID,
			OwnerID:        ownerID,
			Title:          title,
			Message:        message,
			Timestamp:      time.Now().UTC(),
		}
		if publishErr = n.publisher.Publish(ctx, notificationExchange, routingKeyFor(kind), event); publishErr != nil {
			n.logger.Warn("failed to publish notification event", "owner_id", ownerID, "error", publishErr)
		}
	}

	return errors.Join(insertErr, publishErr)
}
