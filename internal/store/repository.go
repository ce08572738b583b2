/**
 * @description
 * This file implements the PostgreSQL data access layer for recurring donation
 * subscriptions and notifications. It contains the due-set query used by the
 * batch runner and the schedule bookkeeping mutations applied after each
 * settlement attempt.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionNotDue   = errors.New("subscription is not due")
	ErrOwnerNotFound        = errors.New("owner not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
)

// Repository is the PostgreSQL implementation of the subscription and
// notification persistence operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListDue returns all active subscriptions whose next execution instant is
// null or at/before now, joined with the campaign title for reporting.
// Ordering by id is stable so a partially failing batch cannot starve items.
func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT s.id, s.owner_id, s.campaign_id, s.amount, s.frequency, s.is_active,
		       s.last_executed_at, s.next_execution_at, s.created_at, s.updated_at,
		       c.title
		FROM subscriptions s
		JOIN campaigns c ON c.id = s.campaign_id
		WHERE s.is_active = TRUE
		  AND (s.next_execution_at IS NULL OR s.next_execution_at <= $1)
		ORDER BY s.id
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.OwnerID, &sub.CampaignID, &sub.Amount, &sub.Frequency,
			&sub.IsActive, &sub.LastExecutedAt, &sub.NextExecutionAt,
			&sub.CreatedAt, &sub.UpdatedAt, &sub.CampaignTitle,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// RecordSuccess sets the last executed and next execution instants after a
// settled charge. The statement is a plain field assignment, so replaying it
// with identical arguments is idempotent.
func (r *Repository) RecordSuccess(ctx context.Context, subscriptionID uuid.UUID, executedAt, nextExecutionAt time.Time) error {
	query := `
		UPDATE subscriptions
		SET last_executed_at = $2,
		    next_execution_at = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, subscriptionID, executedAt, nextExecutionAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// RecordFailureReschedule advances the next execution instant without touching
// last_executed_at, used after an insufficient-balance outcome so the
// subscription retries once the owner tops up instead of every pass.
func (r *Repository) RecordFailureReschedule(ctx context.Context, subscriptionID uuid.UUID, retryAt time.Time) error {
	query := `
		UPDATE subscriptions
		SET next_execution_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, subscriptionID, retryAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// CreateSubscription inserts a new recurring donation agreement. The next
// execution instant starts null, so the first charge happens on the next
// scheduler pass.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
		INSERT INTO subscriptions (id, owner_id, campaign_id, amount, frequency, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, owner_id, campaign_id, amount, frequency, is_active,
		          last_executed_at, next_execution_at, created_at, updated_at
	`
	var created domain.Subscription
	err := r.db.QueryRow(ctx, query, sub.ID, sub.OwnerID, sub.CampaignID, sub.Amount, sub.Frequency).Scan(
		&created.ID, &created.OwnerID, &created.CampaignID, &created.Amount, &created.Frequency,
		&created.IsActive, &created.LastExecutedAt, &created.NextExecutionAt,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListByOwner returns all subscriptions belonging to one donor, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	query := `
		SELECT s.id, s.owner_id, s.campaign_id, s.amount, s.frequency, s.is_active,
		       s.last_executed_at, s.next_execution_at, s.created_at, s.updated_at,
		       c.title
		FROM subscriptions s
		JOIN campaigns c ON c.id = s.campaign_id
		WHERE s.owner_id = $1
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.OwnerID, &sub.CampaignID, &sub.Amount, &sub.Frequency,
			&sub.IsActive, &sub.LastExecutedAt, &sub.NextExecutionAt,
			&sub.CreatedAt, &sub.UpdatedAt, &sub.CampaignTitle,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// DeactivateSubscription suspends a subscription on owner request.
func (r *Repository) DeactivateSubscription(ctx context.Context, subscriptionID, ownerID uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET is_active = FALSE,
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.Exec(ctx, query, subscriptionID, ownerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// InsertNotification writes one fire-and-forget notification row.
func (r *Repository) InsertNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, owner_id, title, message)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.OwnerID, n.Title, n.Message)
	return err
}

// GetSubscriptionByID fetches one subscription without locking it.
func (r *Repository) GetSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT id, owner_id, campaign_id, amount, frequency, is_active,
		       last_executed_at, next_execution_at, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	var sub domain.Subscription
	err := r.db.QueryRow(ctx, query, subscriptionID).Scan(
		&sub.ID, &sub.OwnerID, &sub.CampaignID, &sub.Amount, &sub.Frequency,
		&sub.IsActive, &sub.LastExecutedAt, &sub.NextExecutionAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
