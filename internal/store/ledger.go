/**
 * @description
 * This file implements the monetary unit of work for one settlement attempt.
 * All money movement for a recurring donation happens inside a single
 * PostgreSQL transaction: the subscription row and the owner's wallet row are
 * locked with SELECT ... FOR UPDATE, the balance is checked and debited with a
 * floor guard, the donation row is inserted, and the campaign aggregates are
 * incremented with atomic adds. A crash or error before commit leaves no
 * partial effects.
 */
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

// SettlementTx carries one in-flight settlement transaction. Its lifetime is
// the monetary critical section only; notifications and schedule bookkeeping
// happen outside it.
type SettlementTx struct {
	tx pgx.Tx
}

// BeginSettlement opens the settlement transaction.
func (r *Repository) BeginSettlement(ctx context.Context) (*SettlementTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement tx: %w", err)
	}
	return &SettlementTx{tx: tx}, nil
}

// LockSubscription locks the subscription row for the duration of the
// transaction and re-checks that it is still active and due. The row lock
// serializes concurrent scheduler passes on the same subscription: the loser
// blocks here until the winner commits, then observes the advanced schedule
// and gets ErrSubscriptionNotDue instead of double-charging.
func (s *SettlementTx) LockSubscription(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	query := `
		SELECT id, owner_id, campaign_id, amount, frequency, is_active,
		       last_executed_at, next_execution_at, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
		FOR UPDATE
	`
	var sub domain.Subscription
	err := s.tx.QueryRow(ctx, query, subscriptionID).Scan(
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

	if !sub.IsDue(now) {
		return nil, ErrSubscriptionNotDue
	}

	return &sub, nil
}

// ClaimNextRun advances the subscription's next execution instant as part of
// the settlement transaction. Because the claim commits atomically with the
// money movement, a concurrent pass that wins the row lock afterwards observes
// the advanced schedule and backs off; if the settlement rolls back, the claim
// rolls back with it and the schedule stays untouched.
func (s *SettlementTx) ClaimNextRun(ctx context.Context, subscriptionID uuid.UUID, nextExecutionAt time.Time) error {
	query := `
		UPDATE subscriptions
		SET next_execution_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.tx.Exec(ctx, query, subscriptionID, nextExecutionAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// GetBalanceAndOwner locks the owner's wallet row and returns the balance
// together with the identity fields needed for donation attribution.
func (s *SettlementTx) GetBalanceAndOwner(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerWallet, error) {
	query := `
		SELECT id, full_name, email, balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var wallet domain.OwnerWallet
	err := s.tx.QueryRow(ctx, query, ownerID).Scan(
		&wallet.OwnerID, &wallet.FullName, &wallet.Email, &wallet.Balance,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// DebitBalance subtracts amount from the owner's wallet. The WHERE guard
// re-checks sufficiency inside the statement, so the balance can never go
// negative even if a caller skipped the read-and-compare step.
func (s *SettlementTx) DebitBalance(ctx context.Context, ownerID uuid.UUID, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance - $1,
		    updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`
	result, err := s.tx.Exec(ctx, query, amount, ownerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// InsertDonation writes the immutable donation record for this settlement.
func (s *SettlementTx) InsertDonation(ctx context.Context, d *domain.Donation) error {
	query := `
		INSERT INTO donations (
			id, subscription_id, campaign_id, owner_id, amount,
			status, donor_name, payment_method, paid_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.tx.Exec(ctx, query,
		d.ID, d.SubscriptionID, d.CampaignID, d.OwnerID, d.Amount,
		d.Status, d.DonorName, d.PaymentMethod, d.PaidAt,
	)
	return err
}

// CreditCampaign adds the donation amount to the campaign total and bumps the
// donor count. The increments are atomic adds in SQL, never read-modify-write
// at the application layer, so concurrent donations from other channels cannot
// lose updates.
func (s *SettlementTx) CreditCampaign(ctx context.Context, campaignID uuid.UUID, amount int64) error {
	query := `
		UPDATE campaigns
		SET current_amount = current_amount + $1,
		    donor_count = donor_count + 1,
		    updated_at = NOW()
		WHERE id = $2
	`
	result, err := s.tx.Exec(ctx, query, amount, campaignID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// Commit makes the settlement durable. On failure the entire attempt is void.
func (s *SettlementTx) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

// Rollback discards the settlement. Safe to call after Commit.
func (s *SettlementTx) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}
