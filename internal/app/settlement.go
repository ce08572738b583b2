/**
 * @description
 * Settlement executor for recurring donations. Given one due subscription it
 * performs the atomic check-debit-record-credit sequence against the wallet
 * ledger, then applies the schedule and notification side effects that belong
 * outside the monetary transaction.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/schedule"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/store"
)

// OutcomeKind classifies the result of one settlement attempt.
type OutcomeKind int

const (
	// OutcomeSettled means money moved and a donation record exists.
	OutcomeSettled OutcomeKind = iota
	// OutcomeInsufficientBalance is an expected business outcome, not a fault:
	// the wallet could not cover the charge and the retry was scheduled.
	OutcomeInsufficientBalance
	// OutcomeStorageFailure is a transient infrastructure fault; the
	// subscription schedule is untouched and the next pass retries it.
	OutcomeStorageFailure
	// OutcomeNotDue means a concurrent pass settled the subscription first;
	// this attempt is a no-op.
	OutcomeNotDue
	// OutcomeInvalidFrequency marks a data-integrity fault in the stored
	// frequency value. The item is skipped, never charged.
	OutcomeInvalidFrequency
)

// Outcome is the tagged result of Executor.Settle.
type Outcome struct {
	Kind       OutcomeKind
	DonationID uuid.UUID
	Err        error
}

// SettlementTx is the monetary unit of work: every method runs on one
// underlying transaction, committed or rolled back as a whole.
type SettlementTx interface {
	LockSubscription(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (*domain.Subscription, error)
	ClaimNextRun(ctx context.Context, subscriptionID uuid.UUID, nextExecutionAt time.Time) error
	GetBalanceAndOwner(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerWallet, error)
	DebitBalance(ctx context.Context, ownerID uuid.UUID, amount int64) error
	InsertDonation(ctx context.Context, d *domain.Donation) error
	CreditCampaign(ctx context.Context, campaignID uuid.UUID, amount int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger opens settlement transactions against the wallet ledger.
type Ledger interface {
	BeginSettlement(ctx context.Context) (SettlementTx, error)
}

// ScheduleStore records settlement outcomes on the subscription schedule.
type ScheduleStore interface {
	RecordSuccess(ctx context.Context, subscriptionID uuid.UUID, executedAt, nextExecutionAt time.Time) error
	RecordFailureReschedule(ctx context.Context, subscriptionID uuid.UUID, retryAt time.Time) error
}

// NotificationKind tags a settlement outcome so downstream consumers can bind
// to success and failure events separately.
type NotificationKind string

const (
	NotificationSettled             NotificationKind = "success"
	NotificationInsufficientBalance NotificationKind = "failed"
)

// Notifier delivers fire-and-forget settlement notifications to the owner.
// Failures never affect the settlement outcome.
type Notifier interface {
	Notify(ctx context.Context, ownerID uuid.UUID, kind NotificationKind, title, message string) error
}

// Executor settles one due subscription at a time. It is safe for concurrent
// use across different subscriptions; per-subscription mutual exclusion comes
// from the row lock taken at the start of the monetary transaction.
type Executor struct {
	ledger   Ledger
	schedule ScheduleStore
	notifier Notifier
	logger   *slog.Logger
}

// NewExecutor creates a settlement executor.
func NewExecutor(ledger Ledger, scheduleStore ScheduleStore, notifier Notifier, logger *slog.Logger) *Executor {
	return &Executor{
		ledger:   ledger,
		schedule: scheduleStore,
		notifier: notifier,
		logger:   logger,
	}
}

// Settle performs one settlement attempt for the given subscription at the
// given instant. The monetary steps run as a single atomic unit; schedule
// bookkeeping and notifications happen after its outcome is known.
func (e *Executor) Settle(ctx context.Context, sub domain.Subscription, now time.Time) Outcome {
	// Reject bad frequency data before any money moves; a charge whose next
	// run cannot be computed would strand the schedule.
	nextAt, err := schedule.NextRun(sub.Frequency, now)
	if err != nil {
		return Outcome{Kind: OutcomeInvalidFrequency, Err: err}
	}

	tx, err := e.ledger.BeginSettlement(ctx)
	if err != nil {
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}
	defer tx.Rollback(ctx)

	locked, err := tx.LockSubscription(ctx, sub.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotDue) {
			return Outcome{Kind: OutcomeNotDue}
		}
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	// Claim the next run inside the transaction. The claim commits together
	// with the money movement, so a concurrent pass that locks this row after
	// our commit sees the advanced schedule and backs off; on rollback the
	// schedule is untouched.
	if err := tx.ClaimNextRun(ctx, locked.ID, nextAt); err != nil {
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	wallet, err := tx.GetBalanceAndOwner(ctx, locked.OwnerID)
	if err != nil {
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	if wallet.Balance < locked.Amount {
		// Abort the monetary transaction before the reschedule-and-notify
		// side effects; they must be recorded even though no money moved.
		tx.Rollback(ctx)
		e.handleInsufficientBalance(ctx, locked, wallet, now)
		return Outcome{Kind: OutcomeInsufficientBalance}
	}

	if err := tx.DebitBalance(ctx, locked.OwnerID, locked.Amount); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			tx.Rollback(ctx)
			e.handleInsufficientBalance(ctx, locked, wallet, now)
			return Outcome{Kind: OutcomeInsufficientBalance}
		}
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	donation := &domain.Donation{
		ID:             uuid.New(),
		SubscriptionID: locked.ID,
		CampaignID:     locked.CampaignID,
		OwnerID:        locked.OwnerID,
		Amount:         locked.Amount,
		Status:         domain.DonationStatusPaid,
		DonorName:      wallet.FullName,
		PaymentMethod:  domain.PaymentMethodWalletAuto,
		PaidAt:         now,
	}
	if err := tx.InsertDonation(ctx, donation); err != nil {
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	if err := tx.CreditCampaign(ctx, locked.CampaignID, locked.Amount); err != nil {
		return Outcome{Kind: OutcomeStorageFailure, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		// The whole attempt is void; the schedule stays untouched so the next
		// pass retries this subscription.
		return Outcome{Kind: OutcomeStorageFailure, Err: fmt.Errorf("commit settlement: %w", err)}
	}

	// Best-effort side effects after commit. A failure here leaves money
	// correctly settled; it is logged, never rolled back.
	if err := e.schedule.RecordSuccess(ctx, locked.ID, now, nextAt); err != nil {
		e.logger.Error("failed to record settlement success",
			"subscription_id", locked.ID, "error", err)
	}

	title := "Donasi rutin berhasil"
	message := fmt.Sprintf("Donasi rutin Anda sebesar %d telah berhasil disalurkan dari saldo dompet Anda.", locked.Amount)
	if err := e.notifier.Notify(ctx, locked.OwnerID, NotificationSettled, title, message); err != nil {
		e.logger.Warn("failed to send success notification",
			"subscription_id", locked.ID, "error", err)
	}

	return Outcome{Kind: OutcomeSettled, DonationID: donation.ID}
}

// handleInsufficientBalance applies the failure policy: retry next calendar
// day regardless of the subscription's normal frequency, and tell the owner
// how much is missing. The subscription is not deactivated; it stays eligible
// for retry indefinitely.
func (e *Executor) handleInsufficientBalance(ctx context.Context, sub *domain.Subscription, wallet *domain.OwnerWallet, now time.Time) {
	retryAt := now.UTC().AddDate(0, 0, 1)
	if err := e.schedule.RecordFailureReschedule(ctx, sub.ID, retryAt); err != nil {
		e.logger.Error("failed to reschedule after insufficient balance",
			"subscription_id", sub.ID, "error", err)
	}

	shortfall := sub.Amount - wallet.Balance
	title := "Saldo tidak mencukupi"
	message := fmt.Sprintf(
		"Donasi rutin Anda sebesar %d tidak dapat diproses: saldo dompet Anda %d, kurang %d. Isi ulang saldo Anda dan kami akan mencoba lagi besok.",
		sub.Amount, wallet.Balance, shortfall,
	)
	if err := e.notifier.Notify(ctx, sub.OwnerID, NotificationInsufficientBalance, title, message); err != nil {
		e.logger.Warn("failed to send insufficient balance notification",
			"subscription_id", sub.ID, "error", err)
	}
}

// NewLedger adapts the PostgreSQL repository to the Ledger interface.
func NewLedger(repo *store.Repository) Ledger {
	return pgLedger{repo: repo}
}

type pgLedger struct {
	repo *store.Repository
}

func (l pgLedger) BeginSettlement(ctx context.Context) (SettlementTx, error) {
	tx, err := l.repo.BeginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
