/**
 * @description
 * Batch runner for the recurring donation job. One invocation fetches the due
 * set, settles each subscription on a bounded worker pool, and aggregates a
 * report for the trigger caller. No single item outcome aborts the batch.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/metrics"
)

// Batch item statuses exposed on the trigger report.
const (
	StatusSuccess             = "success"
	StatusInsufficientBalance = "failed_insufficient_balance"
)

// DueLister fetches the subscriptions eligible for settlement.
type DueLister interface {
	ListDue(ctx context.Context, now time.Time) ([]domain.Subscription, error)
}

// BatchItem is one processed subscription in the trigger report.
type BatchItem struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Status         string    `json:"status"`
	CampaignTitle  string    `json:"campaign_title"`
}

// BatchReport summarizes one scheduler pass. Details carries only business
// outcomes; storage failures and data-integrity skips are counted and logged
// but have no detail row.
type BatchReport struct {
	ProcessedCount  int         `json:"processed_count"`
	StorageFailures int         `json:"storage_failures"`
	Skipped         int         `json:"skipped"`
	Details         []BatchItem `json:"details"`
}

// Runner drives one batch of settlements per external trigger invocation.
// Concurrent invocations are safe: per-subscription mutual exclusion is
// enforced inside the settlement transaction, so an overlapping pass observes
// the advanced schedule instead of double-charging.
type Runner struct {
	subs          DueLister
	executor      *Executor
	logger        *slog.Logger
	workers       int
	settleTimeout time.Duration
}

// NewRunner creates a batch runner. workers bounds settlement parallelism
// across different subscriptions; settleTimeout bounds one item's lock wait so
// a stuck row cannot stall the rest of the batch.
func NewRunner(subs DueLister, executor *Executor, logger *slog.Logger, workers int, settleTimeout time.Duration) *Runner {
	if workers < 1 {
		workers = 1
	}
	if settleTimeout <= 0 {
		settleTimeout = 10 * time.Second
	}
	return &Runner{
		subs:          subs,
		executor:      executor,
		logger:        logger,
		workers:       workers,
		settleTimeout: settleTimeout,
	}
}

// RunOnce processes every due subscription once. Only a failure to fetch the
// due list at all is returned as an error; per-item faults are absorbed into
// the report.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (*BatchReport, error) {
	started := time.Now()
	metrics.BatchRunsTotal.Inc()

	due, err := r.subs.ListDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	metrics.DueSubscriptions.Set(float64(len(due)))

	report := &BatchReport{Details: []BatchItem{}}
	if len(due) == 0 {
		metrics.BatchRunDuration.Observe(time.Since(started).Seconds())
		return report, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan domain.Subscription)
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				item, counted := r.settleOne(ctx, sub, now)
				mu.Lock()
				switch counted {
				case OutcomeSettled, OutcomeInsufficientBalance:
					report.Details = append(report.Details, item)
					report.ProcessedCount++
				case OutcomeStorageFailure:
					report.StorageFailures++
				default:
					report.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, sub := range due {
		jobs <- sub
	}
	close(jobs)
	wg.Wait()

	metrics.BatchRunDuration.Observe(time.Since(started).Seconds())
	r.logger.Info("recurring donation batch finished",
		"due", len(due),
		"processed", report.ProcessedCount,
		"storage_failures", report.StorageFailures,
		"skipped", report.Skipped,
	)

	return report, nil
}

// settleOne settles a single subscription under the per-item timeout and maps
// the outcome to a report entry.
func (r *Runner) settleOne(ctx context.Context, sub domain.Subscription, now time.Time) (BatchItem, OutcomeKind) {
	itemCtx, cancel := context.WithTimeout(ctx, r.settleTimeout)
	defer cancel()

	outcome := r.executor.Settle(itemCtx, sub, now)

	switch outcome.Kind {
	case OutcomeSettled:
		metrics.SettlementsTotal.WithLabelValues("success").Inc()
		return BatchItem{
			SubscriptionID: sub.ID,
			Status:         StatusSuccess,
			CampaignTitle:  sub.CampaignTitle,
		}, OutcomeSettled
	case OutcomeInsufficientBalance:
		metrics.SettlementsTotal.WithLabelValues("insufficient_balance").Inc()
		return BatchItem{
			SubscriptionID: sub.ID,
			Status:         StatusInsufficientBalance,
			CampaignTitle:  sub.CampaignTitle,
		}, OutcomeInsufficientBalance
	case OutcomeStorageFailure:
		metrics.SettlementsTotal.WithLabelValues("storage_failure").Inc()
		r.logger.Error("settlement storage failure, will retry next pass",
			"subscription_id", sub.ID, "error", outcome.Err)
		return BatchItem{}, OutcomeStorageFailure
	case OutcomeInvalidFrequency:
		metrics.SettlementsTotal.WithLabelValues("invalid_frequency").Inc()
		r.logger.Error("subscription has unrecognized frequency, skipping",
			"subscription_id", sub.ID, "error", outcome.Err)
		return BatchItem{}, OutcomeInvalidFrequency
	default: // OutcomeNotDue
		metrics.SettlementsTotal.WithLabelValues("not_due").Inc()
		r.logger.Info("subscription already settled by a concurrent pass",
			"subscription_id", sub.ID)
		return BatchItem{}, OutcomeNotDue
	}
}
