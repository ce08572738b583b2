/**
 * @description
 * This file defines the core domain models for recurring donation subscriptions.
 * A subscription is a standing agreement by a donor to have a fixed amount
 * debited from their wallet balance on a recurring schedule.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Frequency enumerates the supported recurring donation intervals.
// "minute" exists for operational testing of the scheduler, not as a product tier.
type Frequency string

const (
	FrequencyMinute  Frequency = "minute"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the recognized frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMinute, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Subscription represents a recurring donation agreement as stored in the
// subscriptions table. Amount is in the smallest currency unit.
type Subscription struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	CampaignID      uuid.UUID  `json:"campaign_id"`
	Amount          int64      `json:"amount"`
	Frequency       Frequency  `json:"frequency"`
	IsActive        bool       `json:"is_active"`
	LastExecutedAt  *time.Time `json:"last_executed_at,omitempty"`
	NextExecutionAt *time.Time `json:"next_execution_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// CampaignTitle is joined from the campaigns table for reporting; it is
	// not a column of the subscriptions table.
	CampaignTitle string `json:"campaign_title,omitempty"`
}

// IsDue reports whether the subscription should be settled at the given instant.
// A nil NextExecutionAt means the subscription has never run and is due immediately.
func (s *Subscription) IsDue(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.NextExecutionAt == nil || !s.NextExecutionAt.After(now)
}
