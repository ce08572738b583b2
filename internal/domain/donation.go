/**
 * @description
 * Domain models touched by wallet settlement: the donation record created per
 * successful charge, the owner's wallet snapshot read inside the settlement
 * transaction, and the fire-and-forget notification record.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DonationStatusPaid is the only status this write path produces: wallet
	// debits are synchronous, so a recurring donation is never pending.
	DonationStatusPaid = "paid"

	// PaymentMethodWalletAuto tags donations settled by the recurring job
	// from the owner's wallet balance, distinguishing them from gateway channels.
	PaymentMethodWalletAuto = "wallet-auto"
)

// Donation represents one immutable donation record. Recurring automatic
// donations are never anonymous, so DonorName carries the owner's real name.
type Donation struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CampaignID     uuid.UUID `json:"campaign_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"`
	DonorName      string    `json:"donor_name"`
	PaymentMethod  string    `json:"payment_method"`
	PaidAt         time.Time `json:"paid_at"`
}

// OwnerWallet is the balance-and-identity snapshot of a donor, read with a row
// lock inside the settlement transaction.
type OwnerWallet struct {
	OwnerID  uuid.UUID `json:"owner_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Balance  int64     `json:"balance"`
}

// Notification is a write-only record describing a settlement outcome to the
// owner. The settlement core never reads notifications back.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
