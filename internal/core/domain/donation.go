package domain

import (
	"time"

	"github.com/google/uuid"
)

// DonationStatus represents the lifecycle state of a donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusCompleted DonationStatus = "COMPLETED"
	DonationStatusFailed    DonationStatus = "FAILED"
)

// Donation is a contribution captured by the payment collaborator.
// Only COMPLETED donations count toward withdrawable funds. The withdrawal
// core reads donations and never mutates them.
type Donation struct {
	ID             uuid.UUID         `json:"id"`
	CampaignID     uuid.UUID         `json:"campaign_id"`
	DonorID        *uuid.UUID        `json:"donor_id,omitempty"`
	DonorEmail     string            `json:"donor_email"`
	Amount         int64             `json:"amount"` // In cents
	Status         DonationStatus    `json:"status"`
	ExternalTxID   string            `json:"external_tx_id"` // Payment provider capture id, unique
	CaptureDetails map[string]string `json:"capture_details,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// IsCompleted reports whether this donation counts toward the ledger.
func (d *Donation) IsCompleted() bool {
	return d.Status == DonationStatusCompleted
}
