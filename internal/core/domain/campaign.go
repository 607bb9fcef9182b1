package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign represents a fundraising campaign owned by an organizer.
// RaisedAmount is a denormalized running total maintained by the donation
// capture flow; the withdrawal ledger recomputes totals from completed
// donations and never trusts it.
type Campaign struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Title        string    `json:"title"`
	TargetAmount int64     `json:"target_amount"` // In cents
	RaisedAmount int64     `json:"raised_amount"` // In cents, cached
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether the given user owns this campaign.
func (c *Campaign) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}
