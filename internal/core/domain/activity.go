package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType is the closed enumeration of audited actions.
type ActivityType string

const (
	ActivityWithdrawalRequested   ActivityType = "withdrawal_requested"
	ActivityWithdrawalUnderReview ActivityType = "withdrawal_under_review"
	ActivityWithdrawalApproved    ActivityType = "withdrawal_approved"
	ActivityWithdrawalRejected    ActivityType = "withdrawal_rejected"
	ActivityWithdrawalCompleted   ActivityType = "withdrawal_completed"
	ActivityDonationMade          ActivityType = "donation_made"
	ActivityCampaignCreated       ActivityType = "campaign_created"
	ActivityBankDetailsViewed     ActivityType = "bank_details_viewed"
)

// ActivityForStatus maps a withdrawal status to its audit tag.
func ActivityForStatus(status WithdrawalStatus) ActivityType {
	switch status {
	case WithdrawalStatusUnderReview:
		return ActivityWithdrawalUnderReview
	case WithdrawalStatusApproved:
		return ActivityWithdrawalApproved
	case WithdrawalStatusRejected:
		return ActivityWithdrawalRejected
	case WithdrawalStatusCompleted:
		return ActivityWithdrawalCompleted
	default:
		return ActivityWithdrawalRequested
	}
}

// EntityType names the kinds of records an activity entry may reference.
type EntityType string

const (
	EntityCampaign          EntityType = "Campaign"
	EntityDonation          EntityType = "Donation"
	EntityWithdrawalRequest EntityType = "WithdrawalRequest"
)

// ActivityLog is an append-only audit record. Writes are best-effort:
// a failed append never aborts the operation that produced it.
type ActivityLog struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Type        ActivityType   `json:"activity_type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	EntityType  EntityType     `json:"entity_type,omitempty"`
	EntityID    *uuid.UUID     `json:"entity_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
