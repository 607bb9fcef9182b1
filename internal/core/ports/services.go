package ports

import (
	"context"
	"time"

	"fundflow/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService provides authenticated field-level encryption for bank
// account data and tax IDs. Empty input passes through unchanged in both
// directions.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	// Mask replaces all but the last visible characters of value with '*'.
	// Values no longer than visible are returned unchanged.
	Mask(value string, visible int) string
}

// SignatureService handles HMAC-SHA256 signing of outbound notification
// payloads so the relay can verify origin.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations for the identity boundary.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims. The core trusts these as given.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// SubmissionCache is the Redis-backed idempotency check for withdrawal
// submissions: a duplicate Idempotency-Key returns the cached response.
type SubmissionCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WithdrawalStatusChange carries the details included in a status
// notification to the organizer.
type WithdrawalStatusChange struct {
	RequestID            uuid.UUID
	CampaignTitle        string
	Status               domain.WithdrawalStatus
	Amount               int64
	NetAmount            int64
	ReviewNotes          string
	RejectionReason      string
	TransactionReference string
}

// NotificationService delivers withdrawal lifecycle events to organizers.
// Delivery is fire-and-forget: implementations must never block or fail the
// triggering operation.
type NotificationService interface {
	SendWithdrawalRequested(ctx context.Context, organizer *domain.User, campaign *domain.Campaign, request *domain.WithdrawalRequest)
	SendWithdrawalStatusChanged(ctx context.Context, email, name string, change WithdrawalStatusChange)
}

// AuditService appends activity records, best-effort.
type AuditService interface {
	Log(ctx context.Context, entry *domain.ActivityLog)
}

// --- Service Ports (Business Logic) ---

// CampaignBalance is the ledger view of a campaign's withdrawable funds.
type CampaignBalance struct {
	CampaignID     uuid.UUID `json:"campaign_id"`
	TotalRaised    int64     `json:"total_raised"`
	TotalWithdrawn int64     `json:"total_withdrawn"`
	Available      int64     `json:"available_balance"`
}

// WithdrawalSubmission holds validated input for creating a withdrawal
// request. Sensitive fields arrive in plaintext and are encrypted before
// persistence.
type WithdrawalSubmission struct {
	OrganizerID    uuid.UUID
	CampaignID     uuid.UUID
	Amount         int64
	BankDetails    domain.BankDetails
	Documents      domain.DocumentSet
	KYCInfo        domain.KYCInfo
	IdempotencyKey string // Optional client-supplied dedup key
}

// ReviewAction holds an admin's status decision on a withdrawal request.
type ReviewAction struct {
	AdminID              uuid.UUID
	RequestID            uuid.UUID
	TargetStatus         domain.WithdrawalStatus
	ReviewNotes          string
	RejectionReason      string
	TransactionReference string
	ProcessingFee        *int64 // Optional, applied on approval
}

// WithdrawalService defines the withdrawal lifecycle business logic.
type WithdrawalService interface {
	// RequestWithdrawal validates ownership, balance and documents, then
	// persists a pending request with encrypted bank fields. The returned
	// aggregate carries masked bank details.
	RequestWithdrawal(ctx context.Context, sub WithdrawalSubmission) (*domain.WithdrawalRequest, error)
	// GetAvailableBalance recomputes the ledger for an owned campaign.
	GetAvailableBalance(ctx context.Context, organizerID, campaignID uuid.UUID) (*CampaignBalance, error)
	// UpdateStatus drives the admin state machine.
	UpdateStatus(ctx context.Context, action ReviewAction) (*domain.WithdrawalRequest, error)
	// VerifyDocument toggles the verified flag on one document slot.
	VerifyDocument(ctx context.Context, adminID, requestID uuid.UUID, docType domain.DocumentType, verified bool) (*domain.WithdrawalRequest, error)
	// ListForOrganizer returns the caller's own requests.
	ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.WithdrawalRequest, error)
	// Get returns one request; organizers may only see their own.
	Get(ctx context.Context, callerID uuid.UUID, role domain.Role, requestID uuid.UUID) (*domain.WithdrawalRequest, error)
	// List is the admin view with optional status filter and pagination.
	List(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
	// GetDecryptedBankDetails is the dedicated, audited admin operation
	// returning plaintext bank details.
	GetDecryptedBankDetails(ctx context.Context, adminID, requestID uuid.UUID) (*domain.BankDetails, error)
}
