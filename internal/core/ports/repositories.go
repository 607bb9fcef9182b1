package ports

import (
	"context"
	"errors"

	"fundflow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrStatusConflict is returned by conditional withdrawal updates when the
// stored status no longer matches the expected one (lost race against a
// concurrent admin action).
var ErrStatusConflict = errors.New("withdrawal status changed concurrently")

// CampaignRepository defines read access to campaigns. The withdrawal core
// never mutates campaign state.
type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	// GetByIDForUpdate locks the campaign row for the duration of tx,
	// serializing concurrent balance validations for the same campaign.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Campaign, error)
}

// DonationRepository defines read access to donations for the ledger.
type DonationRepository interface {
	// SumCompletedByCampaign returns the total of COMPLETED donation
	// amounts for a campaign.
	SumCompletedByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	// SumCompletedByCampaignTx is the in-transaction variant used while
	// the campaign row is locked.
	SumCompletedByCampaignTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (int64, error)
}

// WithdrawalListParams holds filter + pagination for the admin listing.
type WithdrawalListParams struct {
	Status   *domain.WithdrawalStatus
	Page     int
	PageSize int
}

// WithdrawalRepository defines persistence operations for withdrawal
// requests. Requests are never deleted.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// SumByCampaignAndStatuses returns the total amount of requests for a
	// campaign in any of the given statuses.
	SumByCampaignAndStatuses(ctx context.Context, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error)
	// SumByCampaignAndStatusesTx is the in-transaction variant used while
	// the campaign row is locked.
	SumByCampaignAndStatusesTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error)
	// UpdateTransition persists a status transition conditionally: the row
	// is updated only if its stored status equals expected. Returns
	// ErrStatusConflict when the condition fails.
	UpdateTransition(ctx context.Context, w *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error
	// UpdateDocuments persists the document set (verification toggles).
	UpdateDocuments(ctx context.Context, id uuid.UUID, docs *domain.DocumentSet) error
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.WithdrawalRequest, error)
	List(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
}

// ActivityRepository appends audit records.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
}

// UserRepository defines the minimal identity lookup the core needs.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
