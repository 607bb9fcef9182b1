package postgres

import (
	"context"
	"fmt"

	"fundflow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DonationRepo implements ports.DonationRepository. The withdrawal core
// only ever aggregates donations; row-level access lives with the capture
// flow.
type DonationRepo struct {
	pool Pool
}

// NewDonationRepo creates a new DonationRepo.
func NewDonationRepo(pool Pool) *DonationRepo {
	return &DonationRepo{pool: pool}
}

const sumCompletedQuery = `SELECT COALESCE(SUM(amount), 0) FROM donations WHERE campaign_id = $1 AND status = $2`

// SumCompletedByCampaign returns the total of COMPLETED donation amounts.
func (r *DonationRepo) SumCompletedByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, sumCompletedQuery, campaignID, string(domain.DonationStatusCompleted)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum completed donations: %w", err)
	}
	return total, nil
}

// SumCompletedByCampaignTx is the in-transaction variant used while the
// campaign row is locked.
func (r *DonationRepo) SumCompletedByCampaignTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, sumCompletedQuery, campaignID, string(domain.DonationStatusCompleted)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum completed donations in tx: %w", err)
	}
	return total, nil
}
