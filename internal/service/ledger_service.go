package service

import (
	"context"
	"fmt"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerService computes a campaign's withdrawable balance from completed
// donations net of committed withdrawals. It is a read-only aggregation,
// recomputed on every call; the campaign's cached raised amount is never
// consulted.
type LedgerService struct {
	donationRepo   ports.DonationRepository
	withdrawalRepo ports.WithdrawalRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(donationRepo ports.DonationRepository, withdrawalRepo ports.WithdrawalRepository) *LedgerService {
	return &LedgerService{
		donationRepo:   donationRepo,
		withdrawalRepo: withdrawalRepo,
	}
}

// ComputeAvailableBalance returns the reporting view of a campaign's
// balance: completed donations minus approved/completed withdrawals.
// Available is clamped at zero for display.
func (s *LedgerService) ComputeAvailableBalance(ctx context.Context, campaignID uuid.UUID) (*ports.CampaignBalance, error) {
	totalRaised, err := s.donationRepo.SumCompletedByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("sum completed donations: %w", err)
	}

	totalWithdrawn, err := s.withdrawalRepo.SumByCampaignAndStatuses(ctx, campaignID, domain.CommittedStatuses)
	if err != nil {
		return nil, fmt.Errorf("sum committed withdrawals: %w", err)
	}

	available := totalRaised - totalWithdrawn
	if available < 0 {
		available = 0
	}

	return &ports.CampaignBalance{
		CampaignID:     campaignID,
		TotalRaised:    totalRaised,
		TotalWithdrawn: totalWithdrawn,
		Available:      available,
	}, nil
}

// ComputeReservedBalanceTx returns the creation-time view inside a
// transaction holding the campaign row lock. Pending and under-review
// requests count as reserved here so that concurrent submissions cannot
// jointly overcommit; Available is not clamped because the caller compares
// it against the requested amount.
func (s *LedgerService) ComputeReservedBalanceTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (*ports.CampaignBalance, error) {
	totalRaised, err := s.donationRepo.SumCompletedByCampaignTx(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("sum completed donations: %w", err)
	}

	totalReserved, err := s.withdrawalRepo.SumByCampaignAndStatusesTx(ctx, tx, campaignID, domain.ReservedStatuses)
	if err != nil {
		return nil, fmt.Errorf("sum reserved withdrawals: %w", err)
	}

	return &ports.CampaignBalance{
		CampaignID:     campaignID,
		TotalRaised:    totalRaised,
		TotalWithdrawn: totalReserved,
		Available:      totalRaised - totalReserved,
	}, nil
}
