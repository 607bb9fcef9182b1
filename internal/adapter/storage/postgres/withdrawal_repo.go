package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository. The nested bank
// details, document set and KYC info persist as JSONB; everything the
// queries filter or aggregate on is a real column.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, organizer_id, campaign_id, amount, status,
		bank_details, documents, kyc_info,
		reviewed_by, reviewed_at, review_notes, rejection_reason,
		transaction_reference, completed_at, processing_fee, net_amount,
		created_at, updated_at`

// Create inserts a new withdrawal request within a transaction. Bank
// fields must already be encrypted by the caller.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	bankJSON, docsJSON, kycJSON, err := marshalNested(w)
	if err != nil {
		return err
	}

	query := `INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = tx.Exec(ctx, query,
		w.ID, w.OrganizerID, w.CampaignID, w.Amount, string(w.Status),
		bankJSON, docsJSON, kycJSON,
		w.ReviewedBy, w.ReviewedAt, w.ReviewNotes, w.RejectionReason,
		w.TransactionReference, w.CompletedAt, w.ProcessingFee, w.NetAmount,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request by its UUID.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal by id: %w", err)
	}
	return w, nil
}

const sumByStatusesQuery = `SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests
		WHERE campaign_id = $1 AND status = ANY($2)`

// SumByCampaignAndStatuses returns the total amount of a campaign's
// requests in any of the given statuses.
func (r *WithdrawalRepo) SumByCampaignAndStatuses(ctx context.Context, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, sumByStatusesQuery, campaignID, statusStrings(statuses)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum withdrawals by status: %w", err)
	}
	return total, nil
}

// SumByCampaignAndStatusesTx is the in-transaction variant used while the
// campaign row is locked.
func (r *WithdrawalRepo) SumByCampaignAndStatusesTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, sumByStatusesQuery, campaignID, statusStrings(statuses)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum withdrawals by status in tx: %w", err)
	}
	return total, nil
}

// UpdateTransition persists a status transition conditionally: the row is
// only written if its stored status still equals expected, which closes
// the race between two admins acting on the same request.
func (r *WithdrawalRepo) UpdateTransition(ctx context.Context, w *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error {
	query := `UPDATE withdrawal_requests
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4,
			rejection_reason = $5, transaction_reference = $6, completed_at = $7,
			processing_fee = $8, net_amount = $9, updated_at = $10
		WHERE id = $11 AND status = $12`

	tag, err := r.pool.Exec(ctx, query,
		string(w.Status), w.ReviewedBy, w.ReviewedAt, w.ReviewNotes,
		w.RejectionReason, w.TransactionReference, w.CompletedAt,
		w.ProcessingFee, w.NetAmount, w.UpdatedAt,
		w.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("update withdrawal transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrStatusConflict
	}
	return nil
}

// UpdateDocuments persists the document set (verification toggles).
func (r *WithdrawalRepo) UpdateDocuments(ctx context.Context, id uuid.UUID, docs *domain.DocumentSet) error {
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	query := `UPDATE withdrawal_requests SET documents = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, docsJSON, id)
	if err != nil {
		return fmt.Errorf("update withdrawal documents: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal request not found: %s", id)
	}
	return nil
}

// ListByOrganizer returns an organizer's requests, newest first.
func (r *WithdrawalRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE organizer_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals by organizer: %w", err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// List returns a page of requests with an optional status filter, newest
// first, along with the unpaged total.
func (r *WithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	offset := (params.Page - 1) * params.PageSize

	var (
		total int64
		rows  pgx.Rows
		err   error
	)

	if params.Status != nil {
		countQuery := `SELECT COUNT(*) FROM withdrawal_requests WHERE status = $1`
		if err = r.pool.QueryRow(ctx, countQuery, string(*params.Status)).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count withdrawals: %w", err)
		}

		query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
			WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.pool.Query(ctx, query, string(*params.Status), params.PageSize, offset)
	} else {
		countQuery := `SELECT COUNT(*) FROM withdrawal_requests`
		if err = r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count withdrawals: %w", err)
		}

		query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = r.pool.Query(ctx, query, params.PageSize, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	list, err := collectWithdrawals(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func marshalNested(w *domain.WithdrawalRequest) (bankJSON, docsJSON, kycJSON []byte, err error) {
	if bankJSON, err = json.Marshal(w.BankDetails); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal bank details: %w", err)
	}
	if docsJSON, err = json.Marshal(w.Documents); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal documents: %w", err)
	}
	if kycJSON, err = json.Marshal(w.KYCInfo); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal kyc info: %w", err)
	}
	return bankJSON, docsJSON, kycJSON, nil
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	w := &domain.WithdrawalRequest{}
	var bankJSON, docsJSON, kycJSON []byte

	err := row.Scan(
		&w.ID, &w.OrganizerID, &w.CampaignID, &w.Amount, &w.Status,
		&bankJSON, &docsJSON, &kycJSON,
		&w.ReviewedBy, &w.ReviewedAt, &w.ReviewNotes, &w.RejectionReason,
		&w.TransactionReference, &w.CompletedAt, &w.ProcessingFee, &w.NetAmount,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(bankJSON, &w.BankDetails); err != nil {
		return nil, fmt.Errorf("unmarshal bank details: %w", err)
	}
	if err := json.Unmarshal(docsJSON, &w.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	if err := json.Unmarshal(kycJSON, &w.KYCInfo); err != nil {
		return nil, fmt.Errorf("unmarshal kyc info: %w", err)
	}
	return w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]domain.WithdrawalRequest, error) {
	var list []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal row: %w", err)
		}
		list = append(list, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawal rows: %w", err)
	}
	return list, nil
}

func statusStrings(statuses []domain.WithdrawalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
