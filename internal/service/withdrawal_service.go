package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
	"fundflow/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const submissionCacheTTL = 24 * time.Hour

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// WithdrawalServiceImpl implements ports.WithdrawalService.
type WithdrawalServiceImpl struct {
	withdrawalRepo  ports.WithdrawalRepository
	campaignRepo    ports.CampaignRepository
	userRepo        ports.UserRepository
	ledger          *LedgerService
	crypto          *WithdrawalCrypto
	submissionCache ports.SubmissionCache
	notifier        ports.NotificationService
	audit           ports.AuditService
	transactor      ports.DBTransactor
	log             zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	withdrawalRepo ports.WithdrawalRepository,
	campaignRepo ports.CampaignRepository,
	userRepo ports.UserRepository,
	ledger *LedgerService,
	crypto *WithdrawalCrypto,
	submissionCache ports.SubmissionCache,
	notifier ports.NotificationService,
	audit ports.AuditService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		withdrawalRepo:  withdrawalRepo,
		campaignRepo:    campaignRepo,
		userRepo:        userRepo,
		ledger:          ledger,
		crypto:          crypto,
		submissionCache: submissionCache,
		notifier:        notifier,
		audit:           audit,
		transactor:      transactor,
		log:             log,
	}
}

// RequestWithdrawal validates ownership, documents and balance, then
// persists a pending request with encrypted bank fields. The balance check
// runs inside a transaction holding the campaign row lock so concurrent
// submissions for the same campaign serialize instead of overcommitting.
func (s *WithdrawalServiceImpl) RequestWithdrawal(ctx context.Context, sub ports.WithdrawalSubmission) (*domain.WithdrawalRequest, error) {
	if sub.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if slot := missingRequiredDocument(sub.Documents); slot != "" {
		return nil, apperror.ErrMissingDocument(slot)
	}

	campaign, err := s.campaignRepo.GetByID(ctx, sub.CampaignID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	if !campaign.IsOwnedBy(sub.OrganizerID) {
		return nil, apperror.ErrForbidden("You can only withdraw from your own campaigns")
	}

	// Redis dedup on the client-supplied key, best-effort
	var cacheKey string
	if sub.IdempotencyKey != "" {
		cacheKey = domain.BuildSubmissionKey(sub.OrganizerID, sub.IdempotencyKey)
		cached, err := s.submissionCache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("submission cache check failed, falling through")
		}
		if cached != nil {
			return unmarshalCachedWithdrawal(cached)
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the campaign row; the reservation check below is only safe
	// while this lock is held.
	locked, err := s.campaignRepo.GetByIDForUpdate(ctx, dbTx, sub.CampaignID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock campaign: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrNotFound("campaign")
	}

	balance, err := s.ledger.ComputeReservedBalanceTx(ctx, dbTx, sub.CampaignID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if balance.Available < sub.Amount {
		available := balance.Available
		if available < 0 {
			available = 0
		}
		return nil, apperror.ErrInsufficientFunds(available, sub.Amount)
	}

	now := time.Now().UTC()
	w := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		OrganizerID: sub.OrganizerID,
		CampaignID:  sub.CampaignID,
		Status:      domain.WithdrawalStatusPending,
		BankDetails: sub.BankDetails,
		Documents:   sub.Documents,
		KYCInfo:     sub.KYCInfo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.SetAmount(sub.Amount)

	if err := s.crypto.EncryptRequest(w); err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}

	if err := s.withdrawalRepo.Create(ctx, dbTx, w); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	w.BankDetails = s.crypto.MaskBankDetails(w.BankDetails)

	if cacheKey != "" {
		respJSON, err := json.Marshal(w)
		if err == nil {
			if err := s.submissionCache.Set(ctx, cacheKey, respJSON, submissionCacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache submission")
			}
		}
	}

	s.audit.Log(ctx, &domain.ActivityLog{
		ID:          uuid.New(),
		UserID:      sub.OrganizerID,
		Type:        domain.ActivityWithdrawalRequested,
		Description: fmt.Sprintf("Requested withdrawal of %d from campaign %q", w.Amount, campaign.Title),
		Metadata:    map[string]any{"amount": w.Amount, "campaign_id": campaign.ID.String()},
		EntityType:  domain.EntityWithdrawalRequest,
		EntityID:    &w.ID,
		CreatedAt:   now,
	})

	if organizer, err := s.userRepo.GetByID(ctx, sub.OrganizerID); err != nil {
		s.log.Warn().Err(err).Msg("organizer lookup for notification failed")
	} else if organizer != nil {
		s.notifier.SendWithdrawalRequested(ctx, organizer, campaign, w)
	}

	s.log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("campaign_id", sub.CampaignID.String()).
		Int64("amount", w.Amount).
		Msg("withdrawal request created")

	return w, nil
}

// GetAvailableBalance recomputes the ledger for a campaign owned by the
// caller.
func (s *WithdrawalServiceImpl) GetAvailableBalance(ctx context.Context, organizerID, campaignID uuid.UUID) (*ports.CampaignBalance, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	if !campaign.IsOwnedBy(organizerID) {
		return nil, apperror.ErrForbidden("You can only view balances for your own campaigns")
	}

	balance, err := s.ledger.ComputeAvailableBalance(ctx, campaignID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return balance, nil
}

// UpdateStatus drives the admin state machine. The persisted update is
// conditional on the status observed here, so two admins acting on the same
// request cannot both win.
func (s *WithdrawalServiceImpl) UpdateStatus(ctx context.Context, action ports.ReviewAction) (*domain.WithdrawalRequest, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, action.RequestID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}

	expected := w.Status
	now := time.Now().UTC()

	switch action.TargetStatus {
	case domain.WithdrawalStatusUnderReview:
		err = w.StartReview(action.AdminID, now)
	case domain.WithdrawalStatusApproved:
		err = w.Approve(action.AdminID, action.ReviewNotes, action.ProcessingFee, now)
	case domain.WithdrawalStatusRejected:
		err = w.Reject(action.AdminID, action.ReviewNotes, action.RejectionReason, now)
	case domain.WithdrawalStatusCompleted:
		err = w.Complete(action.TransactionReference, now)
	default:
		return nil, apperror.Validation("Unknown target status")
	}
	if err != nil {
		return nil, mapTransitionError(err, expected, action.TargetStatus)
	}

	if err := s.withdrawalRepo.UpdateTransition(ctx, w, expected); err != nil {
		if errors.Is(err, ports.ErrStatusConflict) {
			return nil, apperror.ErrInvalidStateTransition(string(expected), string(action.TargetStatus))
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update withdrawal: %w", err))
	}

	s.audit.Log(ctx, &domain.ActivityLog{
		ID:          uuid.New(),
		UserID:      action.AdminID,
		Type:        domain.ActivityForStatus(w.Status),
		Description: fmt.Sprintf("Withdrawal request moved from %s to %s", expected, w.Status),
		Metadata:    map[string]any{"from": string(expected), "to": string(w.Status)},
		EntityType:  domain.EntityWithdrawalRequest,
		EntityID:    &w.ID,
		CreatedAt:   now,
	})

	s.notifyStatusChange(ctx, w)

	s.log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("from", string(expected)).
		Str("to", string(w.Status)).
		Msg("withdrawal status updated")

	w.BankDetails = s.crypto.MaskBankDetails(w.BankDetails)
	return w, nil
}

// VerifyDocument toggles the verified flag on one document slot.
func (s *WithdrawalServiceImpl) VerifyDocument(ctx context.Context, adminID, requestID uuid.UUID, docType domain.DocumentType, verified bool) (*domain.WithdrawalRequest, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}
	if w.IsTerminal() {
		return nil, apperror.Validation("Documents on a closed withdrawal request cannot be changed")
	}

	if err := w.VerifyDocument(docType, verified); err != nil {
		return nil, apperror.Validation(fmt.Sprintf("Unknown or absent document type: %s", docType))
	}

	if err := s.withdrawalRepo.UpdateDocuments(ctx, w.ID, &w.Documents); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update documents: %w", err))
	}

	s.audit.Log(ctx, &domain.ActivityLog{
		ID:          uuid.New(),
		UserID:      adminID,
		Type:        domain.ActivityWithdrawalUnderReview,
		Description: fmt.Sprintf("Document %s marked verified=%t", docType, verified),
		Metadata:    map[string]any{"document_type": string(docType), "verified": verified},
		EntityType:  domain.EntityWithdrawalRequest,
		EntityID:    &w.ID,
		CreatedAt:   time.Now().UTC(),
	})

	w.BankDetails = s.crypto.MaskBankDetails(w.BankDetails)
	return w, nil
}

// ListForOrganizer returns the caller's own requests, bank details masked.
func (s *WithdrawalServiceImpl) ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	list, err := s.withdrawalRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list withdrawals: %w", err))
	}
	for i := range list {
		list[i].BankDetails = s.crypto.MaskBankDetails(list[i].BankDetails)
	}
	return list, nil
}

// Get returns one request; organizers may only see their own.
func (s *WithdrawalServiceImpl) Get(ctx context.Context, callerID uuid.UUID, role domain.Role, requestID uuid.UUID) (*domain.WithdrawalRequest, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}
	if role != domain.RoleAdmin && w.OrganizerID != callerID {
		return nil, apperror.ErrForbidden("You do not have access to this withdrawal request")
	}

	w.BankDetails = s.crypto.MaskBankDetails(w.BankDetails)
	return w, nil
}

// List is the admin view with optional status filter and pagination.
func (s *WithdrawalServiceImpl) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	list, total, err := s.withdrawalRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list withdrawals: %w", err))
	}
	for i := range list {
		list[i].BankDetails = s.crypto.MaskBankDetails(list[i].BankDetails)
	}
	return list, total, nil
}

// GetDecryptedBankDetails is the dedicated admin operation that returns
// plaintext bank details. Every call leaves an audit record.
func (s *WithdrawalServiceImpl) GetDecryptedBankDetails(ctx context.Context, adminID, requestID uuid.UUID) (*domain.BankDetails, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}

	bd, err := s.crypto.DecryptBankDetails(w.BankDetails)
	if err != nil {
		return nil, apperror.ErrDecryptionFailure(err)
	}

	s.audit.Log(ctx, &domain.ActivityLog{
		ID:          uuid.New(),
		UserID:      adminID,
		Type:        domain.ActivityBankDetailsViewed,
		Description: "Decrypted bank details accessed",
		EntityType:  domain.EntityWithdrawalRequest,
		EntityID:    &w.ID,
		CreatedAt:   time.Now().UTC(),
	})

	return &bd, nil
}

func (s *WithdrawalServiceImpl) notifyStatusChange(ctx context.Context, w *domain.WithdrawalRequest) {
	organizer, err := s.userRepo.GetByID(ctx, w.OrganizerID)
	if err != nil || organizer == nil {
		s.log.Warn().Err(err).Msg("organizer lookup for notification failed")
		return
	}
	campaignTitle := ""
	if campaign, err := s.campaignRepo.GetByID(ctx, w.CampaignID); err == nil && campaign != nil {
		campaignTitle = campaign.Title
	}
	s.notifier.SendWithdrawalStatusChanged(ctx, organizer.Email, organizer.Name, ports.WithdrawalStatusChange{
		RequestID:            w.ID,
		CampaignTitle:        campaignTitle,
		Status:               w.Status,
		Amount:               w.Amount,
		NetAmount:            w.NetAmount,
		ReviewNotes:          w.ReviewNotes,
		RejectionReason:      w.RejectionReason,
		TransactionReference: w.TransactionReference,
	})
}

func mapTransitionError(err error, from, to domain.WithdrawalStatus) *apperror.AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperror.ErrInvalidStateTransition(string(from), string(to))
	case errors.Is(err, domain.ErrMissingRejectionReason):
		return apperror.Validation("A rejection reason is required when rejecting a withdrawal request")
	case errors.Is(err, domain.ErrMissingTransactionReference):
		return apperror.Validation("A transaction reference is required when completing a withdrawal request")
	case errors.Is(err, domain.ErrNegativeProcessingFee),
		errors.Is(err, domain.ErrProcessingFeeExceedsAmount):
		return apperror.Validation(err.Error())
	default:
		return apperror.InternalError(err)
	}
}

func missingRequiredDocument(docs domain.DocumentSet) string {
	if docs.GovernmentID.URL == "" {
		return string(domain.DocumentGovernmentID)
	}
	if docs.BankProof.URL == "" {
		return string(domain.DocumentBankProof)
	}
	if docs.AddressProof.URL == "" {
		return string(domain.DocumentAddressProof)
	}
	return ""
}

func unmarshalCachedWithdrawal(data []byte) (*domain.WithdrawalRequest, error) {
	w := &domain.WithdrawalRequest{}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached withdrawal: %w", err))
	}
	return w, nil
}
