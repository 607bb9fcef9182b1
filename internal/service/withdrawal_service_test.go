package service

import (
	"context"
	"encoding/json"
	"testing"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
	"fundflow/internal/core/ports/mocks"
	"fundflow/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type withdrawalTestDeps struct {
	svc            *WithdrawalServiceImpl
	withdrawalRepo *mocks.MockWithdrawalRepository
	campaignRepo   *mocks.MockCampaignRepository
	donationRepo   *mocks.MockDonationRepository
	userRepo       *mocks.MockUserRepository
	encSvc         *mocks.MockEncryptionService
	cache          *mocks.MockSubmissionCache
	notifier       *mocks.MockNotificationService
	audit          *mocks.MockAuditService
	transactor     *mocks.MockDBTransactor
	ctrl           *gomock.Controller
}

func setupWithdrawalService(t *testing.T) *withdrawalTestDeps {
	ctrl := gomock.NewController(t)
	d := &withdrawalTestDeps{
		withdrawalRepo: mocks.NewMockWithdrawalRepository(ctrl),
		campaignRepo:   mocks.NewMockCampaignRepository(ctrl),
		donationRepo:   mocks.NewMockDonationRepository(ctrl),
		userRepo:       mocks.NewMockUserRepository(ctrl),
		encSvc:         mocks.NewMockEncryptionService(ctrl),
		cache:          mocks.NewMockSubmissionCache(ctrl),
		notifier:       mocks.NewMockNotificationService(ctrl),
		audit:          mocks.NewMockAuditService(ctrl),
		transactor:     mocks.NewMockDBTransactor(ctrl),
		ctrl:           ctrl,
	}
	ledger := NewLedgerService(d.donationRepo, d.withdrawalRepo)
	crypto := NewWithdrawalCrypto(d.encSvc)
	d.svc = NewWithdrawalService(
		d.withdrawalRepo, d.campaignRepo, d.userRepo,
		ledger, crypto, d.cache, d.notifier, d.audit,
		d.transactor, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func validSubmission(organizerID, campaignID uuid.UUID) ports.WithdrawalSubmission {
	return ports.WithdrawalSubmission{
		OrganizerID: organizerID,
		CampaignID:  campaignID,
		Amount:      200000,
		BankDetails: domain.BankDetails{
			AccountHolderName: "Pat Doe",
			BankName:          "First National",
			AccountNumber:     "123456789",
			AccountType:       domain.AccountTypeChecking,
			BankCountry:       "US",
		},
		Documents: domain.DocumentSet{
			GovernmentID: domain.Document{URL: "https://files.example.com/gov.pdf", Type: "passport"},
			BankProof:    domain.Document{URL: "https://files.example.com/bank.pdf", Type: "statement"},
			AddressProof: domain.Document{URL: "https://files.example.com/addr.pdf", Type: "utility"},
		},
		KYCInfo: domain.KYCInfo{
			FullLegalName: "Patricia Doe",
			Nationality:   "US",
			PhoneNumber:   "+15550100",
		},
	}
}

// ==================== RequestWithdrawal Tests ====================

func TestWithdrawalService_RequestWithdrawal_Success(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizerID := uuid.New()
	campaignID := uuid.New()
	tx := &mockTx{}

	sub := validSubmission(organizerID, campaignID)
	campaign := &domain.Campaign{ID: campaignID, OwnerID: organizerID, Title: "Clean Water"}

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(campaign, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.campaignRepo.EXPECT().GetByIDForUpdate(ctx, tx, campaignID).Return(campaign, nil)
	d.donationRepo.EXPECT().SumCompletedByCampaignTx(ctx, tx, campaignID).Return(int64(500000), nil)
	d.withdrawalRepo.EXPECT().SumByCampaignAndStatusesTx(ctx, tx, campaignID, domain.ReservedStatuses).Return(int64(100000), nil)
	d.encSvc.EXPECT().Encrypt("123456789").Return("enc_account", nil)
	d.withdrawalRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.audit.EXPECT().Log(gomock.Any(), gomock.Any())
	d.userRepo.EXPECT().GetByID(ctx, organizerID).Return(&domain.User{ID: organizerID, Name: "Pat", Email: "pat@example.com"}, nil)
	d.notifier.EXPECT().SendWithdrawalRequested(gomock.Any(), gomock.Any(), campaign, gomock.Any())

	result, err := d.svc.RequestWithdrawal(ctx, sub)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.WithdrawalStatusPending, result.Status)
	assert.Equal(t, int64(200000), result.Amount)
	assert.Equal(t, int64(200000), result.NetAmount)
	assert.Equal(t, "****6789", result.BankDetails.AccountNumber, "response carries the masked account number")
	assert.Equal(t, "6789", result.BankDetails.AccountNumberLast4)
}

func TestWithdrawalService_RequestWithdrawal_InvalidAmount(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	sub := validSubmission(uuid.New(), uuid.New())
	sub.Amount = 0

	result, err := d.svc.RequestWithdrawal(context.Background(), sub)
	assert.Nil(t, result)
	assertAppError(t, err, "WDR_003")
}

func TestWithdrawalService_RequestWithdrawal_MissingDocument(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	sub := validSubmission(uuid.New(), uuid.New())
	sub.Documents.BankProof = domain.Document{}

	result, err := d.svc.RequestWithdrawal(context.Background(), sub)
	assert.Nil(t, result)
	assertAppError(t, err, "WDR_004")
}

func TestWithdrawalService_RequestWithdrawal_NotOwner(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	campaignID := uuid.New()
	sub := validSubmission(uuid.New(), campaignID)

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(&domain.Campaign{
		ID:      campaignID,
		OwnerID: uuid.New(),
	}, nil)

	result, err := d.svc.RequestWithdrawal(ctx, sub)
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

func TestWithdrawalService_RequestWithdrawal_CampaignNotFound(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	campaignID := uuid.New()
	sub := validSubmission(uuid.New(), campaignID)

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(nil, nil)

	result, err := d.svc.RequestWithdrawal(ctx, sub)
	assert.Nil(t, result)
	assertAppError(t, err, "RES_001")
}

func TestWithdrawalService_RequestWithdrawal_InsufficientFunds(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizerID := uuid.New()
	campaignID := uuid.New()
	tx := &mockTx{}

	sub := validSubmission(organizerID, campaignID)
	campaign := &domain.Campaign{ID: campaignID, OwnerID: organizerID}

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(campaign, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.campaignRepo.EXPECT().GetByIDForUpdate(ctx, tx, campaignID).Return(campaign, nil)
	// 500000 raised, 450000 already reserved: only 50000 left for a 200000 request
	d.donationRepo.EXPECT().SumCompletedByCampaignTx(ctx, tx, campaignID).Return(int64(500000), nil)
	d.withdrawalRepo.EXPECT().SumByCampaignAndStatusesTx(ctx, tx, campaignID, domain.ReservedStatuses).Return(int64(450000), nil)

	result, err := d.svc.RequestWithdrawal(ctx, sub)
	assert.Nil(t, result)
	assertAppError(t, err, "WDR_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int64(50000), appErr.Details["available"])
	assert.Equal(t, int64(200000), appErr.Details["requested"])
}

func TestWithdrawalService_RequestWithdrawal_IdempotentReplay(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizerID := uuid.New()
	campaignID := uuid.New()

	sub := validSubmission(organizerID, campaignID)
	sub.IdempotencyKey = "submit-once"

	cached := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		CampaignID:  campaignID,
		Amount:      200000,
		Status:      domain.WithdrawalStatusPending,
	}
	cachedJSON, _ := json.Marshal(cached)

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(&domain.Campaign{
		ID: campaignID, OwnerID: organizerID,
	}, nil)
	cacheKey := domain.BuildSubmissionKey(organizerID, "submit-once")
	d.cache.EXPECT().Get(ctx, cacheKey).Return(cachedJSON, nil)

	result, err := d.svc.RequestWithdrawal(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, cached.ID, result.ID, "duplicate submission returns the cached request")
}

// ==================== UpdateStatus Tests ====================

func pendingRequest(amount int64) *domain.WithdrawalRequest {
	w := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		CampaignID:  uuid.New(),
		Status:      domain.WithdrawalStatusPending,
		BankDetails: domain.BankDetails{AccountNumber: "enc_account", AccountNumberLast4: "6789"},
	}
	w.SetAmount(amount)
	return w
}

func expectStatusChangeSideEffects(d *withdrawalTestDeps, w *domain.WithdrawalRequest) {
	d.audit.EXPECT().Log(gomock.Any(), gomock.Any())
	d.userRepo.EXPECT().GetByID(gomock.Any(), w.OrganizerID).Return(&domain.User{
		ID: w.OrganizerID, Name: "Pat", Email: "pat@example.com",
	}, nil)
	d.campaignRepo.EXPECT().GetByID(gomock.Any(), w.CampaignID).Return(&domain.Campaign{
		ID: w.CampaignID, Title: "Clean Water",
	}, nil)
	d.notifier.EXPECT().SendWithdrawalStatusChanged(gomock.Any(), "pat@example.com", "Pat", gomock.Any())
}

func TestWithdrawalService_UpdateStatus_ApproveWithFee(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)
	fee := int64(10000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.withdrawalRepo.EXPECT().UpdateTransition(ctx, w, domain.WithdrawalStatusPending).Return(nil)
	expectStatusChangeSideEffects(d, w)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:       uuid.New(),
		RequestID:     w.ID,
		TargetStatus:  domain.WithdrawalStatusApproved,
		ReviewNotes:   "Documents verified",
		ProcessingFee: &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusApproved, result.Status)
	assert.Equal(t, int64(10000), result.ProcessingFee)
	assert.Equal(t, int64(90000), result.NetAmount)
	assert.Equal(t, "Documents verified", result.ReviewNotes)
}

func TestWithdrawalService_UpdateStatus_RejectWithoutReason(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:      uuid.New(),
		RequestID:    w.ID,
		TargetStatus: domain.WithdrawalStatusRejected,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_001")
	assert.Equal(t, domain.WithdrawalStatusPending, w.Status, "failed rejection leaves the record unchanged")
}

func TestWithdrawalService_UpdateStatus_CompleteWithoutReference(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)
	w.Status = domain.WithdrawalStatusApproved

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:      uuid.New(),
		RequestID:    w.ID,
		TargetStatus: domain.WithdrawalStatusCompleted,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_001")
}

func TestWithdrawalService_UpdateStatus_InvalidTransition(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)
	w.Status = domain.WithdrawalStatusCompleted

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:      uuid.New(),
		RequestID:    w.ID,
		TargetStatus: domain.WithdrawalStatusApproved,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "WDR_002")
}

func TestWithdrawalService_UpdateStatus_LostRace(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.withdrawalRepo.EXPECT().UpdateTransition(ctx, w, domain.WithdrawalStatusPending).Return(ports.ErrStatusConflict)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:      uuid.New(),
		RequestID:    w.ID,
		TargetStatus: domain.WithdrawalStatusUnderReview,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "WDR_002")
}

func TestWithdrawalService_UpdateStatus_NotFound(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	requestID := uuid.New()

	d.withdrawalRepo.EXPECT().GetByID(ctx, requestID).Return(nil, nil)

	result, err := d.svc.UpdateStatus(ctx, ports.ReviewAction{
		AdminID:      uuid.New(),
		RequestID:    requestID,
		TargetStatus: domain.WithdrawalStatusUnderReview,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "RES_001")
}

// ==================== VerifyDocument Tests ====================

func TestWithdrawalService_VerifyDocument(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)
	w.Documents.GovernmentID = domain.Document{URL: "https://files.example.com/gov.pdf", Type: "passport"}

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.withdrawalRepo.EXPECT().UpdateDocuments(ctx, w.ID, gomock.Any()).Return(nil)
	d.audit.EXPECT().Log(gomock.Any(), gomock.Any())

	result, err := d.svc.VerifyDocument(ctx, uuid.New(), w.ID, domain.DocumentGovernmentID, true)
	require.NoError(t, err)
	assert.True(t, result.Documents.GovernmentID.Verified)
}

func TestWithdrawalService_VerifyDocument_Terminal(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)
	w.Status = domain.WithdrawalStatusRejected

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.VerifyDocument(ctx, uuid.New(), w.ID, domain.DocumentGovernmentID, true)
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_001")
}

// ==================== Read Path Tests ====================

func TestWithdrawalService_Get_OwnRequest(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.Get(ctx, w.OrganizerID, domain.RoleOrganizer, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "****6789", result.BankDetails.AccountNumber)
}

func TestWithdrawalService_Get_OtherOrganizerForbidden(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.Get(ctx, uuid.New(), domain.RoleOrganizer, w.ID)
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

func TestWithdrawalService_Get_AdminSeesAny(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	result, err := d.svc.Get(ctx, uuid.New(), domain.RoleAdmin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, result.ID)
}

func TestWithdrawalService_GetAvailableBalance_NotOwner(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	campaignID := uuid.New()

	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(&domain.Campaign{
		ID: campaignID, OwnerID: uuid.New(),
	}, nil)

	result, err := d.svc.GetAvailableBalance(ctx, uuid.New(), campaignID)
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

// ==================== GetDecryptedBankDetails Tests ====================

func TestWithdrawalService_GetDecryptedBankDetails_Audited(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	adminID := uuid.New()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.encSvc.EXPECT().Decrypt("enc_account").Return("123456789", nil)

	var logged *domain.ActivityLog
	d.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, entry *domain.ActivityLog) { logged = entry },
	)

	bd, err := d.svc.GetDecryptedBankDetails(ctx, adminID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456789", bd.AccountNumber)

	require.NotNil(t, logged, "every plaintext access must leave an audit record")
	assert.Equal(t, domain.ActivityBankDetailsViewed, logged.Type)
	assert.Equal(t, adminID, logged.UserID)
}

func TestWithdrawalService_GetDecryptedBankDetails_GenericError(t *testing.T) {
	d := setupWithdrawalService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	w := pendingRequest(100000)

	d.withdrawalRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.encSvc.EXPECT().Decrypt("enc_account").Return("", ErrDecryptionFailed)

	bd, err := d.svc.GetDecryptedBankDetails(ctx, uuid.New(), w.ID)
	assert.Nil(t, bd)
	assertAppError(t, err, "SYS_003")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Could not retrieve sensitive data", appErr.Message)
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
