package handler

import (
	"time"

	"fundflow/internal/adapter/http/dto"
	"fundflow/internal/adapter/http/middleware"
	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
	"fundflow/pkg/apperror"
	"fundflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles the organizer-facing withdrawal endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req.BankDetails)
	dto.SanitizeStruct(&req.KYCInfo)

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		response.Error(c, apperror.Validation("campaign_id must be a valid UUID"))
		return
	}

	dob, err := time.Parse("2006-01-02", req.KYCInfo.DateOfBirth)
	if err != nil {
		response.Error(c, apperror.Validation("date_of_birth must use the YYYY-MM-DD layout"))
		return
	}

	sub := ports.WithdrawalSubmission{
		OrganizerID:    userID.(uuid.UUID),
		CampaignID:     campaignID,
		Amount:         req.Amount,
		BankDetails:    toDomainBankDetails(req.BankDetails),
		Documents:      toDomainDocumentSet(req.Documents),
		KYCInfo:        toDomainKYCInfo(req.KYCInfo, dob),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	result, err := h.withdrawalSvc.RequestWithdrawal(c.Request.Context(), sub)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWithdrawalResponse(result))
}

// GetBalance handles GET /api/v1/withdrawals/balance/:campaignId.
func (h *WithdrawalHandler) GetBalance(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	campaignID, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		response.Error(c, apperror.Validation("campaignId must be a valid UUID"))
		return
	}

	balance, err := h.withdrawalSvc.GetAvailableBalance(c.Request.Context(), userID.(uuid.UUID), campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		CampaignID:       balance.CampaignID.String(),
		TotalRaised:      balance.TotalRaised,
		TotalWithdrawn:   balance.TotalWithdrawn,
		AvailableBalance: balance.Available,
	})
}

// ListMine handles GET /api/v1/withdrawals/mine.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requests, err := h.withdrawalSvc.ListForOrganizer(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(requests))
	for i := range requests {
		items = append(items, toWithdrawalResponse(&requests[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/withdrawals/:id.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	role, ok := c.Get(middleware.CtxUserRole)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a valid UUID"))
		return
	}

	result, err := h.withdrawalSvc.Get(c.Request.Context(), userID.(uuid.UUID), role.(domain.Role), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWithdrawalResponse(result))
}

// --- DTO conversion ---

func toDomainBankDetails(req dto.BankDetailsRequest) domain.BankDetails {
	return domain.BankDetails{
		AccountHolderName: req.AccountHolderName,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		RoutingNumber:     req.RoutingNumber,
		SwiftCode:         req.SwiftCode,
		IBAN:              req.IBAN,
		AccountType:       domain.AccountType(req.AccountType),
		BankAddress:       req.BankAddress,
		BankCountry:       req.BankCountry,
	}
}

func toDomainDocumentSet(req dto.DocumentSetRequest) domain.DocumentSet {
	set := domain.DocumentSet{
		GovernmentID: domain.Document{URL: req.GovernmentID.URL, Type: req.GovernmentID.Type},
		BankProof:    domain.Document{URL: req.BankProof.URL, Type: req.BankProof.Type},
		AddressProof: domain.Document{URL: req.AddressProof.URL, Type: req.AddressProof.Type},
	}
	if req.TaxDocument != nil {
		set.TaxDocument = &domain.Document{URL: req.TaxDocument.URL, Type: req.TaxDocument.Type}
	}
	return set
}

func toDomainKYCInfo(req dto.KYCInfoRequest, dob time.Time) domain.KYCInfo {
	return domain.KYCInfo{
		FullLegalName: req.FullLegalName,
		DateOfBirth:   dob,
		Nationality:   req.Nationality,
		Address: domain.Address{
			Street:     req.Address.Street,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		PhoneNumber: req.PhoneNumber,
		TaxID:       req.TaxID,
	}
}

func toBankDetailsResponse(bd *domain.BankDetails) dto.BankDetailsResponse {
	return dto.BankDetailsResponse{
		AccountHolderName:  bd.AccountHolderName,
		BankName:           bd.BankName,
		AccountNumber:      bd.AccountNumber,
		AccountNumberLast4: bd.AccountNumberLast4,
		RoutingNumber:      bd.RoutingNumber,
		SwiftCode:          bd.SwiftCode,
		IBAN:               bd.IBAN,
		AccountType:        string(bd.AccountType),
		BankAddress:        bd.BankAddress,
		BankCountry:        bd.BankCountry,
	}
}

func toDocumentResponse(d domain.Document) dto.DocumentResponse {
	return dto.DocumentResponse{URL: d.URL, Type: d.Type, Verified: d.Verified}
}

func toDocumentSetResponse(docs *domain.DocumentSet) dto.DocumentSetResponse {
	resp := dto.DocumentSetResponse{
		GovernmentID: toDocumentResponse(docs.GovernmentID),
		BankProof:    toDocumentResponse(docs.BankProof),
		AddressProof: toDocumentResponse(docs.AddressProof),
	}
	if docs.TaxDocument != nil {
		d := toDocumentResponse(*docs.TaxDocument)
		resp.TaxDocument = &d
	}
	return resp
}

// toWithdrawalResponse converts domain.WithdrawalRequest to its DTO. KYC
// data is never included in API responses.
func toWithdrawalResponse(w *domain.WithdrawalRequest) dto.WithdrawalResponse {
	resp := dto.WithdrawalResponse{
		ID:                   w.ID.String(),
		OrganizerID:          w.OrganizerID.String(),
		CampaignID:           w.CampaignID.String(),
		Amount:               w.Amount,
		Status:               string(w.Status),
		BankDetails:          toBankDetailsResponse(&w.BankDetails),
		Documents:            toDocumentSetResponse(&w.Documents),
		ReviewNotes:          w.ReviewNotes,
		RejectionReason:      w.RejectionReason,
		TransactionReference: w.TransactionReference,
		ProcessingFee:        w.ProcessingFee,
		NetAmount:            w.NetAmount,
		CreatedAt:            w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            w.UpdatedAt.Format(time.RFC3339),
	}
	if w.ReviewedBy != nil {
		s := w.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	if w.ReviewedAt != nil {
		s := w.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	if w.CompletedAt != nil {
		s := w.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}
