package handler

import (
	"math"
	"strconv"

	"fundflow/internal/adapter/http/dto"
	"fundflow/internal/adapter/http/middleware"
	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
	"fundflow/pkg/apperror"
	"fundflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the admin review endpoints.
type AdminHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(withdrawalSvc ports.WithdrawalService) *AdminHandler {
	return &AdminHandler{withdrawalSvc: withdrawalSvc}
}

// List handles GET /api/v1/admin/withdrawals.
func (h *AdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.WithdrawalListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.WithdrawalStatus(s)
		params.Status = &status
	}

	requests, total, err := h.withdrawalSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(requests))
	for i := range requests {
		items = append(items, toWithdrawalResponse(&requests[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.WithdrawalListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// UpdateStatus handles PATCH /api/v1/admin/withdrawals/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a valid UUID"))
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.withdrawalSvc.UpdateStatus(c.Request.Context(), ports.ReviewAction{
		AdminID:              adminID.(uuid.UUID),
		RequestID:            requestID,
		TargetStatus:         domain.WithdrawalStatus(req.Status),
		ReviewNotes:          req.ReviewNotes,
		RejectionReason:      req.RejectionReason,
		TransactionReference: req.TransactionReference,
		ProcessingFee:        req.ProcessingFee,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWithdrawalResponse(result))
}

// VerifyDocument handles PATCH /api/v1/admin/withdrawals/:id/documents.
func (h *AdminHandler) VerifyDocument(c *gin.Context) {
	adminID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a valid UUID"))
		return
	}

	var req dto.VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.withdrawalSvc.VerifyDocument(
		c.Request.Context(),
		adminID.(uuid.UUID),
		requestID,
		domain.DocumentType(req.DocumentType),
		*req.Verified,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWithdrawalResponse(result))
}

// GetBankDetails handles GET /api/v1/admin/withdrawals/:id/bank-details.
// This is the only endpoint that returns plaintext bank data; every call
// is activity-logged by the service.
func (h *AdminHandler) GetBankDetails(c *gin.Context) {
	adminID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a valid UUID"))
		return
	}

	details, err := h.withdrawalSvc.GetDecryptedBankDetails(c.Request.Context(), adminID.(uuid.UUID), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toBankDetailsResponse(details))
}
