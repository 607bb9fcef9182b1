package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending     WithdrawalStatus = "pending"
	WithdrawalStatusUnderReview WithdrawalStatus = "under_review"
	WithdrawalStatusApproved    WithdrawalStatus = "approved"
	WithdrawalStatusRejected    WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted   WithdrawalStatus = "completed"
)

// CommittedStatuses are the states whose amounts count against a campaign's
// balance permanently.
var CommittedStatuses = []WithdrawalStatus{
	WithdrawalStatusApproved,
	WithdrawalStatusCompleted,
}

// ReservedStatuses are the states counted at request-creation time: a request
// that is merely pending still reserves funds so that concurrent submissions
// cannot jointly overcommit a campaign.
var ReservedStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusUnderReview,
	WithdrawalStatusApproved,
	WithdrawalStatusCompleted,
}

// State machine errors. The service layer maps these onto API errors.
var (
	ErrInvalidTransition              = errors.New("invalid withdrawal status transition")
	ErrMissingRejectionReason         = errors.New("rejection reason is required")
	ErrMissingTransactionReference    = errors.New("transaction reference is required")
	ErrNegativeProcessingFee          = errors.New("processing fee must not be negative")
	ErrProcessingFeeExceedsAmount     = errors.New("processing fee must not exceed the withdrawal amount")
	ErrUnknownDocumentType            = errors.New("unknown document type")
)

// AccountType is the kind of bank account funds are paid out to.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
	AccountTypeBusiness AccountType = "business"
)

// BankDetails holds payout banking data. AccountNumber, RoutingNumber,
// SwiftCode and IBAN carry ciphertext tokens at rest; only
// AccountNumberLast4 stays in the clear for display.
type BankDetails struct {
	AccountHolderName  string      `json:"account_holder_name"`
	BankName           string      `json:"bank_name"`
	AccountNumber      string      `json:"account_number"`
	AccountNumberLast4 string      `json:"account_number_last4,omitempty"`
	RoutingNumber      *string     `json:"routing_number,omitempty"`
	SwiftCode          *string     `json:"swift_code,omitempty"`
	IBAN               *string     `json:"iban,omitempty"`
	AccountType        AccountType `json:"account_type"`
	BankAddress        string      `json:"bank_address,omitempty"`
	BankCountry        string      `json:"bank_country"`
}

// DocumentType identifies a slot in the KYC document set.
type DocumentType string

const (
	DocumentGovernmentID DocumentType = "governmentId"
	DocumentBankProof    DocumentType = "bankProof"
	DocumentAddressProof DocumentType = "addressProof"
	DocumentTaxDocument  DocumentType = "taxDocument"
)

// Document is an uploaded verification file. The core stores only the URL
// returned by the document storage collaborator.
type Document struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

// DocumentSet groups the KYC documents attached to a withdrawal request.
// GovernmentID, BankProof and AddressProof are required; TaxDocument is not.
type DocumentSet struct {
	GovernmentID Document  `json:"government_id"`
	BankProof    Document  `json:"bank_proof"`
	AddressProof Document  `json:"address_proof"`
	TaxDocument  *Document `json:"tax_document,omitempty"`
}

// Slot returns a pointer to the named document slot, or nil for an unknown
// type. A nil TaxDocument slot is materialized on access so verification can
// toggle it.
func (d *DocumentSet) Slot(t DocumentType) *Document {
	switch t {
	case DocumentGovernmentID:
		return &d.GovernmentID
	case DocumentBankProof:
		return &d.BankProof
	case DocumentAddressProof:
		return &d.AddressProof
	case DocumentTaxDocument:
		if d.TaxDocument == nil {
			return nil
		}
		return d.TaxDocument
	default:
		return nil
	}
}

// Address is a postal address collected for KYC.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// KYCInfo holds identity data collected before funds release.
// TaxID carries a ciphertext token at rest.
type KYCInfo struct {
	FullLegalName string    `json:"full_legal_name"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Nationality   string    `json:"nationality"`
	Address       Address   `json:"address"`
	PhoneNumber   string    `json:"phone_number"`
	TaxID         *string   `json:"tax_id,omitempty"`
}

// WithdrawalRequest is the payout aggregate: an organizer's request to
// withdraw raised funds, reviewed by an admin. Requests are never deleted;
// the record is the financial audit trail.
type WithdrawalRequest struct {
	ID          uuid.UUID        `json:"id"`
	OrganizerID uuid.UUID        `json:"organizer_id"`
	CampaignID  uuid.UUID        `json:"campaign_id"`
	Amount      int64            `json:"amount"` // In cents
	Status      WithdrawalStatus `json:"status"`

	BankDetails BankDetails `json:"bank_details"`
	Documents   DocumentSet `json:"documents"`
	KYCInfo     KYCInfo     `json:"kyc_info"`

	// Admin review
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes     string     `json:"review_notes,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Completion
	TransactionReference string     `json:"transaction_reference,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`

	ProcessingFee int64 `json:"processing_fee"`
	NetAmount     int64 `json:"net_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// transitions is the legal state machine: pending -> under_review ->
// approved -> completed, with rejection possible before approval.
// completed and rejected are terminal.
var transitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusPending:     {WithdrawalStatusUnderReview, WithdrawalStatusApproved, WithdrawalStatusRejected},
	WithdrawalStatusUnderReview: {WithdrawalStatusApproved, WithdrawalStatusRejected},
	WithdrawalStatusApproved:    {WithdrawalStatusCompleted},
	WithdrawalStatusRejected:    {},
	WithdrawalStatusCompleted:   {},
}

// CanTransition reports whether the status change is legal.
func CanTransition(from, to WithdrawalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status changes are possible.
func (w *WithdrawalRequest) IsTerminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusRejected
}

// StartReview moves the request from pending to under_review.
func (w *WithdrawalRequest) StartReview(adminID uuid.UUID, now time.Time) error {
	if !CanTransition(w.Status, WithdrawalStatusUnderReview) {
		return ErrInvalidTransition
	}
	w.Status = WithdrawalStatusUnderReview
	w.ReviewedBy = &adminID
	w.ReviewedAt = &now
	w.UpdatedAt = now
	return nil
}

// Approve clears the request for payout. An optional processing fee may be
// applied at approval time; the net amount is recomputed.
func (w *WithdrawalRequest) Approve(adminID uuid.UUID, notes string, processingFee *int64, now time.Time) error {
	if !CanTransition(w.Status, WithdrawalStatusApproved) {
		return ErrInvalidTransition
	}
	if processingFee != nil {
		if err := w.SetProcessingFee(*processingFee); err != nil {
			return err
		}
	}
	w.Status = WithdrawalStatusApproved
	w.ReviewedBy = &adminID
	w.ReviewedAt = &now
	w.ReviewNotes = notes
	w.UpdatedAt = now
	return nil
}

// Reject declines the request. A rejection reason is mandatory.
func (w *WithdrawalRequest) Reject(adminID uuid.UUID, notes, reason string, now time.Time) error {
	if !CanTransition(w.Status, WithdrawalStatusRejected) {
		return ErrInvalidTransition
	}
	if reason == "" {
		return ErrMissingRejectionReason
	}
	w.Status = WithdrawalStatusRejected
	w.ReviewedBy = &adminID
	w.ReviewedAt = &now
	w.ReviewNotes = notes
	w.RejectionReason = reason
	w.UpdatedAt = now
	return nil
}

// Complete records the executed payout. A transaction reference is mandatory.
func (w *WithdrawalRequest) Complete(transactionReference string, now time.Time) error {
	if !CanTransition(w.Status, WithdrawalStatusCompleted) {
		return ErrInvalidTransition
	}
	if transactionReference == "" {
		return ErrMissingTransactionReference
	}
	w.Status = WithdrawalStatusCompleted
	w.TransactionReference = transactionReference
	w.CompletedAt = &now
	w.UpdatedAt = now
	return nil
}

// SetProcessingFee updates the fee and recomputes the net amount.
// Invariant: NetAmount == Amount - ProcessingFee after every mutation.
func (w *WithdrawalRequest) SetProcessingFee(fee int64) error {
	if fee < 0 {
		return ErrNegativeProcessingFee
	}
	if fee > w.Amount {
		return ErrProcessingFeeExceedsAmount
	}
	w.ProcessingFee = fee
	w.recalcNetAmount()
	return nil
}

// SetAmount updates the requested amount and recomputes the net amount.
func (w *WithdrawalRequest) SetAmount(amount int64) {
	w.Amount = amount
	w.recalcNetAmount()
}

func (w *WithdrawalRequest) recalcNetAmount() {
	w.NetAmount = w.Amount - w.ProcessingFee
}

// VerifyDocument toggles the verified flag on the named document slot.
func (w *WithdrawalRequest) VerifyDocument(t DocumentType, verified bool) error {
	slot := w.Documents.Slot(t)
	if slot == nil {
		return ErrUnknownDocumentType
	}
	slot.Verified = verified
	return nil
}
