package dto

// BankDetailsRequest carries plaintext payout banking data on submission.
type BankDetailsRequest struct {
	AccountHolderName string  `json:"account_holder_name" binding:"required,min=1,max=100"`
	BankName          string  `json:"bank_name" binding:"required,min=1,max=100"`
	AccountNumber     string  `json:"account_number" binding:"required,min=4,max=34"`
	RoutingNumber     *string `json:"routing_number,omitempty"`
	SwiftCode         *string `json:"swift_code,omitempty"`
	IBAN              *string `json:"iban,omitempty"`
	AccountType       string  `json:"account_type" binding:"required,oneof=savings checking business"`
	BankAddress       string  `json:"bank_address,omitempty"`
	BankCountry       string  `json:"bank_country" binding:"required,len=2"`
}

// DocumentRequest is one uploaded verification file reference.
type DocumentRequest struct {
	URL  string `json:"url" binding:"required,safe_url,max=2048"`
	Type string `json:"type" binding:"required,max=50"`
}

// DocumentSetRequest groups the KYC documents attached to a submission.
// The tax document is optional.
type DocumentSetRequest struct {
	GovernmentID DocumentRequest  `json:"government_id" binding:"required"`
	BankProof    DocumentRequest  `json:"bank_proof" binding:"required"`
	AddressProof DocumentRequest  `json:"address_proof" binding:"required"`
	TaxDocument  *DocumentRequest `json:"tax_document,omitempty"`
}

// AddressRequest is the KYC postal address.
type AddressRequest struct {
	Street     string `json:"street" binding:"required,max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
}

// KYCInfoRequest carries identity data collected before funds release.
// DateOfBirth uses the YYYY-MM-DD layout.
type KYCInfoRequest struct {
	FullLegalName string         `json:"full_legal_name" binding:"required,min=1,max=200"`
	DateOfBirth   string         `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Nationality   string         `json:"nationality" binding:"required,len=2"`
	Address       AddressRequest `json:"address" binding:"required"`
	PhoneNumber   string         `json:"phone_number" binding:"required,max=30"`
	TaxID         *string        `json:"tax_id,omitempty"`
}

// CreateWithdrawalRequest is the request body for submitting a withdrawal.
type CreateWithdrawalRequest struct {
	CampaignID  string             `json:"campaign_id" binding:"required,uuid"`
	Amount      int64              `json:"amount" binding:"required,gt=0"`
	BankDetails BankDetailsRequest `json:"bank_details" binding:"required"`
	Documents   DocumentSetRequest `json:"documents" binding:"required"`
	KYCInfo     KYCInfoRequest     `json:"kyc_info" binding:"required"`
}

// UpdateStatusRequest is the admin request body for a status transition.
type UpdateStatusRequest struct {
	Status               string `json:"status" binding:"required,oneof=under_review approved rejected completed"`
	ReviewNotes          string `json:"review_notes,omitempty"`
	RejectionReason      string `json:"rejection_reason,omitempty"`
	TransactionReference string `json:"transaction_reference,omitempty" binding:"omitempty,safe_id,max=100"`
	ProcessingFee        *int64 `json:"processing_fee,omitempty"`
}

// VerifyDocumentRequest toggles the verified flag on one document slot.
type VerifyDocumentRequest struct {
	DocumentType string `json:"document_type" binding:"required,oneof=governmentId bankProof addressProof taxDocument"`
	Verified     *bool  `json:"verified" binding:"required"`
}

// BankDetailsResponse mirrors BankDetails for API responses. Sensitive
// fields are masked except on the dedicated decrypted admin view.
type BankDetailsResponse struct {
	AccountHolderName  string  `json:"account_holder_name"`
	BankName           string  `json:"bank_name"`
	AccountNumber      string  `json:"account_number"`
	AccountNumberLast4 string  `json:"account_number_last4,omitempty"`
	RoutingNumber      *string `json:"routing_number,omitempty"`
	SwiftCode          *string `json:"swift_code,omitempty"`
	IBAN               *string `json:"iban,omitempty"`
	AccountType        string  `json:"account_type"`
	BankAddress        string  `json:"bank_address,omitempty"`
	BankCountry        string  `json:"bank_country"`
}

// DocumentResponse is one document slot in a response.
type DocumentResponse struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

// DocumentSetResponse groups document slots in a response.
type DocumentSetResponse struct {
	GovernmentID DocumentResponse  `json:"government_id"`
	BankProof    DocumentResponse  `json:"bank_proof"`
	AddressProof DocumentResponse  `json:"address_proof"`
	TaxDocument  *DocumentResponse `json:"tax_document,omitempty"`
}

// WithdrawalResponse is the API view of a withdrawal request.
type WithdrawalResponse struct {
	ID          string              `json:"id"`
	OrganizerID string              `json:"organizer_id"`
	CampaignID  string              `json:"campaign_id"`
	Amount      int64               `json:"amount"`
	Status      string              `json:"status"`
	BankDetails BankDetailsResponse `json:"bank_details"`
	Documents   DocumentSetResponse `json:"documents"`

	ReviewedBy      *string `json:"reviewed_by,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	ReviewNotes     string  `json:"review_notes,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`

	TransactionReference string  `json:"transaction_reference,omitempty"`
	CompletedAt          *string `json:"completed_at,omitempty"`

	ProcessingFee int64 `json:"processing_fee"`
	NetAmount     int64 `json:"net_amount"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse is the ledger view of a campaign's withdrawable funds.
type BalanceResponse struct {
	CampaignID       string `json:"campaign_id"`
	TotalRaised      int64  `json:"total_raised"`
	TotalWithdrawn   int64  `json:"total_withdrawn"`
	AvailableBalance int64  `json:"available_balance"`
}

// WithdrawalListResponse wraps the paginated admin listing.
type WithdrawalListResponse struct {
	Items      []WithdrawalResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}
