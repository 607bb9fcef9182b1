package service

import (
	"testing"

	"fundflow/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCrypto(t *testing.T) *WithdrawalCrypto {
	t.Helper()
	cipher, err := NewAESFieldCipher("test-encryption-secret")
	require.NoError(t, err)
	return NewWithdrawalCrypto(cipher)
}

func strPtr(s string) *string { return &s }

func TestWithdrawalCrypto_EncryptRequest(t *testing.T) {
	c := newTestCrypto(t)

	w := &domain.WithdrawalRequest{
		BankDetails: domain.BankDetails{
			AccountHolderName: "Pat Doe",
			AccountNumber:     "123456789",
			RoutingNumber:     strPtr("021000021"),
			IBAN:              strPtr("DE89370400440532013000"),
		},
		KYCInfo: domain.KYCInfo{
			FullLegalName: "Patricia Doe",
			TaxID:         strPtr("987-65-4321"),
		},
	}

	require.NoError(t, c.EncryptRequest(w))

	assert.Equal(t, "6789", w.BankDetails.AccountNumberLast4)
	assert.NotEqual(t, "123456789", w.BankDetails.AccountNumber)
	assert.NotEqual(t, "021000021", *w.BankDetails.RoutingNumber)
	assert.NotEqual(t, "DE89370400440532013000", *w.BankDetails.IBAN)
	assert.Nil(t, w.BankDetails.SwiftCode, "absent fields stay absent")
	assert.NotEqual(t, "987-65-4321", *w.KYCInfo.TaxID)

	// Cleartext fields are untouched
	assert.Equal(t, "Pat Doe", w.BankDetails.AccountHolderName)
	assert.Equal(t, "Patricia Doe", w.KYCInfo.FullLegalName)
}

func TestWithdrawalCrypto_RoundTrip(t *testing.T) {
	c := newTestCrypto(t)

	w := &domain.WithdrawalRequest{
		BankDetails: domain.BankDetails{
			AccountNumber: "123456789",
			SwiftCode:     strPtr("BOFAUS3N"),
		},
	}
	require.NoError(t, c.EncryptRequest(w))

	bd, err := c.DecryptBankDetails(w.BankDetails)
	require.NoError(t, err)
	assert.Equal(t, "123456789", bd.AccountNumber)
	assert.Equal(t, "BOFAUS3N", *bd.SwiftCode)

	// Stored copy keeps ciphertext
	assert.NotEqual(t, "123456789", w.BankDetails.AccountNumber)
}

func TestWithdrawalCrypto_ShortAccountNumber(t *testing.T) {
	c := newTestCrypto(t)

	w := &domain.WithdrawalRequest{
		BankDetails: domain.BankDetails{AccountNumber: "12"},
	}
	require.NoError(t, c.EncryptRequest(w))
	assert.Equal(t, "12", w.BankDetails.AccountNumberLast4)
}

func TestWithdrawalCrypto_MaskBankDetails(t *testing.T) {
	c := newTestCrypto(t)

	bd := domain.BankDetails{
		AccountHolderName:  "Pat Doe",
		AccountNumber:      "aabbcc:ddeeff:001122",
		AccountNumberLast4: "6789",
		RoutingNumber:      strPtr("some-ciphertext"),
	}

	masked := c.MaskBankDetails(bd)
	assert.Equal(t, "****6789", masked.AccountNumber)
	assert.Equal(t, "****", *masked.RoutingNumber)
	assert.Nil(t, masked.IBAN)
	assert.Equal(t, "Pat Doe", masked.AccountHolderName)
}

func TestWithdrawalCrypto_DecryptTamperedFails(t *testing.T) {
	c := newTestCrypto(t)

	w := &domain.WithdrawalRequest{
		BankDetails: domain.BankDetails{AccountNumber: "123456789"},
	}
	require.NoError(t, c.EncryptRequest(w))

	w.BankDetails.AccountNumber = "not-a-valid-token"
	_, err := c.DecryptBankDetails(w.BankDetails)
	assert.Error(t, err)
}
