package service

import (
	"fmt"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"
)

// WithdrawalCrypto applies field-level encryption to the sensitive parts
// of a withdrawal request before it reaches storage, and produces the
// decrypted and masked views served back out. Only account number, routing
// number, SWIFT code, IBAN and tax ID are ever encrypted; everything else
// on the aggregate stays cleartext.
type WithdrawalCrypto struct {
	cipher ports.EncryptionService
}

// NewWithdrawalCrypto creates a new WithdrawalCrypto.
func NewWithdrawalCrypto(cipher ports.EncryptionService) *WithdrawalCrypto {
	return &WithdrawalCrypto{cipher: cipher}
}

// EncryptRequest encrypts the sensitive fields of w in place. The account
// number's last four digits are captured before encryption so the masked
// view never needs a decrypt. Absent optional fields are left untouched.
func (c *WithdrawalCrypto) EncryptRequest(w *domain.WithdrawalRequest) error {
	if w.BankDetails.AccountNumber != "" {
		plain := w.BankDetails.AccountNumber
		if len(plain) >= 4 {
			w.BankDetails.AccountNumberLast4 = plain[len(plain)-4:]
		} else {
			w.BankDetails.AccountNumberLast4 = plain
		}
		ct, err := c.cipher.Encrypt(plain)
		if err != nil {
			return fmt.Errorf("encrypt account number: %w", err)
		}
		w.BankDetails.AccountNumber = ct
	}

	if err := c.encryptOptional(w.BankDetails.RoutingNumber, "routing number"); err != nil {
		return err
	}
	if err := c.encryptOptional(w.BankDetails.SwiftCode, "swift code"); err != nil {
		return err
	}
	if err := c.encryptOptional(w.BankDetails.IBAN, "iban"); err != nil {
		return err
	}
	if err := c.encryptOptional(w.KYCInfo.TaxID, "tax id"); err != nil {
		return err
	}

	return nil
}

func (c *WithdrawalCrypto) encryptOptional(field *string, name string) error {
	if field == nil || *field == "" {
		return nil
	}
	ct, err := c.cipher.Encrypt(*field)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", name, err)
	}
	*field = ct
	return nil
}

// DecryptBankDetails returns a copy of the stored bank details with every
// encrypted field restored to cleartext. The stored aggregate is not
// modified.
func (c *WithdrawalCrypto) DecryptBankDetails(bd domain.BankDetails) (domain.BankDetails, error) {
	out := bd

	plain, err := c.cipher.Decrypt(bd.AccountNumber)
	if err != nil {
		return domain.BankDetails{}, fmt.Errorf("decrypt account number: %w", err)
	}
	out.AccountNumber = plain

	if out.RoutingNumber, err = c.decryptOptional(bd.RoutingNumber, "routing number"); err != nil {
		return domain.BankDetails{}, err
	}
	if out.SwiftCode, err = c.decryptOptional(bd.SwiftCode, "swift code"); err != nil {
		return domain.BankDetails{}, err
	}
	if out.IBAN, err = c.decryptOptional(bd.IBAN, "iban"); err != nil {
		return domain.BankDetails{}, err
	}

	return out, nil
}

func (c *WithdrawalCrypto) decryptOptional(field *string, name string) (*string, error) {
	if field == nil || *field == "" {
		return field, nil
	}
	plain, err := c.cipher.Decrypt(*field)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", name, err)
	}
	return &plain, nil
}

// MaskBankDetails builds the masked view served to organizers and in list
// responses. It relies only on the cleartext last-four digits, so it works
// without touching ciphertext and never fails.
func (c *WithdrawalCrypto) MaskBankDetails(bd domain.BankDetails) domain.BankDetails {
	masked := "****"
	out := bd
	out.AccountNumber = "****" + bd.AccountNumberLast4
	if bd.RoutingNumber != nil {
		out.RoutingNumber = &masked
	}
	if bd.SwiftCode != nil {
		out.SwiftCode = &masked
	}
	if bd.IBAN != nil {
		out.IBAN = &masked
	}
	return out
}
