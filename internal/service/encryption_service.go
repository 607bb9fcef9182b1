package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	ivLength  = 16 // bytes, fresh random IV per encryption
	tagLength = 16 // bytes, GCM authentication tag

	// scrypt parameters for stretching the configured secret into a key.
	kdfSalt = "fundflow-field-encryption"
	kdfN    = 32768
	kdfR    = 8
	kdfP    = 1
	keyLen  = 32 // AES-256
)

// Decryption failure modes. Callers map these onto a generic client-facing
// error; the distinction matters only for logs and tests.
var (
	ErrMissingEncryptionKey = errors.New("encryption secret must not be empty")
	ErrMalformedCiphertext  = errors.New("malformed ciphertext token")
	ErrDecryptionFailed     = errors.New("decryption failed")
)

// AESFieldCipher implements ports.EncryptionService using AES-256-GCM.
// Tokens are self-describing: iv:tag:ciphertext, hex-encoded segments.
type AESFieldCipher struct {
	key []byte
}

// NewAESFieldCipher derives a 32-byte key from the configured secret via
// scrypt. An empty secret is a configuration error: there is no fallback
// key, a deployment without a secret must not start.
func NewAESFieldCipher(secret string) (*AESFieldCipher, error) {
	if secret == "" {
		return nil, ErrMissingEncryptionKey
	}
	key, err := scrypt.Key([]byte(secret), []byte(kdfSalt), kdfN, kdfR, kdfP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}
	return &AESFieldCipher{key: key}, nil
}

// Encrypt produces an iv:tag:ciphertext token with a fresh random IV.
// Empty input is a no-op and returns empty.
func (s *AESFieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aesGCM, err := s.newGCM()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	// Seal appends the tag to the ciphertext; split it back out so the
	// token keeps the iv:tag:ciphertext layout.
	sealed := aesGCM.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt parses an iv:tag:ciphertext token and verifies the tag.
// Empty input is a no-op and returns empty.
func (s *AESFieldCipher) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedCiphertext, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivLength {
		return "", fmt.Errorf("%w: bad iv segment", ErrMalformedCiphertext)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagLength {
		return "", fmt.Errorf("%w: bad tag segment", ErrMalformedCiphertext)
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext segment", ErrMalformedCiphertext)
	}

	aesGCM, err := s.newGCM()
	if err != nil {
		return "", err
	}

	plaintext, err := aesGCM.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

// Mask replaces all but the last visible characters with '*'.
// Values no longer than visible are returned unchanged.
func (s *AESFieldCipher) Mask(value string, visible int) string {
	if len(value) <= visible {
		return value
	}
	return strings.Repeat("*", len(value)-visible) + value[len(value)-visible:]
}

func (s *AESFieldCipher) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aesGCM, nil
}
