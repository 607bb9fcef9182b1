package domain

import (
	"github.com/google/uuid"
)

// BuildSubmissionKey constructs the cache key guarding duplicate withdrawal
// submissions. clientKey is the caller-supplied Idempotency-Key header.
func BuildSubmissionKey(organizerID uuid.UUID, clientKey string) string {
	return "withdrawal:" + organizerID.String() + ":" + clientKey
}
