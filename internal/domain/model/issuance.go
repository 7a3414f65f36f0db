package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// IssuanceRecord is the permanent record of one promo dispense.
// Append-only; never updated or deleted.
type IssuanceRecord struct {
	ID       string
	UserID   string
	Code     string
	IssuedAt time.Time
}

func NewIssuanceRecord(userID, code string, issuedAt time.Time) *IssuanceRecord {
	return &IssuanceRecord{
		ID:       ulid.MustNew(ulid.Timestamp(issuedAt), rand.Reader).String(),
		UserID:   userID,
		Code:     code,
		IssuedAt: issuedAt,
	}
}
