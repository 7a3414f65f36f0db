package model

import (
	"time"

	"hostilerust-bot/internal/domain"

	"github.com/google/uuid"
)

// PromoCode is a pool entry. Draws never consume it: the same code may be
// issued to many users (and to one user again once the rate-limit window
// passes). A code leaves the pool only by admin deletion or by expiry.
type PromoCode struct {
	ID        string
	Code      string
	CreatedAt time.Time
}

func NewPromoCode(code string) (*PromoCode, error) {
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &PromoCode{
		ID:        uuid.NewString(),
		Code:      code,
		CreatedAt: time.Now(),
	}, nil
}

// Expired reports whether the entry is past its shelf life.
func (p *PromoCode) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) > ttl
}
