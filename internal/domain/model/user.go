package model

import (
	"time"

	"hostilerust-bot/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user known to the bot.
// A row is created on first /start and never deleted.
type User struct {
	ID           string
	TelegramID   int64
	FirstName    string
	Username     string // optional, "" when the account has no @handle
	JoinedAt     time.Time
	LastIssuedAt *time.Time // nil until the first successful promo issuance
	IsAdmin      bool
}

func NewUser(id string, tgID int64, firstName, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:         id,
		TelegramID: tgID,
		FirstName:  firstName,
		Username:   username,
		JoinedAt:   time.Now(),
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// CanReceivePromo reports whether the rolling rate-limit window has elapsed.
func (u *User) CanReceivePromo(now time.Time, window time.Duration) bool {
	if u.LastIssuedAt == nil {
		return true
	}
	return now.Sub(*u.LastIssuedAt) >= window
}
