package model

import (
	"crypto/rand"
	"time"

	"hostilerust-bot/internal/domain"

	"github.com/oklog/ulid/v2"
)

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketAnswered TicketStatus = "answered"
)

// Ticket is a support question submitted by a user. Tickets transition
// open -> answered exactly once and are never deleted.
type Ticket struct {
	ID         string
	UserID     string
	TelegramID int64
	FirstName  string
	Username   string
	Question   string
	Status     TicketStatus
	Answer     string
	CreatedAt  time.Time
	AnsweredAt *time.Time
}

func NewTicket(userID string, tgID int64, firstName, username, question string) (*Ticket, error) {
	if userID == "" || question == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Ticket{
		ID:         ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:     userID,
		TelegramID: tgID,
		FirstName:  firstName,
		Username:   username,
		Question:   question,
		Status:     TicketOpen,
		CreatedAt:  now,
	}, nil
}

// MarkAnswered transitions the ticket to answered. Answering an already
// answered ticket is rejected so two admins cannot race on one ticket.
func (t *Ticket) MarkAnswered(answer string, at time.Time) error {
	if t.Status == TicketAnswered {
		return domain.ErrAlreadyExists
	}
	if answer == "" {
		return domain.ErrInvalidArgument
	}
	t.Status = TicketAnswered
	t.Answer = answer
	t.AnsweredAt = &at
	return nil
}
