package repository

import (
	"context"

	"hostilerust-bot/internal/domain/model"
)

// TicketRepository is the port for support tickets.
type TicketRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Ticket) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Ticket, error)
	ListOpen(ctx context.Context, tx Tx) ([]*model.Ticket, error)
}
