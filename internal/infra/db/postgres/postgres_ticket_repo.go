package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
)

var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) repository.TicketRepository {
	return &ticketRepo{pool: pool}
}

func (r *ticketRepo) Save(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	const q = `
INSERT INTO tickets (id, user_id, telegram_id, first_name, username, question, status, answer, created_at, answered_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  answer = EXCLUDED.answer,
  answered_at = EXCLUDED.answered_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.TelegramID, t.FirstName, t.Username, t.Question, string(t.Status), t.Answer, t.CreatedAt, t.AnsweredAt,
	)
	return err
}

const ticketColumns = `id, user_id, telegram_id, first_name, username, question, status, answer, created_at, answered_at`

func (r *ticketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var t model.Ticket
	var status string
	if err := row.Scan(&t.ID, &t.UserID, &t.TelegramID, &t.FirstName, &t.Username, &t.Question, &status, &t.Answer, &t.CreatedAt, &t.AnsweredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	t.Status = model.TicketStatus(status)
	return &t, nil
}

func (r *ticketRepo) ListOpen(ctx context.Context, tx repository.Tx) ([]*model.Ticket, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+ticketColumns+` FROM tickets WHERE status='open' ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Ticket
	for rows.Next() {
		var t model.Ticket
		var status string
		if err := rows.Scan(&t.ID, &t.UserID, &t.TelegramID, &t.FirstName, &t.Username, &t.Question, &status, &t.Answer, &t.CreatedAt, &t.AnsweredAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		t.Status = model.TicketStatus(status)
		out = append(out, &t)
	}
	return out, rows.Err()
}
