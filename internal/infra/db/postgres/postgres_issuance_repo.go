package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
)

var _ repository.IssuanceRepository = (*issuanceRepo)(nil)

type issuanceRepo struct {
	pool *pgxpool.Pool
}

func NewIssuanceRepo(pool *pgxpool.Pool) repository.IssuanceRepository {
	return &issuanceRepo{pool: pool}
}

func (r *issuanceRepo) Append(ctx context.Context, tx repository.Tx, rec *model.IssuanceRecord) error {
	const q = `INSERT INTO promo_history (id, user_id, code, issued_at) VALUES ($1, $2, $3, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.UserID, rec.Code, rec.IssuedAt)
	return err
}

func (r *issuanceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.IssuanceRecord, error) {
	const q = `
SELECT id, user_id, code, issued_at
  FROM promo_history
 WHERE user_id = $1
 ORDER BY issued_at DESC;
`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.IssuanceRecord
	for rows.Next() {
		var rec model.IssuanceRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Code, &rec.IssuedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *issuanceRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM promo_history;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count issuances: %w", err)
	}
	return n, nil
}

func (r *issuanceRepo) CountByUser(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT user_id, COUNT(*) FROM promo_history GROUP BY user_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
