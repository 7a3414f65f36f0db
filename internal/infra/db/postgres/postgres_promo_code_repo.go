package postgres

import (
	"context"
	"errors"
	"fmt"

	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.PromoCodeRepository = (*promoCodeRepo)(nil)

type promoCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPromoCodeRepo(pool *pgxpool.Pool) repository.PromoCodeRepository {
	return &promoCodeRepo{pool: pool}
}

func (r *promoCodeRepo) Add(ctx context.Context, tx repository.Tx, code *model.PromoCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	const q = `INSERT INTO promo_codes (id, code, created_at) VALUES ($1, $2, $3);`
	_, err := execSQL(ctx, r.pool, tx, q, code.ID, code.Code, code.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *promoCodeRepo) RemoveByCode(ctx context.Context, tx repository.Tx, code string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM promo_codes WHERE code=$1;`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *promoCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PromoCode, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, code, created_at FROM promo_codes ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PromoCode
	for rows.Next() {
		var p model.PromoCode
		if err := rows.Scan(&p.ID, &p.Code, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *promoCodeRepo) PurgeCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM promo_codes WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// PickRandom draws one pool entry uniformly. ORDER BY random() is fine for a
// pool that is at most a few hundred rows.
func (r *promoCodeRepo) PickRandom(ctx context.Context, tx repository.Tx) (*model.PromoCode, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, code, created_at FROM promo_codes ORDER BY random() LIMIT 1;`)
	if err != nil {
		return nil, err
	}
	var p model.PromoCode
	if err := row.Scan(&p.ID, &p.Code, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPoolExhausted
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &p, nil
}
