package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, telegram_id, first_name, username, joined_at, last_issued_at, is_admin)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, first_name=$3, username=$4, last_issued_at=$6, is_admin=$7;
`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.TelegramID, u.FirstName, u.Username, u.JoinedAt, u.LastIssuedAt, u.IsAdmin)
	return err
}

const userColumns = `id, telegram_id, first_name, username, joined_at, last_issued_at, is_admin`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Username, &u.JoinedAt, &u.LastIssuedAt, &u.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, tgID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY joined_at`
	args := []interface{}{}
	if limit > 0 {
		q += ` OFFSET $1 LIMIT $2`
		args = append(args, offset, limit)
	}
	rows, err := queryRows(ctx, r.pool, tx, q+`;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *PostgresUserRepo) ListNeverIssued(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	const q = `
SELECT ` + userColumns + `
  FROM users u
 WHERE NOT EXISTS (SELECT 1 FROM promo_history h WHERE h.user_id = u.id)
 ORDER BY joined_at;
`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Username, &u.JoinedAt, &u.LastIssuedAt, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SetLastIssuedAt stamps the issuance time only when the stored value is still
// NULL or not newer than notAfter. The conditional UPDATE is the storage-level
// guard against two concurrent requests both passing the eligibility check.
func (r *PostgresUserRepo) SetLastIssuedAt(ctx context.Context, tx repository.Tx, userID string, issuedAt, notAfter time.Time) (bool, error) {
	const q = `
UPDATE users SET last_issued_at=$2
 WHERE id=$1 AND (last_issued_at IS NULL OR last_issued_at <= $3);
`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, issuedAt, notAfter)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
