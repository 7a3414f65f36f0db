package repository

import (
	"context"
	"time"

	"hostilerust-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// List returns users ordered by join time. offset/limit of 0 means "all".
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	// ListNeverIssued returns users with zero issuance records.
	ListNeverIssued(ctx context.Context, tx Tx) ([]*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	// SetLastIssuedAt conditionally stamps the issuance time: the update only
	// applies when the stored value is still NULL or older than `notAfter`.
	// Returns false when another request won the race.
	SetLastIssuedAt(ctx context.Context, tx Tx, userID string, issuedAt time.Time, notAfter time.Time) (bool, error)
}
