package repository

import (
	"context"
	"time"

	"hostilerust-bot/internal/domain/model"
)

// PromoCodeRepository is the port for the shared promo pool.
type PromoCodeRepository interface {
	// Add inserts a pool entry; duplicate code strings are rejected with
	// domain.ErrAlreadyExists.
	Add(ctx context.Context, tx Tx, code *model.PromoCode) error
	// RemoveByCode deletes by code string; domain.ErrNotFound when absent.
	RemoveByCode(ctx context.Context, tx Tx, code string) error
	ListAll(ctx context.Context, tx Tx) ([]*model.PromoCode, error)
	// PurgeCreatedBefore deletes entries older than the cutoff and returns
	// how many were removed.
	PurgeCreatedBefore(ctx context.Context, tx Tx, cutoff time.Time) (int, error)
	// PickRandom returns one non-expired entry uniformly at random, or
	// domain.ErrPoolExhausted when the pool is empty.
	PickRandom(ctx context.Context, tx Tx) (*model.PromoCode, error)
}

// IssuanceRepository is the append-only issuance ledger.
type IssuanceRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.IssuanceRecord) error
	// ListByUser returns the user's records most-recent-first. An empty
	// slice is a valid "no history yet" result, not an error.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.IssuanceRecord, error)
	CountAll(ctx context.Context, tx Tx) (int, error)
	// CountByUser returns issuance counts keyed by user ID.
	CountByUser(ctx context.Context, tx Tx) (map[string]int, error)
}
