package usecase

import (
	"context"

	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// BotStats is the aggregate snapshot shown in the admin panel.
type BotStats struct {
	TotalUsers     int
	TotalIssued    int
	PoolSize       int
	MostActive     *model.User // nil when nobody received a code yet
	MostActiveUses int
}

type StatsUseCase interface {
	Collect(ctx context.Context) (*BotStats, error)
}

type statsUC struct {
	users   repository.UserRepository
	history repository.IssuanceRepository
	pool    repository.PromoCodeRepository
	log     *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	history repository.IssuanceRepository,
	pool repository.PromoCodeRepository,
	logger *zerolog.Logger,
) *statsUC {
	return &statsUC{users: users, history: history, pool: pool, log: logger}
}

func (s *statsUC) Collect(ctx context.Context) (*BotStats, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Collect")()

	out := &BotStats{}
	var err error
	if out.TotalUsers, err = s.users.CountUsers(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if out.TotalIssued, err = s.history.CountAll(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	codes, err := s.pool.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out.PoolSize = len(codes)

	counts, err := s.history.CountByUser(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	var topID string
	for id, n := range counts {
		if n > out.MostActiveUses || (n == out.MostActiveUses && id < topID) {
			topID, out.MostActiveUses = id, n
		}
	}
	if topID != "" {
		u, err := s.users.FindByID(ctx, repository.NoTX, topID)
		if err == nil {
			out.MostActive = u
		}
	}
	return out, nil
}
