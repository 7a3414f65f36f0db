//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/usecase"
)

// --- Mock Use Cases ---

type mockStatsUC struct {
	Stats      *usecase.BotStats
	CollectErr error
}

var _ usecase.StatsUseCase = (*mockStatsUC)(nil)

func (m *mockStatsUC) Collect(ctx context.Context) (*usecase.BotStats, error) {
	if m.CollectErr != nil {
		return nil, m.CollectErr
	}
	if m.Stats != nil {
		return m.Stats, nil
	}
	return &usecase.BotStats{}, nil
}

type mockUserUC struct {
	Users   []*model.User
	ListErr error
}

var _ usecase.UserUseCase = (*mockUserUC)(nil)

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, firstName, username string) (*model.User, error) {
	return nil, domain.ErrInvalidArgument
}

func (m *mockUserUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserUC) List(ctx context.Context) ([]*model.User, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Users, nil
}

func (m *mockUserUC) Count(ctx context.Context) (int, error) {
	return len(m.Users), nil
}

type mockPromoUC struct {
	Codes     []*model.PromoCode
	AddErr    error
	RemoveErr error
	Added     []string
	Removed   []string
}

var _ usecase.PromoUseCase = (*mockPromoUC)(nil)

func (m *mockPromoUC) RequestCode(ctx context.Context, tgID int64) (string, error) {
	return "", domain.ErrPoolExhausted
}

func (m *mockPromoUC) History(ctx context.Context, tgID int64) ([]*model.IssuanceRecord, error) {
	return nil, nil
}

func (m *mockPromoUC) AddCode(ctx context.Context, code string) (*model.PromoCode, error) {
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	pc, err := model.NewPromoCode(code)
	if err != nil {
		return nil, err
	}
	m.Added = append(m.Added, code)
	return pc, nil
}

func (m *mockPromoUC) RemoveCode(ctx context.Context, code string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, code)
	return nil
}

func (m *mockPromoUC) ListCodes(ctx context.Context) ([]*model.PromoCode, error) {
	return m.Codes, nil
}

func (m *mockPromoUC) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// --- Helpers ---

func newTestServer(statsUC usecase.StatsUseCase, userUC usecase.UserUseCase, promoUC usecase.PromoUseCase, checks map[string]HealthCheck) *Server {
	logger := zerolog.New(io.Discard)
	cfg := &config.WebConfig{
		Port:      0,
		APIKey:    "test-api-key",
		JWTSecret: "test-jwt-secret",
		TokenTTL:  time.Hour,
	}
	return NewServer(cfg, statsUC, userUC, promoUC, checks, &logger)
}
