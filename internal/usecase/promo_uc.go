package usecase

import (
	"context"
	"errors"
	"time"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/infra/logging"
	"hostilerust-bot/internal/infra/metrics"
	red "hostilerust-bot/internal/infra/redis"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ PromoUseCase = (*promoUC)(nil)

// PromoUseCase gate-keeps promo-code distribution and keeps the history.
type PromoUseCase interface {
	// RequestCode dispenses one code to the user, at most once per
	// rate-limit window. Fails with domain.ErrRateLimited or
	// domain.ErrPoolExhausted without mutating any state.
	RequestCode(ctx context.Context, tgID int64) (string, error)
	// History returns the user's issuance records, most recent first.
	History(ctx context.Context, tgID int64) ([]*model.IssuanceRecord, error)
	AddCode(ctx context.Context, code string) (*model.PromoCode, error)
	RemoveCode(ctx context.Context, code string) error
	ListCodes(ctx context.Context) ([]*model.PromoCode, error)
	// PurgeExpired removes pool entries past the expiry window. It also runs
	// lazily inside every RequestCode.
	PurgeExpired(ctx context.Context) (int, error)
}

type promoUC struct {
	users       repository.UserRepository
	pool        repository.PromoCodeRepository
	history     repository.IssuanceRepository
	tm          repository.TransactionManager
	locker      red.Locker
	rateWindow  time.Duration
	expiryAfter time.Duration
	log         *zerolog.Logger
}

func NewPromoUseCase(
	users repository.UserRepository,
	pool repository.PromoCodeRepository,
	history repository.IssuanceRepository,
	tm repository.TransactionManager,
	locker red.Locker,
	rateWindow, expiryAfter time.Duration,
	logger *zerolog.Logger,
) *promoUC {
	return &promoUC{
		users:       users,
		pool:        pool,
		history:     history,
		tm:          tm,
		locker:      locker,
		rateWindow:  rateWindow,
		expiryAfter: expiryAfter,
		log:         logger,
	}
}

func (p *promoUC) RequestCode(ctx context.Context, tgID int64) (string, error) {
	defer logging.TraceDuration(p.log, "PromoUC.RequestCode")()

	// Serialize per user: without the lock two concurrent requests could
	// both pass the eligibility check before either writes last_issued_at.
	token, err := p.locker.TryLock(ctx, red.IssuanceLockKey(tgID), 10*time.Second)
	if err != nil {
		return "", domain.ErrRateLimited
	}
	defer func() { _ = p.locker.Unlock(ctx, red.IssuanceLockKey(tgID), token) }()

	now := time.Now()
	var issued string

	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = p.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := p.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		if !user.CanReceivePromo(now, p.rateWindow) {
			return domain.ErrRateLimited
		}

		// Lazy on-read expiry: stale entries go away regardless of whether
		// this particular call ends up drawing anything.
		purged, err := p.pool.PurgeCreatedBefore(ctx, tx, now.Add(-p.expiryAfter))
		if err != nil {
			return err
		}
		metrics.AddPromoPurged(purged)

		code, err := p.pool.PickRandom(ctx, tx)
		if err != nil {
			return err
		}

		// Second guard inside the tx: the conditional update re-checks
		// eligibility against the committed row, so it loses when a
		// concurrent issuance already stamped a time inside the window.
		ok, err := p.users.SetLastIssuedAt(ctx, tx, user.ID, now, now.Add(-p.rateWindow))
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRateLimited
		}

		if err := p.history.Append(ctx, tx, model.NewIssuanceRecord(user.ID, code.Code, now)); err != nil {
			return err
		}
		issued = code.Code
		return nil
	})

	switch {
	case err == nil:
		metrics.IncPromoRequest("issued")
		p.log.Info().Int64("tg_id", tgID).Msg("promo issued")
		return issued, nil
	case errors.Is(err, domain.ErrRateLimited):
		metrics.IncPromoRequest("rate_limited")
		return "", err
	case errors.Is(err, domain.ErrPoolExhausted):
		metrics.IncPromoRequest("pool_exhausted")
		return "", err
	default:
		metrics.IncPromoRequest("error")
		return "", err
	}
}

func (p *promoUC) History(ctx context.Context, tgID int64) ([]*model.IssuanceRecord, error) {
	defer logging.TraceDuration(p.log, "PromoUC.History")()
	user, err := p.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}
	return p.history.ListByUser(ctx, repository.NoTX, user.ID)
}

func (p *promoUC) AddCode(ctx context.Context, code string) (*model.PromoCode, error) {
	defer logging.TraceDuration(p.log, "PromoUC.AddCode")()
	pc, err := model.NewPromoCode(code)
	if err != nil {
		return nil, err
	}
	if err := p.pool.Add(ctx, repository.NoTX, pc); err != nil {
		return nil, err
	}
	p.refreshPoolGauge(ctx)
	return pc, nil
}

func (p *promoUC) RemoveCode(ctx context.Context, code string) error {
	defer logging.TraceDuration(p.log, "PromoUC.RemoveCode")()
	if err := p.pool.RemoveByCode(ctx, repository.NoTX, code); err != nil {
		return err
	}
	p.refreshPoolGauge(ctx)
	return nil
}

func (p *promoUC) ListCodes(ctx context.Context) ([]*model.PromoCode, error) {
	defer logging.TraceDuration(p.log, "PromoUC.ListCodes")()
	return p.pool.ListAll(ctx, repository.NoTX)
}

func (p *promoUC) PurgeExpired(ctx context.Context) (int, error) {
	defer logging.TraceDuration(p.log, "PromoUC.PurgeExpired")()
	n, err := p.pool.PurgeCreatedBefore(ctx, repository.NoTX, time.Now().Add(-p.expiryAfter))
	if err != nil {
		return 0, err
	}
	metrics.AddPromoPurged(n)
	p.refreshPoolGauge(ctx)
	return n, nil
}

func (p *promoUC) refreshPoolGauge(ctx context.Context) {
	codes, err := p.pool.ListAll(ctx, repository.NoTX)
	if err != nil {
		return
	}
	metrics.SetPromoPoolSize(len(codes))
}
