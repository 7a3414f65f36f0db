// File: internal/infra/sched/cron_jobs.go
package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/infra/metrics"
	"hostilerust-bot/internal/usecase"
)

// CronJobs owns the periodic housekeeping work: a server-status probe sweep
// for logging/gauges and a daily sweep of expired promo pool entries. The
// probe sweep has no effect on ledger or scheduler state.
type CronJobs struct {
	cron    *cron.Cron
	probe   adapter.GameServerProbe
	promoUC usecase.PromoUseCase
	cfg     config.ProbeConfig
	log     *zerolog.Logger
}

func NewCronJobs(
	probe adapter.GameServerProbe,
	promoUC usecase.PromoUseCase,
	cfg config.ProbeConfig,
	loc *time.Location,
	logger *zerolog.Logger,
) *CronJobs {
	cronLog := logger.With().Str("component", "CronJobs").Logger()
	return &CronJobs{
		cron:    cron.New(cron.WithLocation(loc)),
		probe:   probe,
		promoUC: promoUC,
		cfg:     cfg,
		log:     &cronLog,
	}
}

func (c *CronJobs) Start() error {
	if _, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.cfg.Interval), c.probeSweep); err != nil {
		return fmt.Errorf("register probe job: %w", err)
	}
	// Pool expiry is also applied lazily on every draw; the nightly sweep
	// keeps the pool and its gauge fresh through idle periods.
	if _, err := c.cron.AddFunc("0 4 * * *", c.purgeSweep); err != nil {
		return fmt.Errorf("register purge job: %w", err)
	}
	c.cron.Start()
	c.log.Info().Dur("probe_interval", c.cfg.Interval).Msg("cron jobs started")
	return nil
}

func (c *CronJobs) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.log.Info().Msg("cron jobs stopped")
}

func (c *CronJobs) probeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, srv := range c.cfg.Servers {
		st := c.probe.Probe(ctx, srv.Address)
		metrics.ObserveServerStatus(srv.Name, st.Online, st.Players)
		c.log.Info().
			Str("server", srv.Name).
			Bool("online", st.Online).
			Int("players", st.Players).
			Int("max_players", st.MaxPlayers).
			Msg("server status")
	}
}

func (c *CronJobs) purgeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := c.promoUC.PurgeExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("promo purge sweep failed")
		return
	}
	if n > 0 {
		c.log.Info().Int("purged", n).Msg("expired promo codes removed")
	}
}
