// File: internal/infra/sched/wipe_scheduler.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/infra/metrics"
	"hostilerust-bot/internal/usecase"
)

const (
	wipeWarningText      = "⚠️ Через 1 час вайп серверов Hostile Rust!"
	wipeNotificationText = "💣 ВАЙП СЕРВЕРОВ HOSTILE RUST!"
)

// WipeScheduler arms a warning timer and a notification timer for the next
// wipe occurrence and re-arms itself after each notification fires, so a
// long-running process self-sustains weekly announcements without restart.
//
// Depending on configuration the announcement goes to a single channel or is
// fanned out to every known user through the broadcast use case. Delivery
// failures are logged and never abort the cycle.
type WipeScheduler struct {
	wipeUC      usecase.WipeUseCase
	broadcastUC usecase.BroadcastUseCase
	bot         adapter.TelegramBotAdapter
	cfg         config.WipeConfig
	log         *zerolog.Logger
}

func NewWipeScheduler(
	wipeUC usecase.WipeUseCase,
	broadcastUC usecase.BroadcastUseCase,
	bot adapter.TelegramBotAdapter,
	cfg config.WipeConfig,
	logger *zerolog.Logger,
) *WipeScheduler {
	schedLog := logger.With().Str("component", "WipeScheduler").Logger()
	return &WipeScheduler{
		wipeUC:      wipeUC,
		broadcastUC: broadcastUC,
		bot:         bot,
		cfg:         cfg,
		log:         &schedLog,
	}
}

// Run blocks until ctx is cancelled, arming one timer pair per wipe cycle.
func (s *WipeScheduler) Run(ctx context.Context) error {
	s.log.Info().Msg("Starting wipe scheduler")
	for {
		if err := s.runCycle(ctx); err != nil {
			s.log.Info().Msg("Stopping wipe scheduler")
			return err
		}
	}
}

// runCycle waits until the next occurrence, firing the warning on the way,
// then sends the notification and returns so the caller re-arms. A warning
// moment already in the past (process started inside the final hour) is
// skipped, not fired late.
func (s *WipeScheduler) runCycle(ctx context.Context) error {
	now := time.Now()
	wipeAt := s.wipeUC.NextOccurrence(now)
	warnAt := wipeAt.Add(-time.Hour)

	s.log.Info().
		Time("wipe_at", wipeAt).
		Time("warn_at", warnAt).
		Msg("wipe timers armed")

	if warnAt.After(now) {
		if err := s.sleepUntil(ctx, warnAt); err != nil {
			return err
		}
		s.deliver(ctx, wipeWarningText)
		metrics.IncWipeNotification("warning")
	}

	if err := s.sleepUntil(ctx, wipeAt); err != nil {
		return err
	}
	s.deliver(ctx, wipeNotificationText)
	metrics.IncWipeNotification("notification")
	return nil
}

func (s *WipeScheduler) sleepUntil(ctx context.Context, t time.Time) error {
	timer := time.NewTimer(time.Until(t))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *WipeScheduler) deliver(ctx context.Context, text string) {
	if s.cfg.NotifyTarget == "all_users" {
		n, err := s.broadcastUC.Broadcast(ctx, text, usecase.AudienceAll)
		if err != nil {
			s.log.Error().Err(err).Msg("wipe fan-out failed")
			return
		}
		s.log.Info().Int("recipients", n).Msg("wipe announcement queued")
		return
	}
	if err := s.bot.SendMessage(ctx, s.cfg.AnnounceChatID, text); err != nil {
		s.log.Error().Err(err).Int64("chat_id", s.cfg.AnnounceChatID).Msg("wipe announcement failed")
		return
	}
	s.log.Info().Int64("chat_id", s.cfg.AnnounceChatID).Msg("wipe announcement sent")
}
