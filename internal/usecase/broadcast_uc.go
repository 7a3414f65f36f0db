package usecase

import (
	"context"
	"time"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/infra/metrics"
	"hostilerust-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Audience selects which users a broadcast reaches.
type Audience string

const (
	AudienceAll         Audience = "all"
	AudienceNeverIssued Audience = "never_issued"
)

type BroadcastUseCase interface {
	// Broadcast queues text for every user in the audience and returns the
	// number of queued recipients. Per-recipient delivery failures are
	// logged, never surfaced: one unreachable user must not abort the batch.
	Broadcast(ctx context.Context, text string, audience Audience) (int, error)
}

type broadcastUC struct {
	users      repository.UserRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) BroadcastUseCase {
	return &broadcastUC{
		users:      users,
		bot:        bot,
		workerPool: pool,
		log:        logger,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, text string, audience Audience) (int, error) {
	// Snapshot the audience at call time; signups during an in-flight
	// broadcast are neither guaranteed in nor out.
	var (
		targets []*model.User
		err     error
	)
	switch audience {
	case AudienceNeverIssued:
		targets, err = uc.users.ListNeverIssued(ctx, repository.NoTX)
	case AudienceAll, "":
		targets, err = uc.users.List(ctx, repository.NoTX, 0, 0)
	default:
		return 0, domain.ErrInvalidArgument
	}
	if err != nil {
		uc.log.Error().Err(err).Str("audience", string(audience)).Msg("failed to fetch broadcast audience")
		return 0, err
	}

	// Throttle to respect Telegram's API limits (approx. 30 messages/sec)
	throttle := time.NewTicker(time.Second / 25)

	go func() {
		defer throttle.Stop()
		uc.log.Info().Int("user_count", len(targets)).Str("audience", string(audience)).Msg("starting broadcast job")

		for _, user := range targets {
			<-throttle.C

			task := uc.createSendTask(user.TelegramID, text)
			if err := uc.workerPool.Submit(task); err != nil {
				uc.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("failed to submit broadcast task")
			}
		}
		uc.log.Info().Msg("broadcast job finished queuing all tasks")
	}()

	return len(targets), nil
}

// createSendTask creates a closure for the worker pool to execute.
func (uc *broadcastUC) createSendTask(telegramID int64, text string) worker.Task {
	return func(ctx context.Context) error {
		err := uc.bot.SendMessage(ctx, telegramID, text)
		if err != nil {
			// e.g. the user blocked the bot; swallow so the batch continues
			metrics.IncBroadcast("failed")
			uc.log.Warn().Err(err).Int64("tg_id", telegramID).Msg("failed to send broadcast message")
			return nil
		}
		metrics.IncBroadcast("sent")
		return nil
	}
}
