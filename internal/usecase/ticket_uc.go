package usecase

import (
	"context"
	"time"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/infra/logging"
	red "hostilerust-bot/internal/infra/redis"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ TicketUseCase = (*ticketUC)(nil)

// TicketUseCase handles support questions and admin answers.
type TicketUseCase interface {
	// Submit records a question. A user may submit at most one question per
	// cooldown window; a premature retry fails with domain.ErrRateLimited.
	Submit(ctx context.Context, tgID int64, question string) (*model.Ticket, error)
	// Answer marks an open ticket answered and delivers the reply to its
	// author. Unknown ticket -> domain.ErrNotFound.
	Answer(ctx context.Context, ticketID, answer string) (*model.Ticket, error)
	ListOpen(ctx context.Context) ([]*model.Ticket, error)
}

type ticketUC struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	bot      adapter.TelegramBotAdapter
	limiter  *red.RateLimiter
	cooldown time.Duration
	log      *zerolog.Logger
}

func NewTicketUseCase(
	tickets repository.TicketRepository,
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	limiter *red.RateLimiter,
	cooldown time.Duration,
	logger *zerolog.Logger,
) *ticketUC {
	return &ticketUC{
		tickets:  tickets,
		users:    users,
		bot:      bot,
		limiter:  limiter,
		cooldown: cooldown,
		log:      logger,
	}
}

func (t *ticketUC) Submit(ctx context.Context, tgID int64, question string) (*model.Ticket, error) {
	defer logging.TraceDuration(t.log, "TicketUC.Submit")()

	user, err := t.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}

	ticket, err := model.NewTicket(user.ID, tgID, user.FirstName, user.Username, question)
	if err != nil {
		return nil, err
	}

	// Consume the cooldown slot only after the question is known to be
	// storable; a failed save refunds it so the user can retry at once.
	allowed, err := t.limiter.Allow(ctx, red.TicketCooldownKey(tgID), 1, t.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrRateLimited
	}

	if err := t.tickets.Save(ctx, repository.NoTX, ticket); err != nil {
		if rerr := t.limiter.Reset(ctx, red.TicketCooldownKey(tgID)); rerr != nil {
			t.log.Warn().Err(rerr).Int64("tg_id", tgID).Msg("failed to refund ticket cooldown")
		}
		return nil, err
	}
	t.log.Info().Str("ticket_id", ticket.ID).Int64("tg_id", tgID).Msg("ticket submitted")
	return ticket, nil
}

func (t *ticketUC) Answer(ctx context.Context, ticketID, answer string) (*model.Ticket, error) {
	defer logging.TraceDuration(t.log, "TicketUC.Answer")()

	ticket, err := t.tickets.FindByID(ctx, repository.NoTX, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.MarkAnswered(answer, time.Now()); err != nil {
		return nil, err
	}
	if err := t.tickets.Save(ctx, repository.NoTX, ticket); err != nil {
		return nil, err
	}

	// Delivery failure is logged, not surfaced: the answer is recorded either way.
	if err := t.bot.SendMessage(ctx, ticket.TelegramID, "💬 Ответ на ваш вопрос:\n\n"+answer); err != nil {
		t.log.Warn().Err(err).Str("ticket_id", ticket.ID).Msg("failed to deliver ticket answer")
	}
	return ticket, nil
}

func (t *ticketUC) ListOpen(ctx context.Context) ([]*model.Ticket, error) {
	defer logging.TraceDuration(t.log, "TicketUC.ListOpen")()
	return t.tickets.ListOpen(ctx, repository.NoTX)
}
