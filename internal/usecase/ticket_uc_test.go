//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	red "hostilerust-bot/internal/infra/redis"
	"hostilerust-bot/internal/usecase"
)

type ticketDeps struct {
	tickets *memTicketRepo
	users   *memUserRepo
	bot     *MockTelegramBot
	redis   *memRedis
}

func newTicketDeps() ticketDeps {
	return ticketDeps{
		tickets: newMemTicketRepo(),
		users:   newMemUserRepo(),
		bot:     &MockTelegramBot{},
		redis:   newMemRedis(),
	}
}

func (d ticketDeps) uc() usecase.TicketUseCase {
	return usecase.NewTicketUseCase(
		d.tickets, d.users, d.bot,
		red.NewRateLimiter(d.redis), 10*time.Minute, newTestLogger(),
	)
}

func TestTicketUC_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should record an open ticket", func(t *testing.T) {
		deps := newTicketDeps()
		user := mustUser(deps.users, 101, "Vasya", "vasya")

		ticket, err := deps.uc().Submit(ctx, 101, "когда вайп?")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if ticket.Status != model.TicketOpen || ticket.UserID != user.ID || ticket.Question != "когда вайп?" {
			t.Fatalf("unexpected ticket: %+v", ticket)
		}

		open, _ := deps.uc().ListOpen(ctx)
		if len(open) != 1 || open[0].ID != ticket.ID {
			t.Fatalf("expected the ticket listed as open: %+v", open)
		}
	})

	t.Run("should enforce the cooldown between questions", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()

		if _, err := uc.Submit(ctx, 101, "первый вопрос"); err != nil {
			t.Fatalf("first submit: %v", err)
		}
		_, err := uc.Submit(ctx, 101, "второй вопрос")
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("should accept again once the cooldown window passes", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()

		_, _ = uc.Submit(ctx, 101, "первый вопрос")
		deps.redis.expireNow(red.TicketCooldownKey(101))

		if _, err := uc.Submit(ctx, 101, "второй вопрос"); err != nil {
			t.Fatalf("expected submit after cooldown, got %v", err)
		}
	})

	t.Run("should not cool down other users", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		mustUser(deps.users, 202, "Petya", "petya")
		uc := deps.uc()

		_, _ = uc.Submit(ctx, 101, "вопрос васи")
		if _, err := uc.Submit(ctx, 202, "вопрос пети"); err != nil {
			t.Fatalf("cooldown must be per user, got %v", err)
		}
	})

	t.Run("should reject an empty question without burning the cooldown", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()

		_, err := uc.Submit(ctx, 101, "")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := uc.Submit(ctx, 101, "настоящий вопрос"); err != nil {
			t.Fatalf("rejected input must not consume the window: %v", err)
		}
	})

	t.Run("should not burn the cooldown for an unknown user", func(t *testing.T) {
		deps := newTicketDeps()
		uc := deps.uc()

		_, err := uc.Submit(ctx, 101, "вопрос")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		mustUser(deps.users, 101, "Vasya", "vasya")
		if _, err := uc.Submit(ctx, 101, "вопрос"); err != nil {
			t.Fatalf("the failed attempt must not consume the window: %v", err)
		}
	})

	t.Run("should refund the cooldown when the save fails", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()

		deps.tickets.saveErr = errors.New("connection refused")
		if _, err := uc.Submit(ctx, 101, "вопрос"); err == nil {
			t.Fatal("expected the save failure to surface")
		}

		deps.tickets.saveErr = nil
		if _, err := uc.Submit(ctx, 101, "вопрос"); err != nil {
			t.Fatalf("expected an immediate retry after a refund, got %v", err)
		}
	})
}

func TestTicketUC_Answer(t *testing.T) {
	ctx := context.Background()

	t.Run("should mark the ticket answered and notify the author", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()
		ticket, _ := uc.Submit(ctx, 101, "когда вайп?")

		answered, err := uc.Answer(ctx, ticket.ID, "в четверг в 22:00")
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if answered.Status != model.TicketAnswered || answered.Answer != "в четверг в 22:00" {
			t.Fatalf("unexpected ticket after answer: %+v", answered)
		}
		if answered.AnsweredAt == nil {
			t.Fatal("expected the answer timestamp set")
		}

		sent := deps.bot.sentTo(101)
		if len(sent) != 1 || !strings.Contains(sent[0].Text, "в четверг в 22:00") {
			t.Fatalf("expected the answer delivered to the author, sent: %+v", sent)
		}

		open, _ := uc.ListOpen(ctx)
		if len(open) != 0 {
			t.Fatalf("answered ticket must leave the open list: %+v", open)
		}
	})

	t.Run("should fail for an unknown ticket", func(t *testing.T) {
		deps := newTicketDeps()
		_, err := deps.uc().Answer(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "ответ")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject a second answer to the same ticket", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()
		ticket, _ := uc.Submit(ctx, 101, "когда вайп?")

		if _, err := uc.Answer(ctx, ticket.ID, "первый ответ"); err != nil {
			t.Fatalf("first answer: %v", err)
		}
		_, err := uc.Answer(ctx, ticket.ID, "второй ответ")
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should keep the answer recorded when delivery fails", func(t *testing.T) {
		deps := newTicketDeps()
		mustUser(deps.users, 101, "Vasya", "vasya")
		uc := deps.uc()
		ticket, _ := uc.Submit(ctx, 101, "когда вайп?")

		deps.bot.SendMessageFunc = func(ctx context.Context, tgID int64, text string) error {
			return errors.New("Forbidden: bot was blocked by the user")
		}

		answered, err := uc.Answer(ctx, ticket.ID, "ответ")
		if err != nil {
			t.Fatalf("delivery failure must not surface: %v", err)
		}
		if answered.Status != model.TicketAnswered {
			t.Fatalf("expected the answer recorded, got %+v", answered)
		}
	})
}
