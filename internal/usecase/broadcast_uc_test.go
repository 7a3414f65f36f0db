//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/infra/worker"
	"hostilerust-bot/internal/usecase"
)

func TestBroadcastUC_Broadcast(t *testing.T) {
	ctx := context.Background()

	// collect waits for n deliveries through the mock bot and returns them.
	collect := func(t *testing.T, bot *MockTelegramBot, n int) *sync.WaitGroup {
		t.Helper()
		var wg sync.WaitGroup
		wg.Add(n)
		var mu sync.Mutex
		bot.SendMessageFunc = func(ctx context.Context, tgID int64, text string) error {
			mu.Lock()
			bot.Sent = append(bot.Sent, sentMessage{TelegramID: tgID, Text: text})
			mu.Unlock()
			wg.Done()
			return nil
		}
		return &wg
	}

	waitOrFail := func(t *testing.T, wg *sync.WaitGroup) {
		t.Helper()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for broadcast deliveries")
		}
	}

	t.Run("should deliver to every user for the all audience", func(t *testing.T) {
		users := newMemUserRepo()
		history := newMemIssuanceRepo()
		users.history = history
		mustUser(users, 101, "Vasya", "vasya")
		mustUser(users, 202, "Petya", "petya")
		mustUser(users, 303, "Kolya", "kolya")

		bot := &MockTelegramBot{}
		wg := collect(t, bot, 3)

		pool := worker.NewPool(2, newTestLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, bot, pool, newTestLogger())
		n, err := uc.Broadcast(ctx, "вайп сегодня", usecase.AudienceAll)
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 queued recipients, got %d", n)
		}

		waitOrFail(t, wg)
		if len(bot.Sent) != 3 {
			t.Fatalf("expected 3 deliveries, got %d", len(bot.Sent))
		}
		for _, s := range bot.Sent {
			if s.Text != "вайп сегодня" {
				t.Fatalf("unexpected text: %q", s.Text)
			}
		}
	})

	t.Run("should skip users with history for the never issued audience", func(t *testing.T) {
		users := newMemUserRepo()
		history := newMemIssuanceRepo()
		users.history = history
		veteran := mustUser(users, 101, "Vasya", "vasya")
		mustUser(users, 202, "Petya", "petya")
		mustUser(users, 303, "Kolya", "kolya")
		_ = history.Append(ctx, repository.NoTX, recordFor(veteran.ID, "HR-OLD"))

		bot := &MockTelegramBot{}
		wg := collect(t, bot, 2)

		pool := worker.NewPool(2, newTestLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, bot, pool, newTestLogger())
		n, err := uc.Broadcast(ctx, "вам положен промокод", usecase.AudienceNeverIssued)
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 queued recipients, got %d", n)
		}

		waitOrFail(t, wg)
		for _, s := range bot.Sent {
			if s.TelegramID == 101 {
				t.Fatal("a user with issuance history must not be targeted")
			}
		}
	})

	t.Run("should continue past per-recipient delivery failures", func(t *testing.T) {
		users := newMemUserRepo()
		mustUser(users, 101, "Vasya", "vasya")
		mustUser(users, 202, "Petya", "petya")

		bot := &MockTelegramBot{}
		var wg sync.WaitGroup
		wg.Add(2)
		var mu sync.Mutex
		delivered := []int64{}
		bot.SendMessageFunc = func(ctx context.Context, tgID int64, text string) error {
			defer wg.Done()
			if tgID == 101 {
				return errors.New("Forbidden: bot was blocked by the user")
			}
			mu.Lock()
			delivered = append(delivered, tgID)
			mu.Unlock()
			return nil
		}

		pool := worker.NewPool(1, newTestLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, bot, pool, newTestLogger())
		if _, err := uc.Broadcast(ctx, "текст", usecase.AudienceAll); err != nil {
			t.Fatalf("Broadcast: %v", err)
		}

		waitOrFail(t, &wg)
		if len(delivered) != 1 || delivered[0] != 202 {
			t.Fatalf("expected delivery to continue after a failure, got %v", delivered)
		}
	})

	t.Run("should reject an unknown audience", func(t *testing.T) {
		users := newMemUserRepo()
		pool := worker.NewPool(1, newTestLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, &MockTelegramBot{}, pool, newTestLogger())
		_, err := uc.Broadcast(ctx, "текст", usecase.Audience("vip"))
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
