// File: internal/infra/adapters/telegram/real_bot.go
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hostilerust-bot/internal/application"
	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
	red "hostilerust-bot/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls updates via tgbotapi and delegates to BotFacade.
// Admin multi-step flows (add/delete code, broadcast, ticket answer) keep
// their progress in the state repository, so flows survive a restart and
// abandoned ones expire with the store's TTL.
type RealTelegramBotAdapter struct {
	bot     *tgbotapi.BotAPI
	cfg     *config.BotConfig
	facade  *application.BotFacade
	states  repository.StateRepository
	limiter *red.RateLimiter
	log     *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

// NewRealTelegramBotAdapter dials the Telegram API. The facade is attached
// afterwards via SetFacade: use cases need this adapter as their outbound
// port, so the adapter must exist before the facade can be built.
func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	states repository.StateRepository,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		states:        states,
		limiter:       limiter,
		log:           &botLog,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}, nil
}

// SetFacade wires the command layer in. Must happen before StartPolling.
func (r *RealTelegramBotAdapter) SetFacade(facade *application.BotFacade) {
	r.facade = facade
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is not attached")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Str("username", r.bot.Self.UserName).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

// SendMessage implements the adapter port.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(telegramID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with an inline keyboard.
// - URL buttons open a link
// - SwitchInline buttons put their value into the user's input field
// - Data buttons send callback data
func (r *RealTelegramBotAdapter) SendButtons(
	ctx context.Context,
	telegramID int64,
	text string,
	rows [][]adapter.InlineButton,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.SwitchInline != "":
				sw := btn.SwitchInline
				kb = tgbotapi.InlineKeyboardButton{Text: label, SwitchInlineQueryCurrentChat: &sw}
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	message := update.Message
	tgID := message.From.ID

	command := "message"
	if message.IsCommand() {
		command = "/" + message.Command()
	}
	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, command), 20, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			return r.SendMessage(ctx, tgID, "⏳ Слишком много запросов, попробуйте позже.")
		}
	}

	if message.IsCommand() {
		if fn, ok := r.commandRoutes()[message.Command()]; ok {
			return fn(ctx, message)
		}
		return nil
	}

	// Plain text either continues a pending flow or is ignored.
	return r.handleFlowMessage(ctx, message)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	tgID := query.From.ID
	data := strings.TrimSpace(query.Data)

	if r.limiter != nil {
		if allowed, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, "cb:"+data), 30, time.Minute); err == nil && !allowed {
			return r.SendMessage(ctx, tgID, "⏳ Слишком много запросов, попробуйте позже.")
		}
	}

	// Admin-only callbacks are silently ignored for everyone else.
	if (strings.HasPrefix(data, "a_") || strings.HasPrefix(data, "bc_")) && !r.isAdmin(tgID) {
		return nil
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, tgID, data)
	}
	r.log.Warn().Str("data", data).Int64("tg_id", tgID).Msg("unknown callback data")
	return nil
}
