// File: internal/infra/adapters/telegram/command_route.go
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hostilerust-bot/internal/domain/ports/adapter"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"admin": r.handleAdminCommand,
		"help":  r.handleHelpCommand,
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleStart(ctx, message.From.ID, message.From.FirstName, message.From.UserName)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("start failed")
		return r.SendMessage(ctx, message.Chat.ID, "⚠️ Что-то пошло не так, попробуйте позже.")
	}
	return r.sendMainMenu(ctx, message.Chat.ID, text)
}

// handleAdminCommand shows the admin panel. Non-admins get no reply at all.
func (r *RealTelegramBotAdapter) handleAdminCommand(ctx context.Context, message *tgbotapi.Message) error {
	if !r.isAdmin(message.From.ID) {
		return nil
	}
	return r.SendButtons(ctx, message.Chat.ID, "👑 Админ панель", adminKeyboard())
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendMainMenu(ctx, message.Chat.ID, "Выбери действие ниже ⬇️")
}

func (r *RealTelegramBotAdapter) sendMainMenu(ctx context.Context, telegramID int64, intro string) error {
	rows := [][]adapter.InlineButton{
		{
			{Text: "🎁 Получить промокод", Data: "promo"},
			{Text: "📜 Моя история промокодов", Data: "history"},
		},
		{
			{Text: "🛒 Пополнить баланс", URL: r.cfg.ShopURL},
			{Text: "❓ Информация", Data: "info"},
		},
		{
			{Text: "🎮 Онлайн серверов", Data: "servers"},
			{Text: "⏳ До вайпа", Data: "wipe"},
		},
		{
			{Text: "📋 IP серверов", Data: "ips"},
			{Text: "💬 Задать вопрос", Data: "ask"},
		},
	}
	return r.SendButtons(ctx, telegramID, intro, rows)
}

func adminKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: "➕ Добавить промо", Data: "a_add"},
			{Text: "➖ Удалить промо", Data: "a_del"},
		},
		{
			{Text: "📋 Список промокодов", Data: "a_list"},
			{Text: "👥 Список пользователей", Data: "a_users"},
		},
		{
			{Text: "📊 Статистика", Data: "a_stats"},
			{Text: "📢 Рассылка", Data: "a_bc"},
		},
		{
			{Text: "📬 Открытые вопросы", Data: "a_tickets"},
			{Text: "💬 Ответить на вопрос", Data: "a_answer"},
		},
	}
}
