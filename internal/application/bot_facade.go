// File: internal/application/bot_facade.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Facade methods return ready-to-send strings so the Telegram adapter just
// forwards them to the chat; only unexpected failures surface as errors.
type BotFacade struct {
	UserUC      usecase.UserUseCase
	PromoUC     usecase.PromoUseCase
	BroadcastUC usecase.BroadcastUseCase
	TicketUC    usecase.TicketUseCase
	StatsUC     usecase.StatsUseCase
	WipeUC      usecase.WipeUseCase
	Probe       adapter.GameServerProbe

	shopURL string
	servers []model.GameServer
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	promoUC usecase.PromoUseCase,
	broadcastUC usecase.BroadcastUseCase,
	ticketUC usecase.TicketUseCase,
	statsUC usecase.StatsUseCase,
	wipeUC usecase.WipeUseCase,
	probe adapter.GameServerProbe,
	botCfg *config.BotConfig,
	probeCfg *config.ProbeConfig,
) *BotFacade {
	servers := make([]model.GameServer, 0, len(probeCfg.Servers))
	for _, s := range probeCfg.Servers {
		servers = append(servers, model.GameServer{Name: s.Name, Address: s.Address})
	}
	return &BotFacade{
		UserUC:      userUC,
		PromoUC:     promoUC,
		BroadcastUC: broadcastUC,
		TicketUC:    ticketUC,
		StatsUC:     statsUC,
		WipeUC:      wipeUC,
		Probe:       probe,
		shopURL:     botCfg.ShopURL,
		servers:     servers,
	}
}

// Servers exposes the configured game server list for adapter-side keyboards.
func (b *BotFacade) Servers() []model.GameServer { return b.servers }

// HandleStart registers or refreshes the user and returns the welcome text.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, firstName, username string) (string, error) {
	if _, err := b.UserUC.RegisterOrFetch(ctx, tgID, firstName, username); err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}
	if firstName == "" {
		firstName = "Игрок"
	}
	return fmt.Sprintf("🔥 Привет, %s!\n\nДобро пожаловать в Hostile Rust!\nВыбери действие ниже ⬇️", firstName), nil
}

// HandlePromo dispenses a code or explains why the user cannot have one.
// Rate-limit and empty-pool outcomes are expected states, not errors.
func (b *BotFacade) HandlePromo(ctx context.Context, tgID int64) (string, error) {
	code, err := b.PromoUC.RequestCode(ctx, tgID)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "⏳ Вы уже получали промокод сегодня.", nil
	case errors.Is(err, domain.ErrPoolExhausted):
		return "❌ К сожалению, промокоды закончились 😢", nil
	case err != nil:
		return "", fmt.Errorf("request code: %w", err)
	}
	return fmt.Sprintf("🎁 Ваш уникальный промокод:\n\n%s\n\n💡 Чтобы активировать его, перейдите на сайт:\n👉 %s", code, b.shopURL), nil
}

// HandleHistory lists the user's issued codes, most recent first.
func (b *BotFacade) HandleHistory(ctx context.Context, tgID int64) (string, error) {
	records, err := b.PromoUC.History(ctx, tgID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		return "📜 У вас пока нет выданных промокодов", nil
	}
	var sb strings.Builder
	sb.WriteString("📜 Ваша история промокодов:\n\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("🎫 %s — %s\n", rec.Code, rec.IssuedAt.In(b.WipeUC.Location()).Format("02.01.2006")))
	}
	return sb.String(), nil
}

// HandleInfo returns the static help text about promo codes and wipes.
func (b *BotFacade) HandleInfo(ctx context.Context) (string, error) {
	return fmt.Sprintf("❓ Информация о промокодах и сервере\n\n"+
		"🎁 Промокоды:\n"+
		"- Выдается через бота\n"+
		"- Чтобы активировать, используйте на сайте: %s\n\n"+
		"💣 Вайпы:\n"+
		"- Проходят каждый четверг в 12:00 МСК\n"+
		"- Первый четверг месяца в 22:00 МСК\n\n"+
		"⚠️ Правила сервера:\n"+
		"- Не использовать читы\n"+
		"- Уважать других игроков\n"+
		"- Соблюдать общие правила Hostile Rust", b.shopURL), nil
}

// HandleWipeCountdown formats the time remaining until the next wipe.
func (b *BotFacade) HandleWipeCountdown(ctx context.Context) (string, error) {
	diff := b.WipeUC.Countdown(time.Now())
	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60
	return fmt.Sprintf("💣 Следующий вайп на серверах Hostile Rust\n\n"+
		"⏳ Осталось:\n🗓 %d дн\n🕒 %d ч\n⏱ %d мин", days, hours, minutes), nil
}

// HandleServers probes every configured server and formats a status line per
// server. An unreachable server renders as offline, never as a failure.
func (b *BotFacade) HandleServers(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("🎮 Статус серверов Hostile Rust\n")
	for _, srv := range b.servers {
		st := b.Probe.Probe(ctx, srv.Address)
		if st.Online {
			sb.WriteString(fmt.Sprintf("\n🟢 %s: %d/%d", srv.Name, st.Players, st.MaxPlayers))
		} else {
			sb.WriteString(fmt.Sprintf("\n🔴 %s: оффлайн", srv.Name))
		}
	}
	return sb.String(), nil
}

// HandleAskQuestion files a support ticket; the cooldown outcome is an
// expected state with its own message.
func (b *BotFacade) HandleAskQuestion(ctx context.Context, tgID int64, question string) (string, error) {
	ticket, err := b.TicketUC.Submit(ctx, tgID, question)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "⏳ Вопрос можно задавать раз в 10 минут. Попробуйте позже.", nil
	case err != nil:
		return "", fmt.Errorf("submit ticket: %w", err)
	}
	return fmt.Sprintf("✅ Вопрос принят! Номер обращения: %s\nАдминистратор ответит вам в этом чате.", ticket.ID), nil
}

// ---- Admin-facing methods ----

// HandleAddCode puts a new code into the pool.
func (b *BotFacade) HandleAddCode(ctx context.Context, code string) (string, error) {
	_, err := b.PromoUC.AddCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return "⚠️ Такой промокод уже есть в пуле.", nil
	case errors.Is(err, domain.ErrInvalidArgument):
		return "⚠️ Промокод не может быть пустым.", nil
	case err != nil:
		return "", fmt.Errorf("add code: %w", err)
	}
	return "✅ Промокод успешно добавлен 🎉", nil
}

// HandleRemoveCode deletes a code from the pool.
func (b *BotFacade) HandleRemoveCode(ctx context.Context, code string) (string, error) {
	err := b.PromoUC.RemoveCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Промокод не найден", nil
	case err != nil:
		return "", fmt.Errorf("remove code: %w", err)
	}
	return "🗑️ Промокод удалён", nil
}

// HandleListCodes renders the current pool.
func (b *BotFacade) HandleListCodes(ctx context.Context) (string, error) {
	codes, err := b.PromoUC.ListCodes(ctx)
	if err != nil {
		return "", fmt.Errorf("list codes: %w", err)
	}
	if len(codes) == 0 {
		return "📄 Список промокодов пуст", nil
	}
	var sb strings.Builder
	for _, c := range codes {
		sb.WriteString(fmt.Sprintf("🎫 %s\n", c.Code))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// HandleListUsers renders the known user list.
func (b *BotFacade) HandleListUsers(ctx context.Context) (string, error) {
	users, err := b.UserUC.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return "Пусто", nil
	}
	var sb strings.Builder
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("👤 %s (@%s)\n", u.FirstName, u.Username))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// HandleStats builds the admin statistics summary.
func (b *BotFacade) HandleStats(ctx context.Context) (string, error) {
	stats, err := b.StatsUC.Collect(ctx)
	if err != nil {
		return "", fmt.Errorf("collect stats: %w", err)
	}
	activeText := "Нет"
	if stats.MostActive != nil {
		activeText = fmt.Sprintf("%s (@%s) — %d", stats.MostActive.FirstName, stats.MostActive.Username, stats.MostActiveUses)
	}
	return fmt.Sprintf("📊 Статистика бота:\n\n"+
		"👥 Подписано пользователей: %d\n"+
		"🎁 Всего выдано промокодов: %d\n"+
		"🎟 Промокодов в пуле: %d\n"+
		"🏆 Самый активный игрок: %s", stats.TotalUsers, stats.TotalIssued, stats.PoolSize, activeText), nil
}

// HandleBroadcast fans out text to the chosen audience and reports the count
// of queued recipients. Per-recipient delivery failures never surface here.
func (b *BotFacade) HandleBroadcast(ctx context.Context, text string, audience usecase.Audience) (string, error) {
	n, err := b.BroadcastUC.Broadcast(ctx, text, audience)
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	return fmt.Sprintf("✅ Рассылка запущена!\nВ очереди: %d получателей", n), nil
}

// HandleOpenTickets renders unanswered tickets for the admin panel.
func (b *BotFacade) HandleOpenTickets(ctx context.Context) (string, error) {
	tickets, err := b.TicketUC.ListOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("list open tickets: %w", err)
	}
	if len(tickets) == 0 {
		return "📭 Открытых вопросов нет", nil
	}
	var sb strings.Builder
	sb.WriteString("📬 Открытые вопросы:\n")
	for _, t := range tickets {
		sb.WriteString(fmt.Sprintf("\n#%s — %s (@%s)\n%s\n", t.ID, t.FirstName, t.Username, t.Question))
	}
	return sb.String(), nil
}

// HandleAnswerTicket delivers an admin's reply to the asking user.
func (b *BotFacade) HandleAnswerTicket(ctx context.Context, ticketID, answer string) (string, error) {
	_, err := b.TicketUC.Answer(ctx, ticketID, answer)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Вопрос с таким номером не найден", nil
	case errors.Is(err, domain.ErrAlreadyExists):
		return "⚠️ На этот вопрос уже ответили.", nil
	case err != nil:
		return "", fmt.Errorf("answer ticket: %w", err)
	}
	return "✅ Ответ отправлен пользователю", nil
}
