// File: internal/infra/adapters/telegram/callback_route.go
package telegram

import (
	"context"
	"fmt"

	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
	"hostilerust-bot/internal/usecase"
)

type cbHandler func(ctx context.Context, tgID int64, data string) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		// user actions
		"promo":   r.promoCBRoute,
		"history": r.historyCBRoute,
		"info":    r.infoCBRoute,
		"servers": r.serversCBRoute,
		"wipe":    r.wipeCBRoute,
		"ips":     r.ipsCBRoute,
		"ask":     r.askCBRoute,

		// admin panel; authorization enforced before dispatch
		"a_add":     r.addCodeCBRoute,
		"a_del":     r.delCodeCBRoute,
		"a_list":    r.listCodesCBRoute,
		"a_users":   r.listUsersCBRoute,
		"a_stats":   r.statsCBRoute,
		"a_bc":      r.broadcastStartCBRoute,
		"a_tickets": r.openTicketsCBRoute,
		"a_answer":  r.answerStartCBRoute,

		// broadcast flow confirmation
		"bc_send_all": r.broadcastSendCBRoute,
		"bc_send_new": r.broadcastSendCBRoute,
		"bc_cancel":   r.broadcastCancelCBRoute,
	}
}

func (r *RealTelegramBotAdapter) promoCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandlePromo(ctx, tgID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("promo request failed")
		text = "⚠️ Не удалось выдать промокод, попробуйте позже."
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) historyCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleHistory(ctx, tgID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("history lookup failed")
		text = "⚠️ Не удалось загрузить историю, попробуйте позже."
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) infoCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleInfo(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) serversCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleServers(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) wipeCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleWipeCountdown(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

// ipsCBRoute renders one switch-inline button per server so tapping it puts
// the in-game connect command into the user's input field.
func (r *RealTelegramBotAdapter) ipsCBRoute(ctx context.Context, tgID int64, _ string) error {
	servers := r.facade.Servers()
	rows := make([][]adapter.InlineButton, 0, len(servers))
	for _, srv := range servers {
		rows = append(rows, []adapter.InlineButton{{
			Text:         fmt.Sprintf("📋 Скопировать %s", srv.Name),
			SwitchInline: "connect " + srv.Address,
		}})
	}
	return r.SendButtons(ctx, tgID,
		"📜 IP серверов Hostile Rust\n\nНажми кнопку — команда появится в поле ввода.\nДальше просто скопируй 👇", rows)
}

func (r *RealTelegramBotAdapter) askCBRoute(ctx context.Context, tgID int64, _ string) error {
	state := &repository.FlowState{Step: repository.StepAwaitingQuestion}
	if err := r.states.SetState(ctx, tgID, state); err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to start question flow")
		return r.SendMessage(ctx, tgID, "⚠️ Что-то пошло не так, попробуйте позже.")
	}
	return r.SendMessage(ctx, tgID, "💬 Напишите ваш вопрос одним сообщением:")
}

func (r *RealTelegramBotAdapter) addCodeCBRoute(ctx context.Context, tgID int64, _ string) error {
	if err := r.states.SetState(ctx, tgID, &repository.FlowState{Step: repository.StepAwaitingNewCode}); err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, "✏️ Введите новый промокод:")
}

func (r *RealTelegramBotAdapter) delCodeCBRoute(ctx context.Context, tgID int64, _ string) error {
	if err := r.states.SetState(ctx, tgID, &repository.FlowState{Step: repository.StepAwaitingCodeToDelete}); err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, "❌ Какой промокод удалить?")
}

func (r *RealTelegramBotAdapter) listCodesCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleListCodes(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) listUsersCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleListUsers(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) statsCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleStats(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) broadcastStartCBRoute(ctx context.Context, tgID int64, _ string) error {
	if err := r.states.SetState(ctx, tgID, &repository.FlowState{Step: repository.StepAwaitingBroadcastText}); err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, "✉️ Введите текст рассылки:")
}

// broadcastSendCBRoute fires the pending broadcast; the text lives in the
// flow state saved by the preceding text message.
func (r *RealTelegramBotAdapter) broadcastSendCBRoute(ctx context.Context, tgID int64, data string) error {
	state, err := r.states.GetState(ctx, tgID)
	if err != nil || state.Step != repository.StepAwaitingAudience {
		return r.SendMessage(ctx, tgID, "⚠️ Рассылка не найдена, начните заново.")
	}
	audience := usecase.AudienceAll
	if data == "bc_send_new" {
		audience = usecase.AudienceNeverIssued
	}

	text, err := r.facade.HandleBroadcast(ctx, state.Data["text"], audience)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("broadcast failed")
		text = "⚠️ Не удалось запустить рассылку."
	}
	if err := r.states.ClearState(ctx, tgID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear broadcast state")
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) broadcastCancelCBRoute(ctx context.Context, tgID int64, _ string) error {
	if err := r.states.ClearState(ctx, tgID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear broadcast state")
	}
	return r.SendMessage(ctx, tgID, "❌ Рассылка отменена")
}

func (r *RealTelegramBotAdapter) openTicketsCBRoute(ctx context.Context, tgID int64, _ string) error {
	text, err := r.facade.HandleOpenTickets(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) answerStartCBRoute(ctx context.Context, tgID int64, _ string) error {
	if err := r.states.SetState(ctx, tgID, &repository.FlowState{Step: repository.StepAwaitingAnswer}); err != nil {
		return err
	}
	return r.SendMessage(ctx, tgID, "💬 Отправьте ответ в формате:\n<номер вопроса> <текст ответа>")
}
