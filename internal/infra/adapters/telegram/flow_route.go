// File: internal/infra/adapters/telegram/flow_route.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
)

// handleFlowMessage routes a plain text message to the sender's pending flow.
// Text from a user with no pending flow is ignored. Admin-only steps double
// check authorization: the state store outlives a config change that revokes
// an admin.
func (r *RealTelegramBotAdapter) handleFlowMessage(ctx context.Context, message *tgbotapi.Message) error {
	tgID := message.From.ID

	state, err := r.states.GetState(ctx, tgID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load flow state: %w", err)
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}

	switch state.Step {
	case repository.StepAwaitingQuestion:
		return r.finishQuestionFlow(ctx, message, text)

	case repository.StepAwaitingNewCode:
		if !r.isAdmin(tgID) {
			return nil
		}
		reply, err := r.facade.HandleAddCode(ctx, text)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("add code failed")
			reply = "⚠️ Не удалось добавить промокод."
		}
		return r.finishFlow(ctx, tgID, reply)

	case repository.StepAwaitingCodeToDelete:
		if !r.isAdmin(tgID) {
			return nil
		}
		reply, err := r.facade.HandleRemoveCode(ctx, text)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("remove code failed")
			reply = "⚠️ Не удалось удалить промокод."
		}
		return r.finishFlow(ctx, tgID, reply)

	case repository.StepAwaitingBroadcastText:
		if !r.isAdmin(tgID) {
			return nil
		}
		next := &repository.FlowState{
			Step: repository.StepAwaitingAudience,
			Data: map[string]string{"text": text},
		}
		if err := r.states.SetState(ctx, tgID, next); err != nil {
			return fmt.Errorf("save broadcast text: %w", err)
		}
		rows := [][]adapter.InlineButton{
			{
				{Text: "📤 Отправить всем", Data: "bc_send_all"},
				{Text: "📤 Только новым игрокам", Data: "bc_send_new"},
			},
			{{Text: "❌ Отменить рассылку", Data: "bc_cancel"}},
		}
		return r.SendButtons(ctx, tgID, "📢 Текст рассылки:\n\n"+text, rows)

	case repository.StepAwaitingAnswer:
		if !r.isAdmin(tgID) {
			return nil
		}
		parts := strings.SplitN(text, " ", 2)
		if len(parts) < 2 {
			return r.SendMessage(ctx, tgID, "⚠️ Формат: <номер вопроса> <текст ответа>")
		}
		reply, err := r.facade.HandleAnswerTicket(ctx, parts[0], parts[1])
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("ticket answer failed")
			reply = "⚠️ Не удалось отправить ответ."
		}
		return r.finishFlow(ctx, tgID, reply)

	default:
		r.log.Warn().Str("step", string(state.Step)).Int64("tg_id", tgID).Msg("unknown flow step")
		return r.states.ClearState(ctx, tgID)
	}
}

func (r *RealTelegramBotAdapter) finishQuestionFlow(ctx context.Context, message *tgbotapi.Message, question string) error {
	tgID := message.From.ID
	reply, err := r.facade.HandleAskQuestion(ctx, tgID, question)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("ticket submit failed")
		return r.finishFlow(ctx, tgID, "⚠️ Не удалось отправить вопрос, попробуйте позже.")
	}

	// Heads-up for admins; per-admin delivery failure is not the user's problem.
	for adminID := range r.adminIDsMap {
		notice := fmt.Sprintf("📨 Новый вопрос от %s (@%s):\n\n%s",
			message.From.FirstName, message.From.UserName, question)
		if err := r.SendMessage(ctx, adminID, notice); err != nil {
			r.log.Warn().Err(err).Int64("admin_id", adminID).Msg("failed to notify admin of new ticket")
		}
	}
	return r.finishFlow(ctx, tgID, reply)
}

func (r *RealTelegramBotAdapter) finishFlow(ctx context.Context, tgID int64, reply string) error {
	if err := r.states.ClearState(ctx, tgID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear flow state")
	}
	return r.SendMessage(ctx, tgID, reply)
}
