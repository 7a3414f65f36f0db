package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
	// SwitchInline puts the value into the user's input field when tapped
	// (used for copyable "connect <ip>" strings).
	SwitchInline string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
}
