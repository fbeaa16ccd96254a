package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat_filter/internal/model"
)

const (
	cmdSettings = "settings"
	cmdMode     = "mode"
	cmdToggle   = "toggle"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chat := cb.Message.Chat
	b.answerCallback(cb.ID, "")

	action, value, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}

	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", chat.ID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdMode:
		b.handleMode(ctx, chat, value)
	case cmdToggle:
		b.setFlag(ctx, chat, value, func(v bool) bool { return !v })
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
}

func modeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Mask", cmdMode+":mask"),
			tgbotapi.NewInlineKeyboardButtonData("Replace", cmdMode+":replace"),
			tgbotapi.NewInlineKeyboardButtonData("Remove", cmdMode+":remove"),
		),
	)
}

// settingsKeyboard offers one toggle per flag, two per row.
func settingsKeyboard(s model.Settings) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, f := range settingFlags {
		label := f.label + ": " + onOff(*f.field(&s))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cmdToggle+":"+f.name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Mode", cmdMode+":"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
