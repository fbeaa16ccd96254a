package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat_filter/internal/chatfilter"
	"chat_filter/internal/chatlog"
	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

// relay mirrors a source chat message into the relay chat.
func (b *Bot) relay(ctx context.Context, tm *tgbotapi.Message) {
	msg, ok := toMessage(tm)
	if !ok {
		return
	}
	sess, err := b.session(ctx, tm.Chat)
	if err != nil {
		b.log.Error("load session", "chat_id", tm.Chat.ID, "error", err)
		return
	}

	if b.mergeIntoWindow(sess, msg) {
		return
	}

	sess.buf.Add(msg)
	sess.filter.Handle(chatfilter.Event{Kind: chatfilter.EventChatMessage, Message: msg})
	b.refresh(sess)
}

// mergeIntoWindow bumps the marker of a recent visible line msg repeats.
func (b *Bot) mergeIntoWindow(sess *session, msg model.Message) bool {
	text, blocked := sess.filter.Preview(msg)
	if blocked {
		return false
	}
	node := model.Line{ID: msg.ID, Type: msg.Type, Author: msg.Author, Value: text}
	merged, ok := sess.filter.CollapseIntoWindow(sess.buf.Lines(), node)
	if !ok {
		return false
	}
	e, ok := sess.buf.Get(merged.ID)
	if !ok {
		return false
	}
	e.Repeats++
	if text, blocked := b.render(sess, e); !blocked && text != e.Shown {
		b.editRelay(sess, e, text)
	}
	return true
}

// relayEdit applies an edited source message to its relay copy.
func (b *Bot) relayEdit(ctx context.Context, tm *tgbotapi.Message) {
	sess, err := b.session(ctx, tm.Chat)
	if err != nil {
		b.log.Error("load session", "chat_id", tm.Chat.ID, "error", err)
		return
	}
	e, ok := sess.buf.Get(int64(tm.MessageID))
	if !ok {
		return
	}
	msg, ok := toMessage(tm)
	if !ok {
		return
	}
	e.Message.Text = msg.Text
	if !e.Visible() {
		return
	}

	text := sess.filter.FilterOverheadText(e.Message.Author, msg.Text)
	text = sess.filter.Marker().Append(text, filter.DefaultQuantity)
	if strings.TrimSpace(text) == "" {
		b.deleteRelay(e)
		return
	}
	if text != e.Shown {
		b.editRelay(sess, e, text)
	}
}

// refresh re-renders every buffered line of sess and syncs the relay chat.
func (b *Bot) refresh(sess *session) {
	for _, e := range sess.buf.Entries() {
		text, blocked := b.render(sess, e)
		switch {
		case blocked:
			if e.Visible() {
				b.deleteRelay(e)
			}
		case e.Visible():
			if text != e.Shown {
				b.editRelay(sess, e, text)
			}
		case e.Pending():
			b.postRelay(sess, e, text)
		}
		e.Rendered()
	}
}

// render returns the text e shows now, including window merges.
func (b *Bot) render(sess *session, e *chatlog.Entry) (string, bool) {
	d := sess.filter.FilterChatLine(e.Message)
	if d.Block {
		return "", true
	}
	if e.Repeats <= 1 {
		return d.Text, false
	}
	m := sess.filter.Marker()
	base, count := m.Strip(d.Text)
	return m.Append(base, count+e.Repeats-1), false
}

func (b *Bot) postRelay(sess *session, e *chatlog.Entry, text string) {
	out := tgbotapi.NewMessage(b.cfg.RelayChatID, FormatRelay(sess.filter.Marker(), e.Message.Author, text))
	out.DisableWebPagePreview = true
	sent, err := b.api.Send(out)
	if err != nil {
		b.log.Error("send relay message", "chat_id", sess.chatID, "title", sess.title, "message_id", e.Message.ID, "error", err)
		return
	}
	e.RelayID = sent.MessageID
	e.Shown = text
}

func (b *Bot) editRelay(sess *session, e *chatlog.Entry, text string) {
	edit := tgbotapi.NewEditMessageText(b.cfg.RelayChatID, e.RelayID, FormatRelay(sess.filter.Marker(), e.Message.Author, text))
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit relay message", "chat_id", sess.chatID, "relay_id", e.RelayID, "error", err)
	}
	e.Shown = text
}

func (b *Bot) deleteRelay(e *chatlog.Entry) {
	del := tgbotapi.NewDeleteMessage(b.cfg.RelayChatID, e.RelayID)
	if _, err := b.api.Request(del); err != nil {
		b.log.Error("delete relay message", "relay_id", e.RelayID, "error", err)
	}
	e.Hide()
}

// toMessage converts a Telegram message. It reports false for messages
// without any text to show.
func toMessage(tm *tgbotapi.Message) (model.Message, bool) {
	msg := model.Message{
		ID:     int64(tm.MessageID),
		ChatID: tm.Chat.ID,
		Author: displayName(tm.From),
		Text:   tm.Text,
	}
	if msg.Text == "" {
		msg.Text = tm.Caption
	}

	switch {
	case len(tm.NewChatMembers) > 0:
		names := make([]string, 0, len(tm.NewChatMembers))
		for i := range tm.NewChatMembers {
			names = append(names, displayName(&tm.NewChatMembers[i]))
		}
		msg.Type, msg.Author = model.TypeLoginLogout, ""
		msg.Text = strings.Join(names, ", ") + " joined the chat"
	case tm.LeftChatMember != nil:
		msg.Type, msg.Author = model.TypeLoginLogout, ""
		msg.Text = displayName(tm.LeftChatMember) + " left the chat"
	case tm.PinnedMessage != nil:
		msg.Type = model.TypeGame
		msg.Text = fmt.Sprintf("%s pinned a message", msg.Author)
		msg.Author = ""
	case tm.NewChatTitle != "":
		msg.Type = model.TypeGame
		msg.Text = fmt.Sprintf("%s changed the title to %q", msg.Author, tm.NewChatTitle)
		msg.Author = ""
	case tm.IsAutomaticForward:
		msg.Type = model.TypeEngine
	case tm.ForwardFrom != nil || tm.ForwardFromChat != nil || tm.ForwardSenderName != "":
		msg.Type = model.TypeSpam
	case tm.ViaBot != nil:
		msg.Type = model.TypeAutotyper
	case tm.Chat.IsPrivate():
		msg.Type = model.TypePrivate
	case tm.SenderChat != nil:
		msg.Type = model.TypeMod
		msg.Author = tm.SenderChat.Title
	default:
		msg.Type = model.TypePublic
	}

	return msg, strings.TrimSpace(msg.Text) != ""
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
