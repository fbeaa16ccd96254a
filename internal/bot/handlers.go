package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat_filter/internal/config"
	"chat_filter/internal/filter"
	"chat_filter/internal/model"
	"chat_filter/internal/storage"
)

const exportFileName = "chatfilter.yaml"

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Chat Filter Bot!

Messages in this chat are filtered and mirrored to the relay chat.

Quick start:
1. /words spam, scam - censor words
2. /mode - choose what a match does
3. /set player on - collapse repeated messages

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Rules:
/words [list|-] - show or set comma separated words
/regex [patterns|-] - show or set regexes, one per line
/names [patterns|-] - show or set author name patterns, one per line; "_" in a name also matches as a space
/mode [mask|replace|remove] - what a match does

Settings:
/settings - show settings and toggles
/set <flag> <on|off> - flags: `+flagNames()+`
/maxrepeat <n> - repeats allowed in public chat before collapsing (0 = always)
/color <hex> - color of the repeat counter

Roster:
/friend <name>, /unfriend <name>
/clan <name>, /unclan <name>
/roster - show friends and clan

Other:
/export - download settings as YAML
/import <yaml> - replace settings and roster
/refresh - re-filter the recent lines`)
}

func (b *Bot) handleSettings(ctx context.Context, chat *tgbotapi.Chat) {
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	msg := tgbotapi.NewMessage(chat.ID, FormatSettings(s))
	msg.ReplyMarkup = settingsKeyboard(s)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send settings", "chat_id", chat.ID, "error", err)
	}
}

func (b *Bot) handleRuleList(ctx context.Context, chat *tgbotapi.Chat, kind filter.RuleKind, args string) {
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	if args == "" {
		b.reply(chat.ID, FormatRuleList(kind, *ruleField(&s, kind)))
		return
	}

	blob := ParseRuleList(kind, args)
	var bad []string
	if kind != filter.KindWord {
		bad = InvalidPatterns(blob)
	}
	*ruleField(&s, kind) = blob
	if err := b.saveSettings(ctx, sess, s); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	reply := FormatRuleList(kind, blob)
	if len(bad) > 0 {
		reply += fmt.Sprintf("\nSkipped invalid patterns: %s", strings.Join(bad, ", "))
	}
	b.reply(chat.ID, reply)
}

func (b *Bot) handleMode(ctx context.Context, chat *tgbotapi.Chat, args string) {
	if args == "" {
		sess, ok := b.sessionOrReply(ctx, chat)
		if !ok {
			return
		}
		msg := tgbotapi.NewMessage(chat.ID, "Mode: "+modeLabel(sess.filter.Settings().Mode))
		msg.ReplyMarkup = modeKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send mode keyboard", "chat_id", chat.ID, "error", err)
		}
		return
	}
	mode, err := ParseMode(args)
	if err != nil {
		b.reply(chat.ID, err.Error())
		return
	}
	b.setMode(ctx, chat, mode)
}

func (b *Bot) setMode(ctx context.Context, chat *tgbotapi.Chat, mode model.FilterMode) {
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	s.Mode = mode
	if err := b.saveSettings(ctx, sess, s); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chat.ID, "Mode set to "+modeLabel(mode)+".")
}

func (b *Bot) handleSet(ctx context.Context, chat *tgbotapi.Chat, args string) {
	name, value, err := ParseSetArgs(args)
	if err != nil {
		b.reply(chat.ID, err.Error())
		return
	}
	b.setFlag(ctx, chat, name, func(bool) bool { return value })
}

// setFlag updates a boolean setting with update applied to its current value.
func (b *Bot) setFlag(ctx context.Context, chat *tgbotapi.Chat, name string, update func(bool) bool) {
	flag, ok := lookupFlag(name)
	if !ok {
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	field := flag.field(&s)
	*field = update(*field)
	if err := b.saveSettings(ctx, sess, s); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chat.ID, fmt.Sprintf("%s: %s", flag.label, onOff(*field)))
}

func (b *Bot) handleMaxRepeat(ctx context.Context, chat *tgbotapi.Chat, args string) {
	n, err := ParseMaxRepeat(args)
	if err != nil {
		b.reply(chat.ID, err.Error())
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	s.MaxRepeatedPublicChats = n
	if err := b.saveSettings(ctx, sess, s); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chat.ID, fmt.Sprintf("Max repeats in public chat set to %d.", n))
}

func (b *Bot) handleColor(ctx context.Context, chat *tgbotapi.Chat, args string) {
	c, err := ParseColor(args)
	if err != nil {
		b.reply(chat.ID, err.Error())
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	s := sess.filter.Settings()
	s.CountColor = c
	if err := b.saveSettings(ctx, sess, s); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chat.ID, fmt.Sprintf("Count color set to %s.", c))
}

func (b *Bot) handleAddMember(ctx context.Context, chat *tgbotapi.Chat, args string, rel model.Relation) {
	name, err := ParseName(args)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Usage: /%s <name>", relationCommand(rel)))
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	m := &model.Member{ChatID: chat.ID, Name: name, Relation: rel}
	if err := b.store.AddMember(ctx, m); err != nil {
		if errors.Is(err, storage.ErrExists) {
			b.reply(chat.ID, fmt.Sprintf("%s is already on the %s list.", name, rel))
			return
		}
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	sess.roster.add(name, rel)
	b.refresh(sess)
	b.reply(chat.ID, fmt.Sprintf("Added %s to the %s list.", name, rel))
}

func (b *Bot) handleRemoveMember(ctx context.Context, chat *tgbotapi.Chat, args string, rel model.Relation) {
	name, err := ParseName(args)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Usage: /un%s <name>", relationCommand(rel)))
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	if err := b.store.RemoveMember(ctx, chat.ID, name, rel); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.reply(chat.ID, fmt.Sprintf("%s is not on the %s list.", name, rel))
			return
		}
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	sess.roster.remove(name, rel)
	b.refresh(sess)
	b.reply(chat.ID, fmt.Sprintf("Removed %s from the %s list.", name, rel))
}

func (b *Bot) handleRoster(ctx context.Context, chatID int64) {
	members, err := b.store.ListMembers(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatRoster(members))
}

func (b *Bot) handleExport(ctx context.Context, chat *tgbotapi.Chat) {
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	members, err := b.store.ListMembers(ctx, chat.ID)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	data, err := config.ExportYAML(sess.filter.Settings(), members)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	doc := tgbotapi.NewDocument(chat.ID, tgbotapi.FileBytes{Name: exportFileName, Bytes: data})
	doc.Caption = "Use /import followed by this document's text to restore it."
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send export", "chat_id", chat.ID, "error", err)
	}
}

func (b *Bot) handleImport(ctx context.Context, chat *tgbotapi.Chat, args string) {
	if args == "" {
		b.reply(chat.ID, "Usage: /import followed by the YAML settings on the next lines")
		return
	}
	settings, members, err := config.ImportYAML([]byte(args), chat.ID)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Import failed: %v", err))
		return
	}
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}

	current, err := b.store.ListMembers(ctx, chat.ID)
	if err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	for _, m := range current {
		if err := b.store.RemoveMember(ctx, chat.ID, m.Name, m.Relation); err != nil && !errors.Is(err, storage.ErrNotFound) {
			b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
			return
		}
	}
	var added []model.Member
	for i := range members {
		m := &members[i]
		m.Name = filter.Standardize(m.Name)
		if m.Name == "" {
			continue
		}
		if err := b.store.AddMember(ctx, m); err != nil && !errors.Is(err, storage.ErrExists) {
			b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
			return
		}
		added = append(added, *m)
	}
	sess.roster.replace(added)

	if err := b.saveSettings(ctx, sess, settings); err != nil {
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chat.ID, fmt.Sprintf("Imported settings with %d roster entries.", len(added)))
}

func (b *Bot) handleRefresh(ctx context.Context, chat *tgbotapi.Chat) {
	sess, ok := b.sessionOrReply(ctx, chat)
	if !ok {
		return
	}
	b.refresh(sess)
	b.reply(chat.ID, fmt.Sprintf("Refreshed %d recent lines.", sess.buf.Len()))
}

// sessionOrReply returns the chat's session, replying with the error when
// it cannot be loaded.
func (b *Bot) sessionOrReply(ctx context.Context, chat *tgbotapi.Chat) (*session, bool) {
	sess, err := b.session(ctx, chat)
	if err != nil {
		b.log.Error("load session", "chat_id", chat.ID, "error", err)
		b.reply(chat.ID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	return sess, true
}

func relationCommand(rel model.Relation) string {
	if rel == model.RelationClan {
		return "clan"
	}
	return "friend"
}
