// Package bot is the Telegram surface: it mirrors watched chats into the
// relay chat through the chat filter and serves the admin commands.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat_filter/internal/chatfilter"
	"chat_filter/internal/config"
	"chat_filter/internal/filter"
	"chat_filter/internal/metrics"
	"chat_filter/internal/model"
	"chat_filter/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot relays chat messages through the filter and handles admin commands.
// All chat state is owned by the Run loop.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	cfg      *config.Config
	defaults model.Settings
	metrics  *metrics.Collector
	log      *slog.Logger

	self     string
	sessions map[int64]*session
	external filter.Sources
	sources  chan filter.Sources
}

// New creates a Bot with the given Telegram token, storage, and config.
// defaults are applied to chats without stored settings; m may be nil.
func New(token string, store storage.Storage, cfg *config.Config, defaults model.Settings, m *metrics.Collector, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, api.Self.UserName, store, cfg, defaults, m, log), nil
}

func newBot(api telegramAPI, self string, store storage.Storage, cfg *config.Config, defaults model.Settings, m *metrics.Collector, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		store:    store,
		cfg:      cfg,
		defaults: defaults,
		metrics:  m,
		log:      log,
		self:     self,
		sessions: make(map[int64]*session),
		sources:  make(chan filter.Sources),
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "edited_message", "callback_query"}

	b.preload(ctx)
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.shutdown()
			return
		case src := <-b.sources:
			b.applySources(src)
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// preload opens a session for every chat with stored settings.
func (b *Bot) preload(ctx context.Context) {
	ids, err := b.store.ListChats(ctx)
	if err != nil {
		b.log.Error("list chats", "error", err)
		return
	}
	for _, id := range ids {
		if _, err := b.session(ctx, &tgbotapi.Chat{ID: id}); err != nil {
			b.log.Error("load session", "chat_id", id, "error", err)
		}
	}
}

// ApplySources hands reloaded shared rule lists to the Run loop.
func (b *Bot) ApplySources(ctx context.Context, src filter.Sources) {
	select {
	case b.sources <- src:
	case <-ctx.Done():
	}
}

func (b *Bot) applySources(src filter.Sources) {
	b.external = src
	for _, s := range b.sessions {
		s.filter.SetExternalSources(src)
	}
}

func (b *Bot) shutdown() {
	for _, s := range b.sessions {
		s.filter.Handle(chatfilter.Event{Kind: chatfilter.EventShutdown})
		s.buf.Clear()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			return
		}
		if !b.cfg.IsUserAllowed(cb.From.ID) {
			b.answerCallback(cb.ID, "Access denied.")
			return
		}
		b.handleCallback(ctx, cb)
	case update.Message != nil:
		msg := update.Message
		if msg.Chat.ID == b.cfg.RelayChatID {
			return
		}
		if msg.IsCommand() {
			if msg.From == nil || !b.cfg.IsUserAllowed(msg.From.ID) {
				b.reply(msg.Chat.ID, "Access denied.")
				return
			}
			b.handleCommand(ctx, msg)
			return
		}
		b.relay(ctx, msg)
	case update.EditedMessage != nil:
		if update.EditedMessage.Chat.ID == b.cfg.RelayChatID {
			return
		}
		b.relayEdit(ctx, update.EditedMessage)
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdSettings:
		b.handleSettings(ctx, msg.Chat)
	case "words":
		b.handleRuleList(ctx, msg.Chat, filter.KindWord, args)
	case "regex":
		b.handleRuleList(ctx, msg.Chat, filter.KindRegex, args)
	case "names":
		b.handleRuleList(ctx, msg.Chat, filter.KindName, args)
	case cmdMode:
		b.handleMode(ctx, msg.Chat, args)
	case "set":
		b.handleSet(ctx, msg.Chat, args)
	case "maxrepeat":
		b.handleMaxRepeat(ctx, msg.Chat, args)
	case "color":
		b.handleColor(ctx, msg.Chat, args)
	case "friend":
		b.handleAddMember(ctx, msg.Chat, args, model.RelationFriend)
	case "unfriend":
		b.handleRemoveMember(ctx, msg.Chat, args, model.RelationFriend)
	case "clan":
		b.handleAddMember(ctx, msg.Chat, args, model.RelationClan)
	case "unclan":
		b.handleRemoveMember(ctx, msg.Chat, args, model.RelationClan)
	case "roster":
		b.handleRoster(ctx, chatID)
	case "export":
		b.handleExport(ctx, msg.Chat)
	case "import":
		b.handleImport(ctx, msg.Chat, args)
	case "refresh":
		b.handleRefresh(ctx, msg.Chat)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
