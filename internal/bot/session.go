package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat_filter/internal/chatfilter"
	"chat_filter/internal/chatlog"
	"chat_filter/internal/filter"
	"chat_filter/internal/model"
	"chat_filter/internal/storage"
)

// session is the filtering state of one source chat.
type session struct {
	chatID int64
	title  string
	roster *rosterCache
	filter *chatfilter.Filter
	buf    *chatlog.Buffer
}

// rosterCache holds standardized friend and clan names.
type rosterCache struct {
	friends map[string]bool
	clan    map[string]bool
}

func newRosterCache(members []model.Member) *rosterCache {
	r := &rosterCache{}
	r.replace(members)
	return r
}

func (r *rosterCache) replace(members []model.Member) {
	r.friends = make(map[string]bool)
	r.clan = make(map[string]bool)
	for _, m := range members {
		r.add(m.Name, m.Relation)
	}
}

func (r *rosterCache) set(rel model.Relation) map[string]bool {
	if rel == model.RelationClan {
		return r.clan
	}
	return r.friends
}

func (r *rosterCache) add(name string, rel model.Relation) {
	r.set(rel)[filter.Standardize(name)] = true
}

func (r *rosterCache) remove(name string, rel model.Relation) {
	delete(r.set(rel), filter.Standardize(name))
}

func (r *rosterCache) IsFriend(name string) bool {
	return r.friends[filter.Standardize(name)]
}

func (r *rosterCache) IsClanMember(name string) bool {
	return r.clan[filter.Standardize(name)]
}

// session returns the state of chat, loading settings and roster on first use.
func (b *Bot) session(ctx context.Context, chat *tgbotapi.Chat) (*session, error) {
	if s, ok := b.sessions[chat.ID]; ok {
		if chat.Title != "" {
			s.title = chat.Title
		}
		return s, nil
	}

	settings, err := b.loadSettings(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	members, err := b.store.ListMembers(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	s := &session{
		chatID: chat.ID,
		title:  chat.Title,
		roster: newRosterCache(members),
		buf:    chatlog.NewBuffer(chatlog.DefaultCapacity),
	}
	s.filter = chatfilter.New(settings, chatfilter.Deps{
		Roster:    s.roster,
		LocalName: func() string { return b.self },
		Refresh:   func() { b.refresh(s) },
		Log:       b.log.With("chat_id", chat.ID),
		Recorder:  b.metrics,
	})
	if b.external != (filter.Sources{}) {
		s.filter.SetExternalSources(b.external)
	}
	b.sessions[chat.ID] = s

	b.log.Info("open session", "chat_id", chat.ID, "title", chat.Title, "members", len(members))
	return s, nil
}

func (b *Bot) loadSettings(ctx context.Context, chatID int64) (model.Settings, error) {
	st, err := b.store.GetSettings(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		s := b.defaults
		s.ChatID = chatID
		return s, nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return *st, nil
}

// saveSettings persists s and applies it to the chat's filter.
func (b *Bot) saveSettings(ctx context.Context, sess *session, s model.Settings) error {
	s.ChatID = sess.chatID
	if err := b.store.SaveSettings(ctx, &s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	sess.filter.Reconfigure(s)
	return nil
}
