package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

func chatMsg(id int, from, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: id,
		From:      &tgbotapi.User{ID: 7, UserName: from},
		Chat:      group,
		Text:      text,
	}}
}

func TestRelayPostsFilteredLines(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) { s.FilteredWords = "spam" })

	b.handleUpdate(ctx, chatMsg(1, "bob", "buy spam now"))
	b.handleUpdate(ctx, chatMsg(2, "carol", "hello"))

	want := []string{"bob: buy **** now", "carol: hello"}
	if diff := cmp.Diff(want, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}
}

func TestRelaySkipsRelayChatAndEmptyMessages(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	relayed := chatMsg(1, "bob", "hello")
	relayed.Message.Chat = &tgbotapi.Chat{ID: relayChat, Type: "group"}
	b.handleUpdate(ctx, relayed)
	b.handleUpdate(ctx, chatMsg(2, "bob", ""))

	if len(api.sent) != 0 {
		t.Errorf("unexpected messages: %v", api.sent)
	}
}

func TestRelayBlockedLineIsNotPosted(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) {
		s.FilteredWords = "spam"
		s.Mode = model.ModeSuppress
	})

	b.handleUpdate(ctx, chatMsg(1, "bob", "spam spam"))
	b.handleUpdate(ctx, chatMsg(2, "bob", "fine"))

	if diff := cmp.Diff([]string{"bob: fine"}, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}
}

func TestRelayKeepsUserText(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	b.handleUpdate(ctx, chatMsg(1, "alice", "if x<y and y>z then"))
	b.handleUpdate(ctx, chatMsg(2, "alice", "gold<col=ff0000> x 5"))

	want := []string{"alice: if x<y and y>z then", "alice: gold<col=ff0000> x 5"}
	if diff := cmp.Diff(want, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}

	edited := chatMsg(1, "alice", "if a<b then")
	b.handleUpdate(ctx, tgbotapi.Update{EditedMessage: edited.Message})
	wantEdits := []sentMsg{{ChatID: relayChat, MessageID: 1, Text: "alice: if a<b then"}}
	if diff := cmp.Diff(wantEdits, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}
}

func TestRelayCollapsesRepeats(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) { s.CollapsePlayerChat = true })

	b.handleUpdate(ctx, chatMsg(1, "bob", "hi"))
	b.handleUpdate(ctx, chatMsg(2, "bob", "hi"))
	b.handleUpdate(ctx, chatMsg(3, "bob", "hi"))

	want := []string{"bob: hi", "bob: hi x 2", "bob: hi x 3"}
	if diff := cmp.Diff(want, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, api.deleted); diff != "" {
		t.Errorf("deleted relay ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, len(b.sessions[sourceChat].buf.Lines())); diff != "" {
		t.Errorf("visible lines (-want +got):\n%s", diff)
	}
}

func TestRelayCollapseWindowMergesIntoVisibleLine(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) { s.CollapseWindow = true })

	b.handleUpdate(ctx, chatMsg(1, "bob", "gg"))
	b.handleUpdate(ctx, chatMsg(2, "carol", "wp"))
	b.handleUpdate(ctx, chatMsg(3, "bob", "gg"))
	b.handleUpdate(ctx, chatMsg(4, "bob", "gg"))

	if diff := cmp.Diff([]string{"bob: gg", "carol: wp"}, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}
	want := []sentMsg{
		{ChatID: relayChat, MessageID: 1, Text: "bob: gg x 2"},
		{ChatID: relayChat, MessageID: 1, Text: "bob: gg x 3"},
	}
	if diff := cmp.Diff(want, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, b.sessions[sourceChat].buf.Len()); diff != "" {
		t.Errorf("buffered lines (-want +got):\n%s", diff)
	}
}

func TestRelayReconfigureRerendersRecentLines(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	b.handleUpdate(ctx, chatMsg(1, "bob", "buy gold cheap"))
	b.handleUpdate(ctx, chatMsg(2, "carol", "nice weather"))
	api.reset()

	b.handleUpdate(ctx, command("/words gold"))
	want := []sentMsg{{ChatID: relayChat, MessageID: 1, Text: "bob: buy **** cheap"}}
	if diff := cmp.Diff(want, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}

	b.handleUpdate(ctx, command("/mode remove"))
	if diff := cmp.Diff([]int{1}, api.deleted); diff != "" {
		t.Errorf("deleted relay ids (-want +got):\n%s", diff)
	}

	// A hidden line is not posted again when it becomes visible.
	b.handleUpdate(ctx, command("/words -"))
	if diff := cmp.Diff([]string(nil), api.textsTo(relayChat)); diff != "" {
		t.Errorf("reposted relay texts (-want +got):\n%s", diff)
	}
}

func TestRelayRosterExemptsFriends(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) { s.FilteredWords = "darn" })

	b.handleUpdate(ctx, command("/friend bob"))
	b.handleUpdate(ctx, chatMsg(1, "bob", "darn it"))
	if diff := cmp.Diff([]string{"bob: darn it"}, api.textsTo(relayChat)); diff != "" {
		t.Errorf("relay texts (-want +got):\n%s", diff)
	}

	b.handleUpdate(ctx, command("/set friends on"))
	want := []sentMsg{{ChatID: relayChat, MessageID: 2, Text: "bob: **** it"}}
	if diff := cmp.Diff(want, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}
}

func TestRelayEditedMessage(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) {
		s.FilteredWords = "spam"
		s.FilteredNames = "^troll"
		s.Mode = model.ModeMask
	})

	b.handleUpdate(ctx, chatMsg(1, "bob", "hello"))
	edited := chatMsg(1, "bob", "hello spam")
	b.handleUpdate(ctx, tgbotapi.Update{EditedMessage: edited.Message})

	want := []sentMsg{{ChatID: relayChat, MessageID: 1, Text: "bob: hello ****"}}
	if diff := cmp.Diff(want, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}

	unknown := chatMsg(99, "bob", "spam")
	b.handleUpdate(ctx, tgbotapi.Update{EditedMessage: unknown.Message})
	if diff := cmp.Diff(1, len(api.edits)); diff != "" {
		t.Errorf("edit count (-want +got):\n%s", diff)
	}
}

func TestRelayEditedMessageBlockedDeletesCopy(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) {
		s.FilteredWords = "spam"
		s.Mode = model.ModeSuppress
	})

	b.handleUpdate(ctx, chatMsg(1, "bob", "hello"))
	edited := chatMsg(1, "bob", "spam")
	b.handleUpdate(ctx, tgbotapi.Update{EditedMessage: edited.Message})

	if diff := cmp.Diff([]int{1}, api.deleted); diff != "" {
		t.Errorf("deleted relay ids (-want +got):\n%s", diff)
	}
	e, _ := b.sessions[sourceChat].buf.Get(1)
	if e.Visible() {
		t.Error("entry still visible after its edit was blocked")
	}
}

func TestApplySourcesUpdatesSessions(t *testing.T) {
	ctx := context.Background()
	b, api, _ := newTestBot(t)

	b.handleUpdate(ctx, chatMsg(1, "bob", "visit scam.example"))
	api.reset()

	b.applySources(filter.Sources{Regex: `scam\.example`})
	want := []sentMsg{{ChatID: relayChat, MessageID: 1, Text: "bob: visit ************"}}
	if diff := cmp.Diff(want, api.edits); diff != "" {
		t.Errorf("edits (-want +got):\n%s", diff)
	}

	other := chatMsg(1, "dave", "scam.example")
	other.Message.Chat = &tgbotapi.Chat{ID: -300, Type: "group"}
	b.handleUpdate(ctx, other)
	if diff := cmp.Diff([]string{"dave: ************"}, api.textsTo(relayChat)); diff != "" {
		t.Errorf("new session relay texts (-want +got):\n%s", diff)
	}
}

func TestRunAppliesSourcesAndShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b, _, _ := newTestBot(t)
	b.handleUpdate(ctx, chatMsg(1, "bob", "hello"))

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	b.ApplySources(ctx, filter.Sources{Words: "hello"})
	cancel()
	<-done

	sess := b.sessions[sourceChat]
	if diff := cmp.Diff(filter.Sources{Words: "hello"}, b.external); diff != "" {
		t.Errorf("external sources (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, sess.buf.Len()); diff != "" {
		t.Errorf("buffered lines after shutdown (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, len(sess.filter.Rules().Content)); diff != "" {
		t.Errorf("rules after shutdown (-want +got):\n%s", diff)
	}
}

func TestToMessage(t *testing.T) {
	user := &tgbotapi.User{ID: 1, UserName: "bob"}
	private := &tgbotapi.Chat{ID: 1, Type: "private"}

	tests := []struct {
		name   string
		msg    *tgbotapi.Message
		want   model.Message
		wantOK bool
	}{
		{
			name:   "group text",
			msg:    &tgbotapi.Message{MessageID: 1, From: user, Chat: group, Text: "hi"},
			want:   model.Message{ID: 1, ChatID: sourceChat, Type: model.TypePublic, Author: "bob", Text: "hi"},
			wantOK: true,
		},
		{
			name: "anonymous admin",
			msg: &tgbotapi.Message{MessageID: 2, From: &tgbotapi.User{UserName: "GroupAnonymousBot"},
				SenderChat: group, Chat: group, Text: "rules"},
			want:   model.Message{ID: 2, ChatID: sourceChat, Type: model.TypeMod, Author: "Lobby", Text: "rules"},
			wantOK: true,
		},
		{
			name:   "via bot",
			msg:    &tgbotapi.Message{MessageID: 3, From: user, Chat: group, Text: "gif", ViaBot: &tgbotapi.User{UserName: "gif"}},
			want:   model.Message{ID: 3, ChatID: sourceChat, Type: model.TypeAutotyper, Author: "bob", Text: "gif"},
			wantOK: true,
		},
		{
			name:   "private",
			msg:    &tgbotapi.Message{MessageID: 4, From: user, Chat: private, Text: "psst"},
			want:   model.Message{ID: 4, ChatID: 1, Type: model.TypePrivate, Author: "bob", Text: "psst"},
			wantOK: true,
		},
		{
			name: "join",
			msg: &tgbotapi.Message{MessageID: 5, From: user, Chat: group,
				NewChatMembers: []tgbotapi.User{{FirstName: "Ann", LastName: "Lee"}, {UserName: "zed"}}},
			want:   model.Message{ID: 5, ChatID: sourceChat, Type: model.TypeLoginLogout, Text: "Ann Lee, zed joined the chat"},
			wantOK: true,
		},
		{
			name:   "leave",
			msg:    &tgbotapi.Message{MessageID: 6, From: user, Chat: group, LeftChatMember: user},
			want:   model.Message{ID: 6, ChatID: sourceChat, Type: model.TypeLoginLogout, Text: "bob left the chat"},
			wantOK: true,
		},
		{
			name:   "pin",
			msg:    &tgbotapi.Message{MessageID: 7, From: user, Chat: group, PinnedMessage: &tgbotapi.Message{Text: "x"}},
			want:   model.Message{ID: 7, ChatID: sourceChat, Type: model.TypeGame, Text: "bob pinned a message"},
			wantOK: true,
		},
		{
			name:   "title",
			msg:    &tgbotapi.Message{MessageID: 8, From: user, Chat: group, NewChatTitle: "Hall"},
			want:   model.Message{ID: 8, ChatID: sourceChat, Type: model.TypeGame, Text: `bob changed the title to "Hall"`},
			wantOK: true,
		},
		{
			name:   "forward",
			msg:    &tgbotapi.Message{MessageID: 9, From: user, Chat: group, Caption: "look", ForwardSenderName: "someone"},
			want:   model.Message{ID: 9, ChatID: sourceChat, Type: model.TypeSpam, Author: "bob", Text: "look"},
			wantOK: true,
		},
		{
			name:   "automatic forward",
			msg:    &tgbotapi.Message{MessageID: 10, From: user, Chat: group, Text: "post", IsAutomaticForward: true, ForwardFromChat: group},
			want:   model.Message{ID: 10, ChatID: sourceChat, Type: model.TypeEngine, Author: "bob", Text: "post"},
			wantOK: true,
		},
		{
			name:   "sticker",
			msg:    &tgbotapi.Message{MessageID: 11, From: user, Chat: group},
			want:   model.Message{ID: 11, ChatID: sourceChat, Type: model.TypePublic, Author: "bob"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toMessage(tt.msg)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("toMessage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreloadOpensStoredChats(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	seedSettings(t, store, func(s *model.Settings) { s.FilteredWords = "spam" })

	b.preload(ctx)

	sess, ok := b.sessions[sourceChat]
	if !ok {
		t.Fatal("expected a session for the stored chat")
	}
	if diff := cmp.Diff("spam", sess.filter.Settings().FilteredWords); diff != "" {
		t.Errorf("words (-want +got):\n%s", diff)
	}

	b.handleUpdate(ctx, chatMsg(1, "bob", "hi"))
	if diff := cmp.Diff("Lobby", sess.title); diff != "" {
		t.Errorf("title (-want +got):\n%s", diff)
	}
}
