package bot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chat_filter/internal/filter"
	"chat_filter/internal/model"
)

func TestParseSetArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantFlag  string
		wantValue bool
		wantErr   bool
	}{
		{name: "on", args: "login on", wantFlag: "login", wantValue: true},
		{name: "off", args: "window off", wantFlag: "window", wantValue: false},
		{name: "numeric", args: "clan 1", wantFlag: "clan", wantValue: true},
		{name: "upper value", args: "game OFF", wantFlag: "game", wantValue: false},
		{name: "missing value", args: "login", wantErr: true},
		{name: "unknown flag", args: "volume on", wantErr: true},
		{name: "bad value", args: "login maybe", wantErr: true},
		{name: "empty", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, value, err := ParseSetArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantFlag, flag); diff != "" {
				t.Errorf("flag mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantValue, value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMaxRepeat(t *testing.T) {
	tests := []struct {
		args    string
		want    int
		wantErr bool
	}{
		{args: "0", want: 0},
		{args: " 5 ", want: 5},
		{args: "1000", want: 1000},
		{args: "1001", wantErr: true},
		{args: "-1", wantErr: true},
		{args: "many", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := ParseMaxRepeat(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseMaxRepeat() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseColorAndMode(t *testing.T) {
	if c, err := ParseColor("#AbCdEf"); err != nil || c != "abcdef" {
		t.Errorf("ParseColor(#AbCdEf) = %q, %v", c, err)
	}
	if _, err := ParseColor("blue"); err == nil {
		t.Error("expected error for named color")
	}
	if m, err := ParseMode("replace"); err != nil || m != model.ModeReplace {
		t.Errorf("ParseMode(replace) = %v, %v", m, err)
	}
	if m, err := ParseMode("remove_message"); err != nil || m != model.ModeSuppress {
		t.Errorf("ParseMode(remove_message) = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Error("expected error for empty mode")
	}
}

func TestParseName(t *testing.T) {
	got, err := ParseName("  Zezima_The<col=ff0000>Great</col> ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("zezima thegreat", got); diff != "" {
		t.Errorf("ParseName() mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseName("<b></b>"); err == nil {
		t.Error("expected error for a name made only of tags")
	}
}

func TestParseRuleList(t *testing.T) {
	tests := []struct {
		name string
		kind filter.RuleKind
		args string
		want string
	}{
		{name: "words by comma", kind: filter.KindWord, args: "spam, eggs ,,ham", want: "spam,eggs,ham"},
		{name: "words by line", kind: filter.KindWord, args: "spam\neggs", want: "spam,eggs"},
		{name: "regex keeps commas", kind: filter.KindRegex, args: "a{1,3}\n\n  b+ ", want: "a{1,3}\nb+"},
		{name: "names", kind: filter.KindName, args: "^bot\nspammer", want: "^bot\nspammer"},
		{name: "clear", kind: filter.KindRegex, args: " - ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseRuleList(tt.kind, tt.args)); diff != "" {
				t.Errorf("ParseRuleList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidPatterns(t *testing.T) {
	got := InvalidPatterns("ok+\n(open\n[z-a]\nfine")
	if diff := cmp.Diff([]string{"(open", "[z-a]"}, got); diff != "" {
		t.Errorf("InvalidPatterns() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRelay(t *testing.T) {
	tests := []struct {
		name   string
		author string
		text   string
		want   string
	}{
		{name: "player", author: "bob", text: "hi", want: "bob: hi"},
		{name: "marker", author: "bob", text: "hi<col=ff0000> x 3", want: "bob: hi x 3"},
		{name: "legacy marker", author: "bob", text: "hi<col=ff0000> x 3</col>", want: "bob: hi x 3"},
		{name: "system", author: "", text: "ann joined the chat", want: "ann joined the chat"},
		{name: "angle brackets kept", author: "alice", text: "if x<y and y>z then", want: "alice: if x<y and y>z then"},
		{name: "user markup kept", author: "alice", text: "<b>bold</b>", want: "alice: <b>bold</b>"},
		{name: "marker shaped text", author: "alice", text: "gold<col=ff0000> x 5<col=ff0000></col>", want: "alice: gold<col=ff0000> x 5"},
	}
	m := filter.Marker{Color: "ff0000"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatRelay(m, tt.author, tt.text)); diff != "" {
				t.Errorf("FormatRelay() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatSettings(t *testing.T) {
	s := model.DefaultSettings(-5)
	s.FilteredWords = "a,b"
	s.FilteredRegex = "x+"
	s.Mode = model.ModeSuppress
	s.FilterLogin = true
	s.MaxRepeatedPublicChats = 2

	got := FormatSettings(s)
	for _, want := range []string{
		"Settings for chat -5:",
		"Mode: remove (remove message)",
		"Words: 2",
		"Regex: 1",
		"Names: none",
		"Hide joins (login): on",
		"Filter friends (friends): off",
		"Max repeats in public chat: 2",
		"Count color: ff0000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatSettings() missing %q:\n%s", want, got)
		}
	}
}

func TestFormatRuleList(t *testing.T) {
	if diff := cmp.Diff("No name rules.", FormatRuleList(filter.KindName, "")); diff != "" {
		t.Errorf("empty list mismatch (-want +got):\n%s", diff)
	}
	want := "Word rules (2):\n  spam\n  eggs\n"
	if diff := cmp.Diff(want, FormatRuleList(filter.KindWord, "spam, eggs")); diff != "" {
		t.Errorf("word list mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRoster(t *testing.T) {
	if got := FormatRoster(nil); !strings.Contains(got, "roster is empty") {
		t.Errorf("empty roster = %q", got)
	}
	members := []model.Member{
		{Name: "bob", Relation: model.RelationClan},
		{Name: "alice", Relation: model.RelationFriend},
	}
	want := "Friends (1):\n  alice\n\nClan (1):\n  bob"
	if diff := cmp.Diff(want, FormatRoster(members)); diff != "" {
		t.Errorf("FormatRoster() mismatch (-want +got):\n%s", diff)
	}
}
