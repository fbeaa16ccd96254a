package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"chat_filter/internal/model"
	"chat_filter/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const settingsColumns = `chat_id, filtered_words, filtered_regex, filtered_names, filter_mode,
	filter_friends, filter_clan, filter_login, collapse_game_chat, collapse_player_chat,
	max_repeated_public_chats, collapse_window, match_compacted, count_color, updated_at`

// GetSettings returns the stored settings of a chat, or ErrNotFound.
func (s *SQLite) GetSettings(ctx context.Context, chatID int64) (*model.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM chat_settings WHERE chat_id = ?`, chatID,
	)
	return scanSettings(row)
}

// SaveSettings inserts or replaces the settings of a chat and sets UpdatedAt.
func (s *SQLite) SaveSettings(ctx context.Context, st *model.Settings) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_settings (`+settingsColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET
			filtered_words = excluded.filtered_words,
			filtered_regex = excluded.filtered_regex,
			filtered_names = excluded.filtered_names,
			filter_mode = excluded.filter_mode,
			filter_friends = excluded.filter_friends,
			filter_clan = excluded.filter_clan,
			filter_login = excluded.filter_login,
			collapse_game_chat = excluded.collapse_game_chat,
			collapse_player_chat = excluded.collapse_player_chat,
			max_repeated_public_chats = excluded.max_repeated_public_chats,
			collapse_window = excluded.collapse_window,
			match_compacted = excluded.match_compacted,
			count_color = excluded.count_color,
			updated_at = excluded.updated_at`,
		st.ChatID, st.FilteredWords, st.FilteredRegex, st.FilteredNames, st.Mode.String(),
		boolToInt(st.FilterFriends), boolToInt(st.FilterClan), boolToInt(st.FilterLogin),
		boolToInt(st.CollapseGameChat), boolToInt(st.CollapsePlayerChat),
		st.MaxRepeatedPublicChats, boolToInt(st.CollapseWindow), boolToInt(st.MatchCompacted),
		st.CountColor, now,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	st.UpdatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListChats returns the ids of all chats with stored settings.
func (s *SQLite) ListChats(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM chat_settings ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMember inserts a roster entry and populates its ID and CreatedAt.
// It returns ErrExists when the entry is already present.
func (s *SQLite) AddMember(ctx context.Context, m *model.Member) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO roster (chat_id, name, relation, created_at) VALUES (?, ?, ?, ?)`,
		m.ChatID, m.Name, string(m.Relation), now,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrExists
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// RemoveMember deletes a roster entry. It returns ErrNotFound when nothing
// was deleted.
func (s *SQLite) RemoveMember(ctx context.Context, chatID int64, name string, rel model.Relation) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM roster WHERE chat_id = ? AND name = ? AND relation = ?`,
		chatID, name, string(rel),
	)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMembers returns the roster of a chat ordered by relation and name.
func (s *SQLite) ListMembers(ctx context.Context, chatID int64) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, name, relation, created_at FROM roster
		 WHERE chat_id = ? ORDER BY relation, name`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		var rel, created string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Name, &rel, &created); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Relation = model.Relation(rel)
		m.CreatedAt, _ = time.Parse(timeLayout, created)
		members = append(members, m)
	}
	return members, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSettings(row scannable) (*model.Settings, error) {
	var (
		st                                           model.Settings
		mode, updated                                string
		friends, clan, login, game, player, win, cmp int
	)
	err := row.Scan(&st.ChatID, &st.FilteredWords, &st.FilteredRegex, &st.FilteredNames, &mode,
		&friends, &clan, &login, &game, &player,
		&st.MaxRepeatedPublicChats, &win, &cmp, &st.CountColor, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	m, ok := model.ParseFilterMode(mode)
	if !ok {
		return nil, fmt.Errorf("unknown filter mode %q", mode)
	}
	st.Mode = m
	st.FilterFriends = friends == 1
	st.FilterClan = clan == 1
	st.FilterLogin = login == 1
	st.CollapseGameChat = game == 1
	st.CollapsePlayerChat = player == 1
	st.CollapseWindow = win == 1
	st.MatchCompacted = cmp == 1
	st.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &st, nil
}
