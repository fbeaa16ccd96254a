// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"chat_filter/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when adding a roster entry that is already present.
	ErrExists = errors.New("already exists")
)

// Storage is the interface for all persistence operations.
type Storage interface {
	GetSettings(ctx context.Context, chatID int64) (*model.Settings, error)
	SaveSettings(ctx context.Context, s *model.Settings) error
	ListChats(ctx context.Context) ([]int64, error)

	AddMember(ctx context.Context, m *model.Member) error
	RemoveMember(ctx context.Context, chatID int64, name string, rel model.Relation) error
	ListMembers(ctx context.Context, chatID int64) ([]model.Member, error)

	Close() error
}
