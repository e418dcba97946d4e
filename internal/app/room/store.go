package room

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store reads when the room record does not exist.
var ErrNotFound = errors.New("room not found")

// ErrSnippetNotFound is returned by Store reads when the snippet does not exist.
var ErrSnippetNotFound = errors.New("snippet not found")

// SnippetUpdate carries the editable snippet fields. Nil means "leave unchanged".
// Language and code are deliberately absent: they are immutable after creation.
type SnippetUpdate struct {
	Title       *string
	Description *string
}

// Store abstracts the persistence layer beneath the room service. The
// contract mirrors what the service needs from the backing document tree:
// point reads, keyed writes, an atomic cascading room delete, and a batched
// delete of expired rooms.
//
// Implementations must make CreateRoom and DeleteRoom atomic: no observable
// state where the room row exists without its admin member, or where the room
// is gone but children remain.
type Store interface {
	CreateRoom(ctx context.Context, r *Room, admin User) error
	GetRoomMeta(ctx context.Context, roomID string) (*Room, error)
	GetRoomAggregate(ctx context.Context, roomID string) (*Room, error)
	DeleteRoom(ctx context.Context, roomID string) error

	AddUser(ctx context.Context, roomID string, u User) error
	RemoveUser(ctx context.Context, roomID string, userID string) error
	ListUsers(ctx context.Context, roomID string) ([]User, error)

	AddSnippet(ctx context.Context, roomID string, s Snippet) error
	GetSnippet(ctx context.Context, roomID string, snippetID string) (*Snippet, error)
	UpdateSnippet(ctx context.Context, roomID string, snippetID string, update SnippetUpdate) error
	DeleteSnippet(ctx context.Context, roomID string, snippetID string) error
	ListSnippets(ctx context.Context, roomID string) ([]Snippet, error)

	AddMessage(ctx context.Context, roomID string, m Message) error
	ListMessages(ctx context.Context, roomID string) ([]Message, error)

	// DeleteExpiredRooms removes every room with expiresAt <= now, cascading
	// to all children, and returns the ids of the rooms it removed.
	DeleteExpiredRooms(ctx context.Context, now time.Time) ([]string, error)
}
