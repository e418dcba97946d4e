/*
Package room contains the room lifecycle core: the domain model, the Store
contract against the backing database, and the Service that enforces
admission, authorization, expiration, and cascading deletion.
*/
package room

import "time"

// Role is a user's derived role within a room.
type Role string

const (
	// RoleAdmin is held by the user who created the room. It never rotates:
	// if the admin leaves, no remaining member can ever delete the room.
	RoleAdmin Role = "admin"

	// RoleMember is every other participant.
	RoleMember Role = "member"
)

// SystemUserID is the sentinel user id on system-generated chat notices
// (join, leave, admin left).
const SystemUserID = "system"

// Room is the aggregate root of a collaboration session. Users, snippets, and
// messages exist only as children of exactly one room and are removed with it.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"adminId"`
	AdminName string    `json:"adminName"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	// Password is nil for open rooms. It is stored and compared verbatim and
	// never serialized to clients; only HasPassword in Summary leaks out.
	Password *string `json:"-"`

	Users    []User    `json:"users"`
	Snippets []Snippet `json:"snippets"`
	Messages []Message `json:"messages"`
}

// Expired reports whether the room is logically expired at the given instant.
// An expired room is treated as absent on every read path, whether or not the
// sweep has physically removed it yet.
func (r *Room) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// RoleOf derives the role of the given user id. It is recomputed from the
// room record on every use and never cached.
func (r *Room) RoleOf(userID string) Role {
	if userID == r.AdminID {
		return RoleAdmin
	}
	return RoleMember
}

// Summary is the read-only probe returned before a client commits to joining,
// so the UI can decide whether to prompt for a password without creating a
// membership record.
type Summary struct {
	ID          string    `json:"id"`
	ExpiresAt   time.Time `json:"expiresAt"`
	HasPassword bool      `json:"hasPassword"`
}

// User is a per-room ephemeral membership record, not a cross-room account.
// A fresh id is minted on every join; there is no re-authentication across sessions.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Snippet is a shared code artifact owned by a room. Only Title and
// Description are editable after creation, and only by the room admin or the
// original creator.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
	CreatedByID string    `json:"createdById"`
}

// Message is an immutable chat entry. UserID holds SystemUserID for
// system-generated notices. SnippetID/SnippetTitle, when set, scope the
// message to a per-snippet discussion thread.
type Message struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	UserColor    string    `json:"userColor,omitempty"`
	Text         string    `json:"text"`
	SnippetID    *string   `json:"snippetId,omitempty"`
	SnippetTitle *string   `json:"snippetTitle,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Identity carries the authenticated requester of an operation, as decoded
// from the room access token. The service trusts these fields because the
// token was signed at create/join time; clients never assert identity directly.
type Identity struct {
	UserID string
	Name   string
	Color  string
}
