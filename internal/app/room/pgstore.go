package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sniproom/internal/app/db"
)

// PgStore is the PostgreSQL implementation of Store. The room document tree
// rooms/{id}/{users|snippets|messages} maps to four tables with ON DELETE
// CASCADE foreign keys, so the cascading room delete is a single
// transactional statement.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs a PgStore over the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// CreateRoom inserts the room row and its admin membership atomically.
func (s *PgStore) CreateRoom(ctx context.Context, r *Room, admin User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create room: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO rooms (id, name, admin_id, admin_name, password, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Name, r.AdminID, r.AdminName, r.Password, r.CreatedAt, r.ExpiresAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("room id %s already exists: %w", r.ID, err)
		}
		return fmt.Errorf("insert room: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO room_users (id, room_id, name, color, joined_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		admin.ID, r.ID, admin.Name, admin.Color, admin.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert admin member: %w", err)
	}

	return tx.Commit(ctx)
}

// GetRoomMeta reads the room row only, including the password column.
func (s *PgStore) GetRoomMeta(ctx context.Context, roomID string) (*Room, error) {
	var r Room
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, admin_id, admin_name, password, created_at, expires_at
		 FROM rooms WHERE id = $1`, roomID).
		Scan(&r.ID, &r.Name, &r.AdminID, &r.AdminName, &r.Password, &r.CreatedAt, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	return &r, nil
}

// GetRoomAggregate reads the room row and all nested collections.
func (s *PgStore) GetRoomAggregate(ctx context.Context, roomID string) (*Room, error) {
	r, err := s.GetRoomMeta(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if r.Users, err = s.ListUsers(ctx, roomID); err != nil {
		return nil, err
	}
	if r.Snippets, err = s.ListSnippets(ctx, roomID); err != nil {
		return nil, err
	}
	if r.Messages, err = s.ListMessages(ctx, roomID); err != nil {
		return nil, err
	}

	return r, nil
}

// DeleteRoom removes the room and, via FK cascade, all of its users, snippets,
// and messages in one statement. Deleting an absent room is a no-op.
func (s *PgStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// AddUser inserts a membership record. A foreign key violation means the room
// was deleted or swept after the caller's existence check, so it is reported
// as ErrNotFound rather than a storage failure.
func (s *PgStore) AddUser(ctx context.Context, roomID string, u User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO room_users (id, room_id, name, color, joined_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, roomID, u.Name, u.Color, u.JoinedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// RemoveUser deletes a membership record. Removing an id that is no longer
// present is a no-op, not an error.
func (s *PgStore) RemoveUser(ctx context.Context, roomID string, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM room_users WHERE room_id = $1 AND id = $2`, roomID, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// ListUsers returns the room's members ordered by join time.
func (s *PgStore) ListUsers(ctx context.Context, roomID string) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color, joined_at
		 FROM room_users WHERE room_id = $1 ORDER BY joined_at, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Color, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AddSnippet inserts a snippet record.
func (s *PgStore) AddSnippet(ctx context.Context, roomID string, sn Snippet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snippets (id, room_id, title, language, code, description, created_at, created_by, created_by_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sn.ID, roomID, sn.Title, sn.Language, sn.Code, sn.Description, sn.CreatedAt, sn.CreatedBy, sn.CreatedByID)
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert snippet: %w", err)
	}
	return nil
}

// GetSnippet reads a single snippet.
func (s *PgStore) GetSnippet(ctx context.Context, roomID string, snippetID string) (*Snippet, error) {
	var sn Snippet
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, language, code, description, created_at, created_by, created_by_id
		 FROM snippets WHERE room_id = $1 AND id = $2`, roomID, snippetID).
		Scan(&sn.ID, &sn.Title, &sn.Language, &sn.Code, &sn.Description, &sn.CreatedAt, &sn.CreatedBy, &sn.CreatedByID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnippetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snippet: %w", err)
	}
	return &sn, nil
}

// UpdateSnippet applies the non-nil fields of the update.
func (s *PgStore) UpdateSnippet(ctx context.Context, roomID string, snippetID string, update SnippetUpdate) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE snippets
		 SET title = COALESCE($3, title), description = COALESCE($4, description)
		 WHERE room_id = $1 AND id = $2`,
		roomID, snippetID, update.Title, update.Description)
	if err != nil {
		return fmt.Errorf("update snippet: %w", err)
	}
	return nil
}

// DeleteSnippet removes a snippet. Missing ids are a no-op.
func (s *PgStore) DeleteSnippet(ctx context.Context, roomID string, snippetID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM snippets WHERE room_id = $1 AND id = $2`, roomID, snippetID)
	if err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	return nil
}

// ListSnippets returns the room's snippets, most recent first.
func (s *PgStore) ListSnippets(ctx context.Context, roomID string) ([]Snippet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, language, code, description, created_at, created_by, created_by_id
		 FROM snippets WHERE room_id = $1 ORDER BY created_at DESC, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("select snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]Snippet, 0)
	for rows.Next() {
		var sn Snippet
		if err := rows.Scan(&sn.ID, &sn.Title, &sn.Language, &sn.Code, &sn.Description, &sn.CreatedAt, &sn.CreatedBy, &sn.CreatedByID); err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// AddMessage appends a chat message. The seq identity column stamps the
// per-room insertion order used as the ordering tiebreaker.
func (s *PgStore) AddMessage(ctx context.Context, roomID string, m Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, room_id, user_id, user_name, user_color, text, snippet_id, snippet_title, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, roomID, m.UserID, m.UserName, m.UserColor, m.Text, m.SnippetID, m.SnippetTitle, m.Timestamp)
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns the room's messages in display order: timestamp
// ascending, insertion order breaking ties.
func (s *PgStore) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, user_name, user_color, text, snippet_id, snippet_title, created_at
		 FROM messages WHERE room_id = $1 ORDER BY created_at, seq`, roomID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.UserName, &m.UserColor, &m.Text, &m.SnippetID, &m.SnippetTitle, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteExpiredRooms removes every room past its expiry in one statement and
// returns the removed ids. Children go with their rooms via FK cascade, so
// the whole sweep is atomic per the multi-path delete contract.
func (s *PgStore) DeleteExpiredRooms(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM rooms WHERE expires_at <= $1 RETURNING id`, now)
	if err != nil {
		return nil, fmt.Errorf("delete expired rooms: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired room id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
