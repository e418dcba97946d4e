package room

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/randx"
)

// Notifier receives change notifications after every committed mutation so
// subscribers can be pushed a fresh room snapshot. RoomGone signals that the
// room no longer exists (deleted or swept).
type Notifier interface {
	RoomChanged(roomID string)
	RoomGone(roomID string)
}

// Service implements the room lifecycle: creation, admission, membership,
// snippet and message management, and the expiration sweep. All authorization
// (password gate, admin-only delete, admin-or-creator snippet edits) lives
// here, server-side; clients only ever see the outcome.
type Service struct {
	store Store

	// Notifier, when set, is invoked after every committed mutation.
	// It is assigned once at startup, before the service handles requests.
	Notifier Notifier

	logger zerolog.Logger
}

// NewService constructs a Service over the given store.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		logger: logx.Logger().With().Str("component", "RoomService").Logger(),
	}
}

// SnippetInput carries the client-supplied fields of a new snippet.
type SnippetInput struct {
	Title       string
	Language    string
	Code        string
	Description string
}

// MessageInput carries the client-supplied fields of a new chat message.
type MessageInput struct {
	Text         string
	SnippetID    *string
	SnippetTitle *string
}

// MaxExpiryHours bounds the accepted room lifetime to one year. The cap keeps
// expiresAt arithmetic safe; without it a large enough hour count wraps the
// duration and yields a room that is born expired.
const MaxExpiryHours = 24 * 365

// Create validates the inputs, mints the room and its admin membership, and
// persists both atomically. The admin is the sole initial member. Any positive
// hour count up to MaxExpiryHours is accepted; the 6/12/24 choice is a UI
// restriction, not a rule.
func (s *Service) Create(ctx context.Context, name, adminName string, expiryHours int, password string) (*Room, *User, *errs.CustomError) {
	name = strings.TrimSpace(name)
	adminName = strings.TrimSpace(adminName)

	if name == "" {
		return nil, nil, errs.NewError(errs.ErrValidationFailed, "Room name")
	}
	if adminName == "" {
		return nil, nil, errs.NewError(errs.ErrValidationFailed, "Display name")
	}
	if expiryHours <= 0 || expiryHours > MaxExpiryHours {
		return nil, nil, errs.NewError(errs.ErrInvalidParams)
	}

	now := time.Now().UTC()

	admin := User{
		ID:       randx.EntityID(),
		Name:     adminName,
		Color:    RandomColor(),
		JoinedAt: now,
	}

	newRoom := &Room{
		ID:        randx.EntityID(),
		Name:      name,
		AdminID:   admin.ID,
		AdminName: adminName,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(expiryHours) * time.Hour),
	}

	// An empty password means an open room; it is stored verbatim otherwise.
	if password != "" {
		newRoom.Password = &password
	}

	if err := s.store.CreateRoom(ctx, newRoom, admin); err != nil {
		s.logger.Error().Err(err).Str("room_id", newRoom.ID).Msg("Failed to persist new room.")
		return nil, nil, errs.NewError(errs.ErrStoreFailure)
	}

	s.logger.Info().
		Str("room_id", newRoom.ID).
		Int("expiry_hours", expiryHours).
		Bool("has_password", newRoom.Password != nil).
		Msg("Room created.")

	return newRoom, &admin, nil
}

// Summary is the pre-join probe: it reports only the room id, expiry, and
// whether a password is required. Absent and expired rooms are both NotFound;
// callers must not be able to distinguish the two.
func (s *Service) Summary(ctx context.Context, roomID string) (*Summary, *errs.CustomError) {
	r, customErr := s.activeRoom(ctx, roomID)
	if customErr != nil {
		return nil, customErr
	}

	return &Summary{
		ID:          r.ID,
		ExpiresAt:   r.ExpiresAt,
		HasPassword: r.Password != nil,
	}, nil
}

// Join admits a new member. The password gate is a verbatim string compare,
// evaluated only when the room has a password; a mismatch is a denial the
// client can re-prompt on, not an internal error. Concurrent joins need no
// mutual exclusion: each simply produces an independent membership record.
func (s *Service) Join(ctx context.Context, roomID, displayName, password string) (*Room, *User, *errs.CustomError) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, nil, errs.NewError(errs.ErrValidationFailed, "Display name")
	}

	r, customErr := s.activeRoom(ctx, roomID)
	if customErr != nil {
		return nil, nil, customErr
	}

	if r.Password != nil && *r.Password != password {
		return nil, nil, errs.NewError(errs.ErrPasswordIncorrect)
	}

	newUser := User{
		ID:       randx.EntityID(),
		Name:     displayName,
		Color:    RandomColor(),
		JoinedAt: time.Now().UTC(),
	}

	if err := s.store.AddUser(ctx, roomID, newUser); err != nil {
		// The room can vanish between the existence check and the insert.
		if errors.Is(err, ErrNotFound) {
			return nil, nil, errs.NewError(errs.ErrRoomNotFound)
		}
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to persist membership.")
		return nil, nil, errs.NewError(errs.ErrStoreFailure)
	}

	s.postSystemNotice(ctx, roomID, displayName+" joined the room")
	s.notifyChanged(roomID)

	s.logger.Info().Str("room_id", roomID).Str("user_id", newUser.ID).Msg("User joined room.")

	return r, &newUser, nil
}

// Leave removes a membership record. It is idempotent: leaving twice, or
// leaving a room that no longer exists, is a no-op. Snippets and messages
// authored by the user are retained with orphaned attribution. The admin id
// never rotates, even when the admin leaves.
func (s *Service) Leave(ctx context.Context, roomID, userID string) *errs.CustomError {
	r, err := s.store.GetRoomMeta(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to read room for leave.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	users, err := s.store.ListUsers(ctx, roomID)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to list members for leave.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	var leaving *User
	for i := range users {
		if users[i].ID == userID {
			leaving = &users[i]
			break
		}
	}
	if leaving == nil {
		// Already gone; repeated leave must be observably identical to one.
		return nil
	}

	if err := s.store.RemoveUser(ctx, roomID, userID); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("Failed to remove membership.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	if userID == r.AdminID {
		s.postSystemNotice(ctx, roomID, "Admin "+leaving.Name+" left the room")
	} else {
		s.postSystemNotice(ctx, roomID, leaving.Name+" left the room")
	}
	s.notifyChanged(roomID)

	s.logger.Info().Str("room_id", roomID).Str("user_id", userID).Msg("User left room.")

	return nil
}

// Delete removes the room and everything nested beneath it. Only the original
// admin may delete; the check runs against the room record, never against
// client-asserted role claims.
func (s *Service) Delete(ctx context.Context, roomID, requestingUserID string) *errs.CustomError {
	r, customErr := s.activeRoom(ctx, roomID)
	if customErr != nil {
		return customErr
	}

	if r.RoleOf(requestingUserID) != RoleAdmin {
		s.logger.Warn().Str("room_id", roomID).Str("user_id", requestingUserID).Msg("Non-admin attempted room delete.")
		return errs.NewError(errs.ErrNotRoomAdmin)
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to delete room.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	s.notifyGone(roomID)

	s.logger.Info().Str("room_id", roomID).Msg("Room deleted by admin.")

	return nil
}

// Snapshot returns the full room aggregate: the room record plus its members,
// snippets (most recent first), and messages (chronological). This is the
// unit delivered to realtime subscribers on every change.
func (s *Service) Snapshot(ctx context.Context, roomID string) (*Room, *errs.CustomError) {
	if _, customErr := s.activeRoom(ctx, roomID); customErr != nil {
		return nil, customErr
	}

	r, err := s.store.GetRoomAggregate(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to read room aggregate.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}

	return r, nil
}

// AddSnippet validates and persists a new snippet attributed to the actor.
func (s *Service) AddSnippet(ctx context.Context, roomID string, actor Identity, input SnippetInput) (*Snippet, *errs.CustomError) {
	if _, customErr := s.activeRoom(ctx, roomID); customErr != nil {
		return nil, customErr
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, errs.NewError(errs.ErrValidationFailed, "Snippet title")
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, errs.NewError(errs.ErrValidationFailed, "Snippet code")
	}

	snippet := Snippet{
		ID:          randx.EntityID(),
		Title:       input.Title,
		Language:    input.Language,
		Code:        input.Code,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   actor.Name,
		CreatedByID: actor.UserID,
	}

	if err := s.store.AddSnippet(ctx, roomID, snippet); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.NewError(errs.ErrRoomNotFound)
		}
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to persist snippet.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}

	s.notifyChanged(roomID)

	return &snippet, nil
}

// EditSnippet updates a snippet's title and/or description. Language and code
// are immutable after creation. Permitted only to the room admin or the
// snippet's creator.
func (s *Service) EditSnippet(ctx context.Context, roomID string, actor Identity, snippetID string, update SnippetUpdate) *errs.CustomError {
	r, customErr := s.activeRoom(ctx, roomID)
	if customErr != nil {
		return customErr
	}

	snippet, err := s.store.GetSnippet(ctx, roomID, snippetID)
	if errors.Is(err, ErrSnippetNotFound) {
		return errs.NewError(errs.ErrSnippetNotFound)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Str("snippet_id", snippetID).Msg("Failed to read snippet.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	if customErr := s.authorizeSnippet(r, snippet, actor); customErr != nil {
		return customErr
	}

	if update.Title != nil {
		trimmed := strings.TrimSpace(*update.Title)
		if trimmed == "" {
			return errs.NewError(errs.ErrValidationFailed, "Snippet title")
		}
		update.Title = &trimmed
	}

	if update.Title == nil && update.Description == nil {
		return nil
	}

	if err := s.store.UpdateSnippet(ctx, roomID, snippetID, update); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Str("snippet_id", snippetID).Msg("Failed to update snippet.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	s.notifyChanged(roomID)

	return nil
}

// DeleteSnippet removes a snippet, gated like EditSnippet. Deleting a snippet
// that is already gone is a no-op.
func (s *Service) DeleteSnippet(ctx context.Context, roomID string, actor Identity, snippetID string) *errs.CustomError {
	r, customErr := s.activeRoom(ctx, roomID)
	if customErr != nil {
		return customErr
	}

	snippet, err := s.store.GetSnippet(ctx, roomID, snippetID)
	if errors.Is(err, ErrSnippetNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Str("snippet_id", snippetID).Msg("Failed to read snippet.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	if customErr := s.authorizeSnippet(r, snippet, actor); customErr != nil {
		return customErr
	}

	if err := s.store.DeleteSnippet(ctx, roomID, snippetID); err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Str("snippet_id", snippetID).Msg("Failed to delete snippet.")
		return errs.NewError(errs.ErrStoreFailure)
	}

	s.notifyChanged(roomID)

	return nil
}

// ListSnippets returns the room's snippets, most recent first.
func (s *Service) ListSnippets(ctx context.Context, roomID string) ([]Snippet, *errs.CustomError) {
	if _, customErr := s.activeRoom(ctx, roomID); customErr != nil {
		return nil, customErr
	}

	snippets, err := s.store.ListSnippets(ctx, roomID)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to list snippets.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}
	return snippets, nil
}

// SendMessage appends an immutable chat message attributed to the actor,
// optionally scoped to a snippet's discussion thread.
func (s *Service) SendMessage(ctx context.Context, roomID string, actor Identity, input MessageInput) (*Message, *errs.CustomError) {
	if _, customErr := s.activeRoom(ctx, roomID); customErr != nil {
		return nil, customErr
	}

	if strings.TrimSpace(input.Text) == "" {
		return nil, errs.NewError(errs.ErrValidationFailed, "Message text")
	}

	message := Message{
		ID:           randx.EntityID(),
		UserID:       actor.UserID,
		UserName:     actor.Name,
		UserColor:    actor.Color,
		Text:         input.Text,
		SnippetID:    input.SnippetID,
		SnippetTitle: input.SnippetTitle,
		Timestamp:    time.Now().UTC(),
	}

	if err := s.store.AddMessage(ctx, roomID, message); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.NewError(errs.ErrRoomNotFound)
		}
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to persist message.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}

	s.notifyChanged(roomID)

	return &message, nil
}

// ListMessages returns the room's messages in display order.
func (s *Service) ListMessages(ctx context.Context, roomID string) ([]Message, *errs.CustomError) {
	if _, customErr := s.activeRoom(ctx, roomID); customErr != nil {
		return nil, customErr
	}

	messages, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to list messages.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}
	return messages, nil
}

// Sweep permanently deletes every room whose expiry has passed and returns the
// count. The sweep is advisory: read paths already treat expired rooms as
// absent, so sweep cadence never affects user-visible expiration.
func (s *Service) Sweep(ctx context.Context) (int, *errs.CustomError) {
	ids, err := s.store.DeleteExpiredRooms(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("Expiration sweep failed.")
		return 0, errs.NewError(errs.ErrStoreFailure)
	}

	for _, id := range ids {
		s.notifyGone(id)
	}

	if len(ids) > 0 {
		s.logger.Info().Int("deleted_rooms", len(ids)).Msg("Expiration sweep removed rooms.")
	}

	return len(ids), nil
}

// activeRoom reads the room record and applies logical expiration: a room at
// or past its expiry is reported NotFound exactly like a missing one.
func (s *Service) activeRoom(ctx context.Context, roomID string) (*Room, *errs.CustomError) {
	r, err := s.store.GetRoomMeta(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to read room.")
		return nil, errs.NewError(errs.ErrStoreFailure)
	}

	if r.Expired(time.Now().UTC()) {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}

	return r, nil
}

// authorizeSnippet enforces the admin-or-creator gate for snippet mutations.
func (s *Service) authorizeSnippet(r *Room, snippet *Snippet, actor Identity) *errs.CustomError {
	if r.RoleOf(actor.UserID) == RoleAdmin || snippet.CreatedByID == actor.UserID {
		return nil
	}

	s.logger.Warn().
		Str("room_id", r.ID).
		Str("snippet_id", snippet.ID).
		Str("user_id", actor.UserID).
		Msg("Unauthorized snippet mutation attempt.")

	return errs.NewError(errs.ErrNotSnippetOwner)
}

// postSystemNotice writes a system chat message. Failures are logged and
// swallowed: a missing notice must never fail the join or leave that caused it.
func (s *Service) postSystemNotice(ctx context.Context, roomID, text string) {
	notice := Message{
		ID:        randx.EntityID(),
		UserID:    SystemUserID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	if err := s.store.AddMessage(ctx, roomID, notice); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("Failed to post system notice.")
	}
}

func (s *Service) notifyChanged(roomID string) {
	if s.Notifier != nil {
		s.Notifier.RoomChanged(roomID)
	}
}

func (s *Service) notifyGone(roomID string) {
	if s.Notifier != nil {
		s.Notifier.RoomGone(roomID)
	}
}
