package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sniproom/internal/app/room"
	"sniproom/internal/configs"
	"sniproom/internal/mocks"
	"sniproom/internal/pkg/auth/jwt"
	"sniproom/internal/pkg/errs"
)

const testJWTSecret = "test-signing-secret"

func newTestDeps(store room.Store) *AppDeps {
	return &AppDeps{
		Rooms: room.NewService(store),
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   testJWTSecret,
		},
	}
}

// envelope mirrors the standard response body for assertions.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func postJSON(t *testing.T, router http.Handler, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func mintTestToken(t *testing.T, roomID, userID, name string) string {
	t.Helper()
	token, err := jwt.GenerateToken(&jwt.Payload{
		RoomID: roomID,
		UserID: userID,
		Name:   name,
		Color:  room.Palette[0],
		Role:   string(room.RoleMember),
	}, testJWTSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func testRoom(id string, password *string) *room.Room {
	return &room.Room{
		ID:        id,
		Name:      "review",
		AdminID:   "11111111-1111-1111-1111-111111111111",
		AdminName: "Alice",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		Password:  password,
	}
}

func TestHandleCreateRoom(t *testing.T) {
	store := &mocks.StoreMock{}
	store.On("CreateRoom", mock.Anything, mock.AnythingOfType("*room.Room"), mock.AnythingOfType("room.User")).Return(nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.Post("/api/rooms", HandleCreateRoom(deps))

	rec := postJSON(t, router, "/api/rooms", CreateRoomInput{
		Name:        "review session",
		AdminName:   "Alice",
		ExpiryHours: 6,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Zero(t, env.Code)

	var data struct {
		RoomID string    `json:"roomId"`
		Token  string    `json:"token"`
		User   room.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.RoomID)
	require.NotEmpty(t, data.User.ID)
	require.Contains(t, room.Palette, data.User.Color)

	// The token must be valid, signed with the configured secret, and bound to
	// the created room with the admin role.
	payload, err := jwt.ParseToken(data.Token, testJWTSecret)
	require.NoError(t, err)
	require.Equal(t, data.RoomID, payload.RoomID)
	require.Equal(t, data.User.ID, payload.UserID)
	require.Equal(t, string(room.RoleAdmin), payload.Role)

	store.AssertExpectations(t)
}

func TestHandleCreateRoomValidation(t *testing.T) {
	deps := newTestDeps(&mocks.StoreMock{})

	router := chi.NewRouter()
	router.Post("/api/rooms", HandleCreateRoom(deps))

	rec := postJSON(t, router, "/api/rooms", CreateRoomInput{
		Name:        "",
		AdminName:   "Alice",
		ExpiryHours: 6,
	}, nil)

	// Business denials are answered in-band with HTTP 200.
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Equal(t, errs.ErrValidationFailed, env.Code)
}

func TestHandleCreateRoomRejectsUnknownFields(t *testing.T) {
	deps := newTestDeps(&mocks.StoreMock{})

	router := chi.NewRouter()
	router.Post("/api/rooms", HandleCreateRoom(deps))

	rec := postJSON(t, router, "/api/rooms", map[string]any{
		"name":        "review",
		"adminName":   "Alice",
		"expiryHours": 6,
		"role":        "admin",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotZero(t, env.Code)
}

func TestHandleRoomSummary(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	password := "hunter2"

	store := &mocks.StoreMock{}
	store.On("GetRoomMeta", mock.Anything, roomID).Return(testRoom(roomID, &password), nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.Get("/api/rooms/{roomID}", HandleRoomSummary(deps))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+roomID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Zero(t, env.Code)

	var summary room.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Equal(t, roomID, summary.ID)
	require.True(t, summary.HasPassword)

	// The password itself must never appear anywhere in the response.
	require.NotContains(t, rec.Body.String(), password)
}

func TestHandleRoomSummaryBadID(t *testing.T) {
	deps := newTestDeps(&mocks.StoreMock{})

	router := chi.NewRouter()
	router.Get("/api/rooms/{roomID}", HandleRoomSummary(deps))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	env := decodeEnvelope(t, rec)
	require.Equal(t, errs.ErrInvalidParams, env.Code)
}

func TestHandleJoinRoomWrongPassword(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	password := "hunter2"

	store := &mocks.StoreMock{}
	store.On("GetRoomMeta", mock.Anything, roomID).Return(testRoom(roomID, &password), nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.Post("/api/rooms/{roomID}/join", HandleJoinRoom(deps))

	rec := postJSON(t, router, "/api/rooms/"+roomID+"/join", JoinRoomInput{
		Name:     "Bob",
		Password: "wrong",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Equal(t, errs.ErrPasswordIncorrect, env.Code)

	store.AssertNotCalled(t, "AddUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleJoinRoomSuccess(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"

	store := &mocks.StoreMock{}
	store.On("GetRoomMeta", mock.Anything, roomID).Return(testRoom(roomID, nil), nil)
	store.On("AddUser", mock.Anything, roomID, mock.AnythingOfType("room.User")).Return(nil)
	store.On("AddMessage", mock.Anything, roomID, mock.AnythingOfType("room.Message")).Return(nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.Post("/api/rooms/{roomID}/join", HandleJoinRoom(deps))

	rec := postJSON(t, router, "/api/rooms/"+roomID+"/join", JoinRoomInput{Name: "Bob"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Zero(t, env.Code)

	var data struct {
		Token string    `json:"token"`
		User  room.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	payload, err := jwt.ParseToken(data.Token, testJWTSecret)
	require.NoError(t, err)
	require.Equal(t, roomID, payload.RoomID)
	require.Equal(t, string(room.RoleMember), payload.Role)

	store.AssertExpectations(t)
}

func TestHandleDeleteRoomRequiresToken(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	deps := newTestDeps(&mocks.StoreMock{})

	router := chi.NewRouter()
	router.With(jwt.RequireRoomToken(testJWTSecret)).Delete("/api/rooms/{roomID}", HandleDeleteRoom(deps))

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+roomID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDeleteRoomTokenScopedToRoom(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	otherRoomID := "33333333-3333-3333-3333-333333333333"
	deps := newTestDeps(&mocks.StoreMock{})

	router := chi.NewRouter()
	router.With(jwt.RequireRoomToken(testJWTSecret)).Delete("/api/rooms/{roomID}", HandleDeleteRoom(deps))

	token := mintTestToken(t, otherRoomID, "44444444-4444-4444-4444-444444444444", "Bob")

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+roomID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Equal(t, errs.ErrTokenRoomMismatch, env.Code)
}

func TestHandleDeleteRoomNonAdminDenied(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"

	store := &mocks.StoreMock{}
	store.On("GetRoomMeta", mock.Anything, roomID).Return(testRoom(roomID, nil), nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.With(jwt.RequireRoomToken(testJWTSecret)).Delete("/api/rooms/{roomID}", HandleDeleteRoom(deps))

	// A member token: valid for the room but not the admin id.
	token := mintTestToken(t, roomID, "44444444-4444-4444-4444-444444444444", "Bob")

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+roomID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Equal(t, errs.ErrNotRoomAdmin, env.Code)

	store.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func TestHandleLeaveRoom(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	userID := "44444444-4444-4444-4444-444444444444"

	members := []room.User{{ID: userID, Name: "Bob", Color: room.Palette[1], JoinedAt: time.Now().UTC()}}

	store := &mocks.StoreMock{}
	store.On("GetRoomMeta", mock.Anything, roomID).Return(testRoom(roomID, nil), nil)
	store.On("ListUsers", mock.Anything, roomID).Return(members, nil)
	store.On("RemoveUser", mock.Anything, roomID, userID).Return(nil)
	store.On("AddMessage", mock.Anything, roomID, mock.AnythingOfType("room.Message")).Return(nil)

	deps := newTestDeps(store)

	router := chi.NewRouter()
	router.With(jwt.RequireRoomToken(testJWTSecret)).Post("/api/rooms/{roomID}/leave", HandleLeaveRoom(deps))

	token := mintTestToken(t, roomID, userID, "Bob")

	rec := postJSON(t, router, "/api/rooms/"+roomID+"/leave", map[string]any{}, map[string]string{
		"Authorization": "Bearer " + token,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Zero(t, env.Code)

	store.AssertExpectations(t)
}
