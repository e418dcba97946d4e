package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sniproom/internal/app/room"
	"sniproom/internal/configs"
	"sniproom/internal/mocks"
)

func runCleanup(t *testing.T, deps *AppDeps, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/api/cleanup", HandleCleanup(deps))

	req := httptest.NewRequest(http.MethodGet, "/api/cleanup", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCleanupReportsDeletedCount(t *testing.T) {
	store := &mocks.StoreMock{}
	store.On("DeleteExpiredRooms", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]string{
			"22222222-2222-2222-2222-222222222222",
			"33333333-3333-3333-3333-333333333333",
		}, nil)

	deps := &AppDeps{
		Rooms:  room.NewService(store),
		Config: &configs.AppConfig{Environment: "development"},
	}

	rec := runCleanup(t, deps, "")

	require.Equal(t, http.StatusOK, rec.Code)

	// The sweep endpoint answers with a bare object, not the envelope.
	var body CleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.DeletedRooms)
	require.Equal(t, "cleanup completed", body.Status)

	store.AssertExpectations(t)
}

func TestHandleCleanupNothingDue(t *testing.T) {
	store := &mocks.StoreMock{}
	store.On("DeleteExpiredRooms", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]string{}, nil)

	deps := &AppDeps{
		Rooms:  room.NewService(store),
		Config: &configs.AppConfig{Environment: "development"},
	}

	rec := runCleanup(t, deps, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body CleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Zero(t, body.DeletedRooms)
	require.Equal(t, "cleanup completed", body.Status)
}

func TestHandleCleanupSecretGate(t *testing.T) {
	store := &mocks.StoreMock{}
	store.On("DeleteExpiredRooms", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]string{}, nil)

	deps := &AppDeps{
		Rooms:  room.NewService(store),
		Config: &configs.AppConfig{Environment: "production", CronSecret: "sweep-secret"},
	}

	rec := runCleanup(t, deps, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = runCleanup(t, deps, "Bearer wrong-secret")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	store.AssertNotCalled(t, "DeleteExpiredRooms", mock.Anything, mock.Anything)

	rec = runCleanup(t, deps, "Bearer sweep-secret")
	require.Equal(t, http.StatusOK, rec.Code)
}
