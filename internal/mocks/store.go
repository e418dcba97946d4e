package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sniproom/internal/app/room"
)

// StoreMock is a testify mock of room.Store for handler and service tests.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) CreateRoom(ctx context.Context, r *room.Room, admin room.User) error {
	args := m.Called(ctx, r, admin)
	return args.Error(0)
}

func (m *StoreMock) GetRoomMeta(ctx context.Context, roomID string) (*room.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Room), args.Error(1)
}

func (m *StoreMock) GetRoomAggregate(ctx context.Context, roomID string) (*room.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Room), args.Error(1)
}

func (m *StoreMock) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *StoreMock) AddUser(ctx context.Context, roomID string, u room.User) error {
	args := m.Called(ctx, roomID, u)
	return args.Error(0)
}

func (m *StoreMock) RemoveUser(ctx context.Context, roomID string, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *StoreMock) ListUsers(ctx context.Context, roomID string) ([]room.User, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]room.User), args.Error(1)
}

func (m *StoreMock) AddSnippet(ctx context.Context, roomID string, s room.Snippet) error {
	args := m.Called(ctx, roomID, s)
	return args.Error(0)
}

func (m *StoreMock) GetSnippet(ctx context.Context, roomID string, snippetID string) (*room.Snippet, error) {
	args := m.Called(ctx, roomID, snippetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Snippet), args.Error(1)
}

func (m *StoreMock) UpdateSnippet(ctx context.Context, roomID string, snippetID string, update room.SnippetUpdate) error {
	args := m.Called(ctx, roomID, snippetID, update)
	return args.Error(0)
}

func (m *StoreMock) DeleteSnippet(ctx context.Context, roomID string, snippetID string) error {
	args := m.Called(ctx, roomID, snippetID)
	return args.Error(0)
}

func (m *StoreMock) ListSnippets(ctx context.Context, roomID string) ([]room.Snippet, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]room.Snippet), args.Error(1)
}

func (m *StoreMock) AddMessage(ctx context.Context, roomID string, msg room.Message) error {
	args := m.Called(ctx, roomID, msg)
	return args.Error(0)
}

func (m *StoreMock) ListMessages(ctx context.Context, roomID string) ([]room.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]room.Message), args.Error(1)
}

func (m *StoreMock) DeleteExpiredRooms(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
