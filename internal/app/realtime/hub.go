/*
Package realtime delivers room snapshots to WebSocket subscribers.

The contract is "subscribe to a room, receive a full snapshot on every
change": the room Service reports every committed mutation to the Hub, and
the Hub's per-room Session re-reads the full room aggregate and fans it out
to every connected subscriber. Delivery is at-least-once; subscribers treat
each snapshot as a complete replacement.
*/
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sniproom/internal/app/room"
	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/logx"
)

// Source supplies full room aggregates for fanout. *room.Service satisfies it.
type Source interface {
	Snapshot(ctx context.Context, roomID string) (*room.Room, *errs.CustomError)
}

// EventType tags the frames pushed to subscribers.
type EventType string

const (
	// EventSnapshot carries a complete room aggregate.
	EventSnapshot EventType = "SNAPSHOT"

	// EventRoomGone is the terminal frame: the room was deleted or expired.
	// The connection closes after it is delivered.
	EventRoomGone EventType = "ROOM_GONE"
)

// Event is the wire frame delivered over a subscription.
type Event struct {
	Type EventType  `json:"type"`
	Room *room.Room `json:"room,omitempty"`
}

// sessionCleanupMsg notifies the Hub that a Session's Run loop finished.
type sessionCleanupMsg struct {
	RoomID string
}

// Hub coordinates all active room Sessions. A Session exists only while a
// room has at least one subscriber (plus a short inactivity grace period).
type Hub struct {
	// sessions maps room id to its active Session.
	sessions map[string]*Session

	// source supplies the aggregates that sessions fan out.
	source Source

	// mu protects concurrent access to the sessions map.
	mu sync.RWMutex

	// cleanup is the channel Sessions use to ask the Hub to forget them.
	cleanup chan sessionCleanupMsg

	// wg waits for the cleanup loop during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its cleanup loop.
func NewHub(source Source) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		source:   source,
		cleanup:  make(chan sessionCleanupMsg, 10),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.wg.Add(1)

	go h.runCleanupLoop()

	return h
}

// runCleanupLoop removes sessions whose Run loops have finished.
func (h *Hub) runCleanupLoop() {
	defer h.wg.Done()

	h.logger.Info().Msg("Cleanup loop started.")

	for msg := range h.cleanup {
		h.removeSession(msg.RoomID)
	}

	h.logger.Info().Msg("Cleanup loop stopped.")
}

func (h *Hub) removeSession(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[roomID]; ok {
		delete(h.sessions, roomID)
		h.logger.Info().Str("room_id", roomID).Msg("Session removed.")
	}
}

// Subscribe attaches a new subscriber to the room's session, creating and
// starting the session if this is the room's first subscriber. expiresAt
// bounds the session's lifetime: at that instant every subscriber receives
// the terminal frame regardless of sweep cadence.
//
// It reports false when registration failed because the session's Run loop
// had already terminated (room gone, expiry, idle shutdown) in the window
// before the cleanup loop removed it; the caller must close the connection.
//
// The caller owns the returned Client's pumps: it must run WritePump in its
// own goroutine and then block on ReadPump.
func (h *Hub) Subscribe(roomID string, expiresAt time.Time, conn *websocket.Conn, userID string) (*Client, bool) {
	h.mu.Lock()

	session, ok := h.sessions[roomID]
	if !ok {
		session = newSession(roomID, expiresAt, h.source, h.cleanup)
		h.sessions[roomID] = session

		go session.Run()

		h.logger.Info().Str("room_id", roomID).Msg("Session started for first subscriber.")
	}

	h.mu.Unlock()

	client := NewClient(session, conn, userID)

	select {
	case session.register <- client:
		return client, true
	case <-session.done:
		h.logger.Warn().Str("room_id", roomID).Msg("Registration raced a terminated session.")
		h.removeSession(roomID)
		return nil, false
	}
}

// RoomChanged implements room.Notifier. Rooms without subscribers have no
// session; the notification is dropped because there is nobody to tell.
func (h *Hub) RoomChanged(roomID string) {
	h.mu.RLock()
	session, ok := h.sessions[roomID]
	h.mu.RUnlock()

	if ok {
		session.Refresh()
	}
}

// RoomGone implements room.Notifier.
func (h *Hub) RoomGone(roomID string) {
	h.mu.RLock()
	session, ok := h.sessions[roomID]
	h.mu.RUnlock()

	if ok {
		session.Gone()
	}
}

// Shutdown stops all sessions and waits for the cleanup loop to drain.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.mu.Lock()

	for _, session := range h.sessions {
		session.Stop()
	}
	h.sessions = make(map[string]*Session)

	h.mu.Unlock()

	close(h.cleanup)
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}
