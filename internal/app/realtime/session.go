package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sniproom/internal/pkg/errs"
	"sniproom/internal/pkg/logx"
	"sniproom/internal/pkg/metrics"
)

const (
	// sessionIdleTimeout is how long a session with no subscribers stays
	// alive before shutting down. A reconnecting client within this window
	// reuses the running session.
	sessionIdleTimeout = 5 * time.Minute

	// snapshotLoadTimeout bounds each aggregate read against the store.
	snapshotLoadTimeout = 5 * time.Second
)

// Session is the fanout loop for one room. It owns the subscriber set: all
// map access happens inside Run, so no lock is needed.
type Session struct {
	// RoomID identifies the room this session serves.
	RoomID string

	// expiresAt is the room's expiry instant; the session terminates all
	// subscribers at that moment even if the sweep has not run yet.
	expiresAt time.Time

	source Source

	// clients maps user id to connection; a second connection for the same
	// user replaces (kicks) the first.
	clients map[string]*Client

	// register queues clients joining the fanout.
	register chan *Client

	// unregister queues clients leaving the fanout.
	unregister chan *Client

	// refresh is a coalescing signal that the room aggregate changed.
	refresh chan struct{}

	// goneOnce/gone signal that the room no longer exists.
	goneOnce sync.Once
	gone     chan struct{}

	// stopChan terminates the Run loop immediately (hub shutdown).
	stopChan chan struct{}

	// done is closed when the Run loop has exited, whatever the reason.
	// Registration races against it: a send on register can only be consumed
	// by a live loop.
	done chan struct{}

	// cleanupChan notifies the Hub when the Run loop finishes.
	cleanupChan chan<- sessionCleanupMsg

	idleTimer *time.Timer

	logger zerolog.Logger
}

func newSession(roomID string, expiresAt time.Time, source Source, cleanupChan chan<- sessionCleanupMsg) *Session {
	sessionLogger := logx.Logger().With().
		Str("component", "Session").
		Str("room_id", roomID).
		Logger()

	return &Session{
		RoomID:      roomID,
		expiresAt:   expiresAt,
		source:      source,
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		refresh:     make(chan struct{}, 1),
		gone:        make(chan struct{}),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		cleanupChan: cleanupChan,
		idleTimer:   time.NewTimer(sessionIdleTimeout),
		logger:      sessionLogger,
	}
}

// Refresh signals that the room aggregate changed. Signals are coalesced:
// a burst of writes produces one reload, which is correct because each
// snapshot is complete.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Gone signals that the room was deleted or swept.
func (s *Session) Gone() {
	s.goneOnce.Do(func() {
		close(s.gone)
	})
}

// Stop terminates the session's Run loop immediately.
func (s *Session) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

// Run is the session's event loop: registration, fanout, expiry, idle shutdown.
func (s *Session) Run() {
	expireTimer := time.NewTimer(time.Until(s.expiresAt))

	defer func() {
		s.logger.Info().Msg("Session Run loop finished. Notifying Hub for cleanup.")

		close(s.done)

		expireTimer.Stop()
		s.idleTimer.Stop()

		func() {
			defer func() {
				if r := recover(); r != nil {
					logx.Warn("Recovered from panic during Hub cleanup notification (channel likely closed).")
				}
			}()

			select {
			case s.cleanupChan <- sessionCleanupMsg{RoomID: s.RoomID}:
			default:
				s.logger.Warn().Msg("Hub cleanup channel blocked. Skipping cleanup notification.")
			}
		}()

		for _, client := range s.clients {
			client.CloseSend()
		}
	}()

	for {
		select {
		case client := <-s.register:
			if existing, ok := s.clients[client.userID]; ok {
				s.logger.Warn().
					Str("user_id", client.userID).
					Msg("User already subscribed. Kicking old connection.")

				existing.Kick(errs.NewError(errs.ErrSessionReplaced).Message)
				delete(s.clients, client.userID)
			}

			if s.idleTimer.Stop() {
				select {
				case <-s.idleTimer.C:
				default:
				}
			}

			s.clients[client.userID] = client

			s.logger.Info().
				Str("user_id", client.userID).
				Int("subscribers", len(s.clients)).
				Msg("Subscriber joined session.")

			// The newcomer gets the current state immediately; everyone else
			// already received it when the underlying change was committed.
			if !s.sendSnapshotTo(client) {
				return
			}

		case client := <-s.unregister:
			if current, ok := s.clients[client.userID]; ok && current == client {
				delete(s.clients, client.userID)
				client.CloseSend()

				s.logger.Info().
					Str("user_id", client.userID).
					Int("subscribers", len(s.clients)).
					Msg("Subscriber left session.")
			}

			if len(s.clients) == 0 {
				if s.idleTimer.Stop() {
					select {
					case <-s.idleTimer.C:
					default:
					}
				}
				s.idleTimer.Reset(sessionIdleTimeout)
			}

		case <-s.refresh:
			if !s.broadcastSnapshot() {
				return
			}

		case <-s.gone:
			s.logger.Info().Msg("Room gone. Closing all subscriptions.")
			s.broadcastGone()
			return

		case <-expireTimer.C:
			s.logger.Info().Msg("Room expiry reached. Closing all subscriptions.")
			s.broadcastGone()
			return

		case <-s.idleTimer.C:
			if len(s.clients) == 0 {
				s.logger.Info().Msg("Session idle with no subscribers. Shutting down.")
				return
			}

		case <-s.stopChan:
			s.logger.Info().Msg("Session forced stop initiated.")
			return
		}
	}
}

// loadSnapshotFrame reads the aggregate and marshals a SNAPSHOT frame.
// The second return value is false when the room no longer exists.
func (s *Session) loadSnapshotFrame() ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotLoadTimeout)
	defer cancel()

	aggregate, customErr := s.source.Snapshot(ctx, s.RoomID)
	if customErr != nil {
		if customErr.Code == errs.ErrRoomNotFound {
			return nil, false
		}

		s.logger.Error().Str("error", customErr.Message).Msg("Failed to load room snapshot.")
		return nil, true
	}

	frame, err := json.Marshal(Event{Type: EventSnapshot, Room: aggregate})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal room snapshot.")
		return nil, true
	}

	return frame, true
}

// sendSnapshotTo delivers the current snapshot to a single client.
// Returns false when the session should terminate (room gone).
func (s *Session) sendSnapshotTo(client *Client) bool {
	frame, alive := s.loadSnapshotFrame()
	if !alive {
		s.broadcastGone()
		return false
	}
	if frame == nil {
		return true
	}

	if !client.Enqueue(frame) {
		delete(s.clients, client.userID)
		client.CloseSend()
		return true
	}

	metrics.AddSnapshotsSent(1)
	return true
}

// broadcastSnapshot fans the current snapshot out to every subscriber.
// Returns false when the session should terminate (room gone).
func (s *Session) broadcastSnapshot() bool {
	frame, alive := s.loadSnapshotFrame()
	if !alive {
		s.broadcastGone()
		return false
	}
	if frame == nil {
		return true
	}

	sent := 0
	for userID, client := range s.clients {
		if client.Enqueue(frame) {
			sent++
			continue
		}

		s.logger.Warn().Str("user_id", userID).Msg("Subscriber send queue full. Dropping connection.")
		delete(s.clients, userID)
		client.CloseSend()
	}

	metrics.AddSnapshotsSent(sent)
	return true
}

// broadcastGone delivers the terminal frame to every subscriber.
func (s *Session) broadcastGone() {
	frame, err := json.Marshal(Event{Type: EventRoomGone})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal ROOM_GONE frame.")
		return
	}

	for _, client := range s.clients {
		client.Enqueue(frame)
	}
}
