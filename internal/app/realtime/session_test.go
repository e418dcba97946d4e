package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"sniproom/internal/app/room"
	"sniproom/internal/pkg/errs"
)

// fakeSource serves a swappable room aggregate.
type fakeSource struct {
	mu   sync.Mutex
	room *room.Room
	err  *errs.CustomError
}

func (f *fakeSource) Snapshot(_ context.Context, _ string) (*room.Room, *errs.CustomError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.room
	return &cp, nil
}

func (f *fakeSource) set(r *room.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room = r
}

func testAggregate(roomID, name string) *room.Room {
	return &room.Room{
		ID:        roomID,
		Name:      name,
		AdminID:   "11111111-1111-1111-1111-111111111111",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

// testClient builds a Client without a live connection. Only the send queue
// is exercised; the pumps never run.
func testClient(s *Session, userID string) *Client {
	return NewClient(s, nil, userID)
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "send queue closed before a frame arrived")
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return Event{}
	}
}

func startTestSession(t *testing.T, source Source, expiresAt time.Time) (*Session, chan sessionCleanupMsg) {
	t.Helper()
	cleanup := make(chan sessionCleanupMsg, 1)
	s := newSession("22222222-2222-2222-2222-222222222222", expiresAt, source, cleanup)
	go s.Run()
	t.Cleanup(s.Stop)
	return s, cleanup
}

func TestSessionSendsSnapshotOnSubscribe(t *testing.T) {
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, _ := startTestSession(t, source, time.Now().Add(time.Hour))

	alice := testClient(s, "alice-id")
	s.register <- alice

	ev := receiveEvent(t, alice)
	require.Equal(t, EventSnapshot, ev.Type)
	require.Equal(t, "review", ev.Room.Name)
}

func TestSessionFansOutRefreshedSnapshot(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	source := &fakeSource{room: testAggregate(roomID, "before")}
	s, _ := startTestSession(t, source, time.Now().Add(time.Hour))

	alice := testClient(s, "alice-id")
	bob := testClient(s, "bob-id")
	s.register <- alice
	s.register <- bob

	receiveEvent(t, alice)
	receiveEvent(t, bob)

	source.set(testAggregate(roomID, "after"))
	s.Refresh()

	for _, c := range []*Client{alice, bob} {
		ev := receiveEvent(t, c)
		require.Equal(t, EventSnapshot, ev.Type)
		require.Equal(t, "after", ev.Room.Name, "every subscriber gets the refreshed aggregate")
	}
}

func TestSessionRefreshCoalesces(t *testing.T) {
	// A burst of signals before the loop drains them must not panic or block.
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, _ := startTestSession(t, source, time.Now().Add(time.Hour))

	for i := 0; i < 20; i++ {
		s.Refresh()
	}
}

func TestSessionGoneDeliversTerminalFrame(t *testing.T) {
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, cleanup := startTestSession(t, source, time.Now().Add(time.Hour))

	alice := testClient(s, "alice-id")
	s.register <- alice
	receiveEvent(t, alice)

	s.Gone()
	s.Gone() // signaling twice is safe

	ev := receiveEvent(t, alice)
	require.Equal(t, EventRoomGone, ev.Type)
	require.Nil(t, ev.Room)

	select {
	case msg := <-cleanup:
		require.Equal(t, s.RoomID, msg.RoomID)
	case <-time.After(2 * time.Second):
		t.Fatal("session never asked the hub for cleanup")
	}
}

func TestSessionTerminatesAtRoomExpiry(t *testing.T) {
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, cleanup := startTestSession(t, source, time.Now().Add(150*time.Millisecond))

	alice := testClient(s, "alice-id")
	s.register <- alice
	receiveEvent(t, alice)

	ev := receiveEvent(t, alice)
	require.Equal(t, EventRoomGone, ev.Type)

	select {
	case <-cleanup:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down at expiry")
	}
}

func TestSessionTreatsMissingRoomAsGone(t *testing.T) {
	source := &fakeSource{err: errs.NewError(errs.ErrRoomNotFound)}
	s, cleanup := startTestSession(t, source, time.Now().Add(time.Hour))

	alice := testClient(s, "alice-id")
	s.register <- alice

	ev := receiveEvent(t, alice)
	require.Equal(t, EventRoomGone, ev.Type)

	select {
	case <-cleanup:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down after the room vanished")
	}
}

// wsPair establishes a real WebSocket connection and returns both ends:
// the server-side conn a Client wraps and the dialer side the test reads.
func wsPair(t *testing.T) (serverConn, dialerConn *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)

	dialer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { dialer.Close() })

	select {
	case c := <-conns:
		t.Cleanup(func() { c.Close() })
		return c, dialer
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server side of the connection")
		return nil, nil
	}
}

func TestSessionKicksDuplicateUser(t *testing.T) {
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, _ := startTestSession(t, source, time.Now().Add(time.Hour))

	firstServer, firstDialer := wsPair(t)
	first := NewClient(s, firstServer, "alice-id")
	s.register <- first

	secondServer, _ := wsPair(t)
	second := NewClient(s, secondServer, "alice-id")
	s.register <- second

	// The older connection is closed with the replaced code and the session
	// denial message; the kick frame is written directly, bypassing the queue.
	require.NoError(t, firstDialer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := firstDialer.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, WsCloseCodeReplaced, closeErr.Code)
	require.Equal(t, errs.NewError(errs.ErrSessionReplaced).Message, closeErr.Text)

	// The replacement took over the membership: it got the registration
	// snapshot and keeps receiving refreshes.
	ev := receiveEvent(t, second)
	require.Equal(t, EventSnapshot, ev.Type)

	s.Refresh()
	ev = receiveEvent(t, second)
	require.Equal(t, EventSnapshot, ev.Type)

	// The kicked client's queue is closed, so its pump would terminate.
	// Any frame queued before the kick drains first.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-first.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("kicked subscriber's send queue was never closed")
		}
	}
}

func TestSubscribeFailsOnTerminatedSession(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	source := &fakeSource{room: testAggregate(roomID, "review")}

	hub := NewHub(source)
	defer hub.Shutdown()

	// A session whose Run loop has exited but whose map entry the cleanup
	// loop has not removed yet. The private cleanup channel keeps the hub's
	// own loop out of the race so the window stays open.
	session := newSession(roomID, time.Now().Add(time.Hour), source, make(chan sessionCleanupMsg, 1))
	go session.Run()
	session.Stop()
	<-session.done

	hub.mu.Lock()
	hub.sessions[roomID] = session
	hub.mu.Unlock()

	subscribed := make(chan bool, 1)
	go func() {
		_, ok := hub.Subscribe(roomID, time.Now().Add(time.Hour), nil, "alice-id")
		subscribed <- ok
	}()

	select {
	case ok := <-subscribed:
		require.False(t, ok, "registration against a dead session must fail, not hang")
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked on a terminated session")
	}

	// The stale entry is gone, so the next subscriber gets a fresh session.
	hub.mu.RLock()
	_, present := hub.sessions[roomID]
	hub.mu.RUnlock()
	require.False(t, present)
}

func TestSessionDropsSubscriberWithFullQueue(t *testing.T) {
	source := &fakeSource{room: testAggregate("22222222-2222-2222-2222-222222222222", "review")}
	s, _ := startTestSession(t, source, time.Now().Add(time.Hour))

	c := testClient(s, "alice-id")
	for i := 0; i < cap(c.send); i++ {
		c.send <- []byte("{}")
	}

	// The registration snapshot cannot be queued, so the subscriber is
	// dropped and its queue closed rather than blocking the session loop.
	s.register <- c

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber with a full queue was not dropped")
		}
	}
}

func TestSubscribeAfterShutdownDoesNotPanic(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	source := &fakeSource{room: testAggregate(roomID, "review")}

	hub := NewHub(source)
	hub.Shutdown()

	// A request racing shutdown still gets a working registration instead of
	// a panic on the sessions map; the server is about to stop either way.
	client, ok := hub.Subscribe(roomID, time.Now().Add(time.Hour), nil, "alice-id")
	require.True(t, ok)
	require.NotNil(t, client)

	client.session.Stop()
}

func TestHubRoutesNotificationsToSessions(t *testing.T) {
	roomID := "22222222-2222-2222-2222-222222222222"
	source := &fakeSource{room: testAggregate(roomID, "before")}

	hub := NewHub(source)
	defer hub.Shutdown()

	// Notifications for rooms without subscribers are dropped silently.
	hub.RoomChanged(roomID)
	hub.RoomGone("33333333-3333-3333-3333-333333333333")
}
