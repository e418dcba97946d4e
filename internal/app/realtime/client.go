package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sniproom/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// subscribers never legitimately send data frames; anything larger is abuse.
	maxInboundSize = 512

	// WsCloseCodeReplaced is a custom WebSocket Close Code (4000-4999 range)
	// signaling that the subscription was replaced by a newer connection.
	WsCloseCodeReplaced = 4001
)

// Client represents one WebSocket subscription to a room session.
//
// Subscriptions are one-way: all mutations travel over the REST API, and the
// socket only carries snapshots down. ReadPump exists to service pong frames
// and to detect disconnects.
type Client struct {
	session *Session

	conn *websocket.Conn

	// userID is the membership id from the validated room access token.
	userID string

	// send queues frames awaiting delivery to this subscriber.
	send chan []byte

	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client bound to the given session and connection.
func NewClient(session *Session, conn *websocket.Conn, userID string) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "Subscriber").
		Str("room_id", session.RoomID).
		Str("user_id", userID).
		Logger()

	return &Client{
		session: session,
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, 64),
		logger:  clientLogger,
	}
}

// Enqueue offers a frame to the client's send queue without blocking.
// It reports false when the queue is full or closed, in which case the
// session drops the connection.
func (c *Client) Enqueue(frame []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// CloseSend closes the send queue exactly once, ending WritePump.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump consumes the connection until it closes, servicing pong heartbeats.
// Any data frame a subscriber sends is discarded.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxInboundSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Subscriber connection closed unexpectedly")
			}
			break
		}
	}
}

// cleanupOnDisconnect unregisters the client and closes the connection when
// ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	select {
	case c.session.unregister <- c:
	default:
		c.logger.Warn().Msg("Session unregister channel blocked. Connection cleanup still proceeding.")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Subscriber connection close error")
	}
}

// WritePump drains the send queue onto the WebSocket connection and keeps the
// heartbeat alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Subscriber connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// Kick closes the connection with the custom "replaced" close code, used when
// the same user opens a newer subscription.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeReplaced).
		Str("reason", reason).
		Msg("Kicking subscriber connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeReplaced, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send kick close message.")
	}

	c.CloseSend()
}
