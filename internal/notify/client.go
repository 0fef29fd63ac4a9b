// internal/notify/client.go
//
// One websocket subscriber of a match's event stream.
// Responsibilities:
//   - Write pump: forward hub events to the peer and ping on an interval.
//   - Read pump: discard inbound frames, keep the read deadline fresh and
//     unsubscribe when the peer goes away.

package notify

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client streams one match's events over a websocket connection.
type Client struct {
	conn     *websocket.Conn
	events   <-chan []byte
	cancel   func()
	matchID  string
	playerID string
	closed   chan struct{}
}

// NewClient subscribes conn to matchID on hub.
func NewClient(hub *Hub, conn *websocket.Conn, matchID, playerID string) *Client {
	events, cancel := hub.Subscribe(matchID)
	return &Client{
		conn:     conn,
		events:   events,
		cancel:   cancel,
		matchID:  matchID,
		playerID: playerID,
		closed:   make(chan struct{}),
	}
}

// Serve runs the write pump in the background and the read pump on the
// calling goroutine. It returns once the peer goes away.
func (c *Client) Serve() {
	go c.WritePump()
	c.ReadPump()
}

// ReadPump discards inbound messages and keeps the read deadline fresh
// through pongs. On return the subscription is canceled.
func (c *Client) ReadPump() {
	defer func() {
		close(c.closed)
		c.cancel()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("match", c.matchID).Str("player", c.playerID).Msg("websocket read")
			}
			return
		}
	}
}

// WritePump forwards events to the peer and pings it periodically.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("match", c.matchID).Msg("websocket write")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
