package ws

import (
	"encoding/json"
	"time"

	"tapearn/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 64
)

type Client struct {
	AccountID int64
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
}

func NewClient(accountID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		AccountID: accountID,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		Hub:       hub,
	}
}

// Run registers the client and pumps until the connection ends.
func (c *Client) Run() {
	c.Hub.Register(c)
	c.Hub.reply(c, encode(MsgReady, nil))

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "account_id", c.AccountID, "error", err)
			}
			return
		}

		// the feed is one-way; only application level pings are answered
		var in Event
		if json.Unmarshal(msg, &in) == nil && in.Type == MsgPing {
			c.Hub.reply(c, encode(MsgPong, nil))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "account_id", c.AccountID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
