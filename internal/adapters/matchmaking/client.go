/*
 * file: client.go
 * package: matchmaking
 * description:
 *     A fire-and-forget gorilla/websocket client that reports join/leave
 *     updates to the external matchmaking registry. One goroutine owns the
 *     connection; updates are handed off over a buffered channel, and a
 *     ticker keeps the connection alive with pings.
 */
package matchmaking

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/racecore/roomserver/internal/core/ports"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBacklog bounds how many updates can queue before Send starts
	// dropping them; matchmaking updates are best-effort and must never
	// block the room core.
	sendBacklog = 64
)

// wireUpdate is the JSON shape sent to the matchmaking registry.
type wireUpdate struct {
	RoomID   string `json:"room_id"`
	ClientID string `json:"client_id"`
	IsJoin   bool   `json:"is_join"`
	IsHost   bool   `json:"is_host"`
}

// Client implements ports.MatchmakingSender over a single long-lived
// websocket connection to the matchmaking registry.
type Client struct {
	conn *websocket.Conn
	send chan ports.MatchmakingUpdate
	done chan struct{}
}

// Dial connects to the matchmaking registry at url and starts the client's
// write pump. The caller should call Close when the room server shuts down.
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn: conn,
		send: make(chan ports.MatchmakingUpdate, sendBacklog),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c, nil
}

// Send enqueues an update for delivery. If the backlog is full the update is
// dropped — a lost matchmaking update never blocks or halts a room.
func (c *Client) Send(update ports.MatchmakingUpdate) {
	select {
	case c.send <- update:
	default:
		log.Printf("matchmaking: dropping update for room %s, send backlog full", update.RoomID)
	}
}

// Close stops the write pump and closes the underlying connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(wireUpdate{
				RoomID:   update.RoomID,
				ClientID: update.ClientID,
				IsJoin:   update.IsJoin,
				IsHost:   update.IsHost,
			})
			if err != nil {
				log.Printf("matchmaking: marshal update: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("matchmaking: write update: %v", err)
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("matchmaking: ping: %v", err)
			}
		case <-c.done:
			return
		}
	}
}
