// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

// Package ws is the WebSocket transport adapter: it accepts client
// connections, establishes their identity, and hands them to the session
// core as session.Conn values.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/broadside/broadside/internal/session"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Conn adapts a gorilla WebSocket connection to session.Conn. A dedicated
// reader goroutine feeds frames into a channel so Recv can wait with a
// bounded timeout without poisoning the underlying connection with read
// deadlines.
type Conn struct {
	uid     string
	gid     string
	players []string

	ws      *websocket.Conn
	writeMu sync.Mutex

	msgCh     chan []byte
	errCh     chan error
	done      chan struct{}
	closeOnce sync.Once
	term      error // sticky terminal receive error
}

// NewConn wraps an upgraded WebSocket connection with its established
// identity and starts the reader.
func NewConn(uid, gid string, players []string, wsConn *websocket.Conn) *Conn {
	c := &Conn{
		uid:     uid,
		gid:     gid,
		players: players,
		ws:      wsConn,
		msgCh:   make(chan []byte),
		errCh:   make(chan error, 1),
		done:    make(chan struct{}),
	}
	wsConn.SetReadLimit(maxMessageSize)
	go c.readLoop()
	return c
}

// UID returns the connected user's identity.
func (c *Conn) UID() string { return c.uid }

// GID returns the game instance identifier the client joined.
func (c *Conn) GID() string { return c.gid }

// Players returns the authorized participant roster.
func (c *Conn) Players() []string { return c.players }

func (c *Conn) String() string {
	return fmt.Sprintf("%s@%s", c.uid, c.gid)
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.errCh <- classifyReadError(err)
			return
		}
		// The frame may never be consumed: the controller can stop without
		// a final Recv. Close releases the send so the reader can exit.
		select {
		case c.msgCh <- data:
		case <-c.done:
			return
		}
	}
}

// Recv waits up to timeout for the next client request. Once the connection
// has failed, every subsequent call returns the same terminal error.
func (c *Conn) Recv(timeout time.Duration) (*session.Request, error) {
	if c.term != nil {
		return nil, c.term
	}
	select {
	case <-c.done:
		c.term = session.ErrClosedGraceful
		return nil, c.term
	default:
	}

	select {
	case data := <-c.msgCh:
		var req session.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, session.ErrMalformedRequest(err)
		}
		return &req, nil
	case err := <-c.errCh:
		c.term = err
		return nil, err
	case <-c.done:
		c.term = session.ErrClosedGraceful
		return nil, c.term
	case <-time.After(timeout):
		return nil, session.ErrRecvTimeout
	}
}

// Send writes a JSON message to the client with a bounded write deadline.
// Safe for concurrent use: acks from the controller and broadcasts from
// other connections' goroutines share this connection.
func (c *Conn) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Close releases the reader goroutine and closes the underlying WebSocket
// connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.ws.Close()
}

// classifyReadError maps gorilla read failures onto the session package's
// transport sentinels.
func classifyReadError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return session.ErrClosedGraceful
	}
	if errors.Is(err, net.ErrClosed) {
		return session.ErrClosedGraceful
	}
	return fmt.Errorf("%w: %v", session.ErrClosedAbrupt, err)
}
