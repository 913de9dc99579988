// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"sync"
	"time"

	"github.com/broadside/broadside/internal/game"
)

type recvResult struct {
	req *Request
	err error
}

// fakeConn is an in-memory Conn for driving the session core in tests.
// Inbound traffic is scripted through push/failWith; outbound messages are
// recorded.
type fakeConn struct {
	uid     string
	gid     string
	players []string

	in chan recvResult

	mu      sync.Mutex
	sent    []any
	sendErr error
}

func newFakeConn(uid, gid string, players ...string) *fakeConn {
	return &fakeConn{
		uid:     uid,
		gid:     gid,
		players: players,
		in:      make(chan recvResult, 16),
	}
}

func (c *fakeConn) UID() string       { return c.uid }
func (c *fakeConn) GID() string       { return c.gid }
func (c *fakeConn) Players() []string { return c.players }

func (c *fakeConn) Recv(timeout time.Duration) (*Request, error) {
	select {
	case r := <-c.in:
		return r.req, r.err
	case <-time.After(timeout):
		return nil, ErrRecvTimeout
	}
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeConn) push(req *Request)    { c.in <- recvResult{req: req} }
func (c *fakeConn) failWith(err error)   { c.in <- recvResult{err: err} }
func (c *fakeConn) setSendErr(err error) { c.mu.Lock(); c.sendErr = err; c.mu.Unlock() }

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) acks() []Ack {
	var acks []Ack
	for _, m := range c.messages() {
		if ack, ok := m.(Ack); ok {
			acks = append(acks, ack)
		}
	}
	return acks
}

func (c *fakeConn) events() []map[string]any {
	var events []map[string]any
	for _, m := range c.messages() {
		if payload, ok := m.(map[string]any); ok {
			events = append(events, payload)
		}
	}
	return events
}

// discardSink drops model events. Used when a test only cares about acks.
type discardSink struct{}

func (discardSink) Notify(game.Event) {}
