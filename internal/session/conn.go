// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

// Package session contains the connection-management core: the per-connection
// controller loop, the per-instance event publisher, the instance registry,
// and the top-level listener registry that routes connections to instances.
package session

import (
	"time"

	"github.com/broadside/broadside/internal/game"
)

// Conn is a bidirectional message channel to one client. The transport layer
// establishes the user identity, the target game instance, and the authorized
// roster before a Conn reaches this package.
//
// Recv blocks for at most the given timeout and returns ErrRecvTimeout when
// nothing arrived; the controller uses the timeout only to poll for stop, not
// as a protocol deadline. Send must be non-blocking or bounded.
type Conn interface {
	// UID returns the connected user's identity.
	UID() string
	// GID returns the game instance identifier the client joined.
	GID() string
	// Players returns the authorized participant roster for the instance.
	Players() []string
	// Recv waits up to timeout for the next request. It returns
	// ErrRecvTimeout on expiry, ErrClosedGraceful or ErrClosedAbrupt when
	// the channel is gone, or a protocol error for a malformed frame.
	Recv(timeout time.Duration) (*Request, error)
	// Send writes a JSON-encodable message to the client.
	Send(v any) error
}

// Request is an inbound client message. Command selects the model method;
// the remaining fields are command-specific arguments.
type Request struct {
	Command string          `json:"command"`
	Ships   []game.ShipSpec `json:"ships,omitempty"`
	Row     *int            `json:"row,omitempty"`
	Col     *int            `json:"col,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Ack statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Ack is the correlated response to a single request, sent only to the
// connection that issued it.
type Ack struct {
	Status string    `json:"status"`
	Error  *AckError `json:"error,omitempty"`
}

// AckError carries the human-readable rejection reason.
type AckError struct {
	Message string `json:"message"`
}

func okAck() Ack {
	return Ack{Status: StatusOK}
}

func errorAck(message string) Ack {
	return Ack{Status: StatusError, Error: &AckError{Message: message}}
}
