// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"errors"

	"github.com/samber/oops"

	"github.com/broadside/broadside/internal/game"
)

// Transport-level sentinels returned by Conn.Recv.
var (
	// ErrRecvTimeout means nothing arrived within the poll timeout. Not an
	// error: the controller loops and checks for stop.
	ErrRecvTimeout = errors.New("receive timed out")
	// ErrClosedGraceful means the peer closed the channel cleanly.
	ErrClosedGraceful = errors.New("connection closed by peer")
	// ErrClosedAbrupt means the channel failed (I/O error, dropped peer).
	ErrClosedAbrupt = errors.New("connection closed abruptly")
)

// Error codes for request handling failures.
const (
	CodeProtocolError  = "PROTOCOL_ERROR"
	CodeUnknownCommand = "UNKNOWN_COMMAND"
)

// ErrMustSpecifyCommand rejects a request without a command field.
func ErrMustSpecifyCommand() error {
	return oops.Code(CodeProtocolError).
		Errorf("must specify command")
}

// ErrUnknownCommand rejects an unrecognized command name.
func ErrUnknownCommand(name string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", name).
		Errorf("invalid command '%s'", name)
}

// ErrMalformedRequest rejects a frame that could not be decoded.
func ErrMalformedRequest(cause error) error {
	return oops.Code(CodeProtocolError).
		Wrapf(cause, "malformed request")
}

// playerMessage extracts the reason to report in an error ack. Game-rule
// rejections and protocol errors carry user-facing text; anything else gets
// a generic reply so internals never leak to clients.
func playerMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}
	switch oopsErr.Code() {
	case game.CodeGameError, CodeProtocolError, CodeUnknownCommand:
		return oopsErr.Error()
	default:
		return "Something went wrong. Try again."
	}
}
