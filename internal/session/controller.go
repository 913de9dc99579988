// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/broadside/broadside/internal/game"
	"github.com/broadside/broadside/internal/observability"
	"github.com/broadside/broadside/pkg/errutil"
)

var tracer = otel.Tracer("broadside/session")

// DefaultPollTimeout bounds each receive so the loop can observe a stop
// request. It is not a protocol deadline.
const DefaultPollTimeout = 250 * time.Millisecond

// Recognized command names.
const (
	CommandPlaceShips = "place_ships"
	CommandAttack     = "attack"
	CommandChat       = "chat"
)

// Controller runs the request loop for one connection. It exclusively owns
// the connection and holds non-owning references to the instance's shared
// model. Every request gets exactly one ack; events caused by a successful
// command reach the client separately through the publisher.
type Controller struct {
	conn        Conn
	model       *game.Model
	onClose     func(Conn)
	pollTimeout time.Duration

	stopCh    chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

// ControllerOption configures a Controller during construction.
type ControllerOption func(*Controller)

// WithPollTimeout overrides the receive poll timeout.
func WithPollTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// NewController creates a controller for conn. onClose is invoked exactly
// once when the loop exits, whichever path it exits by.
func NewController(conn Conn, model *game.Model, onClose func(Conn), opts ...ControllerOption) *Controller {
	c := &Controller{
		conn:        conn,
		model:       model,
		onClose:     onClose,
		pollTimeout: DefaultPollTimeout,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes requests until the connection closes, Stop is called, or ctx
// is cancelled. It never lets an error escape: every exit path reaches the
// close callback, exactly once.
func (c *Controller) Run(ctx context.Context) {
	slog.Info("client connected",
		"uid", c.conn.UID(),
		"gid", c.conn.GID(),
	)
	defer func() {
		c.closeOnce.Do(func() {
			if c.onClose != nil {
				c.onClose(c.conn)
			}
		})
		slog.Info("client disconnected",
			"uid", c.conn.UID(),
			"gid", c.conn.GID(),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		req, err := c.conn.Recv(c.pollTimeout)
		switch {
		case err == nil:
			c.handle(ctx, req)
		case errors.Is(err, ErrRecvTimeout):
			// Normal: the client is quiet. Loop to poll for stop.
		case errors.Is(err, ErrClosedGraceful):
			return
		case errors.Is(err, ErrClosedAbrupt):
			errutil.LogError(
				slog.With("uid", c.conn.UID(), "gid", c.conn.GID()),
				"error communicating with client", err)
			return
		default:
			// Malformed frame on an otherwise healthy connection.
			c.send(errorAck(playerMessage(err)))
		}
	}
}

// Stop signals the loop to exit at its next poll. Idempotent and safe to
// call from any goroutine; it does not interrupt a receive in progress.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		slog.Info("signalling stop",
			"uid", c.conn.UID(),
			"gid", c.conn.GID(),
		)
		close(c.stopCh)
	})
}

func (c *Controller) handle(ctx context.Context, req *Request) {
	slog.Debug("received request",
		"uid", c.conn.UID(),
		"gid", c.conn.GID(),
		"command", req.Command,
	)

	name := strings.ToLower(req.Command)
	err := c.dispatch(ctx, name, req)

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	observability.RecordCommand(name, status)

	if err != nil {
		c.send(errorAck(playerMessage(err)))
		return
	}
	c.send(okAck())
}

// dispatch maps a request to the corresponding model method. Argument
// validation failures are rejected here without touching the model.
func (c *Controller) dispatch(ctx context.Context, name string, req *Request) (err error) {
	if req.Command == "" {
		return ErrMustSpecifyCommand()
	}

	_, span := tracer.Start(ctx, "session.command",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("game.id", c.conn.GID()),
			attribute.String("user.id", c.conn.UID()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch name {
	case CommandPlaceShips:
		if req.Ships == nil {
			return game.ErrGame("Missing or invalid 'ships' list in request.")
		}
		return c.model.PlaceShips(c.conn.UID(), req.Ships)
	case CommandAttack:
		if req.Row == nil || req.Col == nil {
			return game.ErrGame("Missing 'row' or 'col' for attack.")
		}
		return c.model.Attack(c.conn.UID(), *req.Row, *req.Col)
	case CommandChat:
		if req.Message == "" {
			return game.ErrGame("Missing 'message' for chat.")
		}
		return c.model.Chat(c.conn.UID(), req.Message)
	default:
		return ErrUnknownCommand(name)
	}
}

func (c *Controller) send(v any) {
	if err := c.conn.Send(v); err != nil {
		slog.Debug("failed to send response to client",
			"uid", c.conn.UID(),
			"gid", c.conn.GID(),
			"error", err,
		)
	}
}
