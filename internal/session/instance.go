// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/broadside/broadside/internal/game"
	"github.com/broadside/broadside/internal/observability"
)

// Instance owns everything for one game id: the shared model, the publisher
// observing it, and the controllers of every live connection. All clients
// that present the same game id share one Instance.
type Instance struct {
	gid     string
	players []string

	model     *game.Model
	publisher *Publisher

	mu          sync.Mutex
	controllers map[Conn]*Controller
	pollTimeout time.Duration
}

// InstanceOption configures an Instance during construction.
type InstanceOption func(*Instance)

// WithInstancePollTimeout sets the receive poll timeout for the instance's
// controllers.
func WithInstancePollTimeout(d time.Duration) InstanceOption {
	return func(i *Instance) {
		if d > 0 {
			i.pollTimeout = d
		}
	}
}

// WithPublisher replaces the default pass-through publisher, e.g. to install
// a payload shaper.
func WithPublisher(p *Publisher) InstanceOption {
	return func(i *Instance) {
		i.publisher = p
	}
}

// NewInstance creates the instance for gid with its authorized roster. The
// publisher is registered as the model's single event sink.
func NewInstance(gid string, players []string, opts ...InstanceOption) *Instance {
	i := &Instance{
		gid:         gid,
		players:     players,
		controllers: make(map[Conn]*Controller),
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.publisher == nil {
		i.publisher = NewPublisher()
	}
	i.model = game.NewModel(players, i.publisher)
	return i
}

// GID returns the instance's game id.
func (i *Instance) GID() string {
	return i.gid
}

// Model returns the instance's shared game model.
func (i *Instance) Model() *game.Model {
	return i.model
}

// HandleConnection creates a controller for conn, registers it, and runs the
// controller loop on the calling goroutine. It does not return until the
// client disconnects or the instance is stopped.
//
// Registration and subscription happen in one critical section: a connection
// is never visible to the publisher before its controller exists.
func (i *Instance) HandleConnection(ctx context.Context, conn Conn) {
	controller := NewController(conn, i.model, i.handleClose, WithPollTimeout(i.pollTimeout))

	i.mu.Lock()
	i.controllers[conn] = controller
	i.publisher.Subscribe(conn)
	i.mu.Unlock()

	observability.RecordConnectionOpened()
	controller.Run(ctx)
}

// handleClose is the controller's close callback. It removes the controller
// and unsubscribes the connection in one critical section. The controller
// guarantees at-most-once invocation per connection.
func (i *Instance) handleClose(conn Conn) {
	i.mu.Lock()
	delete(i.controllers, conn)
	i.publisher.Unsubscribe(conn)
	i.mu.Unlock()

	observability.RecordConnectionClosed()
}

// Stop signals stop to every registered controller. It does not wait for
// their loops to exit; each controller observes the signal at its next poll.
// Safe to call repeatedly.
func (i *Instance) Stop() {
	i.mu.Lock()
	controllers := make([]*Controller, 0, len(i.controllers))
	for _, c := range i.controllers {
		controllers = append(controllers, c)
	}
	i.mu.Unlock()

	slog.Info("stopping instance", "gid", i.gid, "connections", len(controllers))
	for _, c := range controllers {
		c.Stop()
	}
}

// ActiveConnections returns the number of currently registered controllers.
func (i *Instance) ActiveConnections() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.controllers)
}
