// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/broadside/broadside/internal/observability"
)

// Identity is the authenticated result of a token validation: the user the
// token was issued to and the authorized roster of the instance it admits
// them to.
type Identity struct {
	UID     string
	Players []string
}

// AuthFunc validates a bearer token against a game id. It returns the
// authorized identity or an error when the token is rejected.
type AuthFunc func(gid, token string) (Identity, error)

// Registry is the top-level owner of game instances, keyed by game id. It
// creates instances on demand and fans shutdown out to all of them.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance

	authenticate AuthFunc
	pollTimeout  time.Duration
}

// RegistryOption configures a Registry during construction.
type RegistryOption func(*Registry)

// WithAuthenticator enables the authentication gate. Without it, every
// connection is accepted unauthenticated.
func WithAuthenticator(fn AuthFunc) RegistryOption {
	return func(r *Registry) {
		r.authenticate = fn
	}
}

// WithRegistryPollTimeout sets the receive poll timeout used by the
// controllers of every instance the registry creates.
func WithRegistryPollTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.pollTimeout = d
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		instances:   make(map[string]*Instance),
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AuthEnabled reports whether the authentication gate is configured.
func (r *Registry) AuthEnabled() bool {
	return r.authenticate != nil
}

// Authenticate validates a bearer token for the given game id. It returns
// the authorized identity, or an error when authentication is enabled and
// the token is rejected. With authentication disabled it rejects nothing and
// returns a zero identity.
func (r *Registry) Authenticate(gid, token string) (Identity, error) {
	if r.authenticate == nil {
		return Identity{}, nil
	}
	return r.authenticate(gid, token)
}

// HandleConnection routes conn to the instance for its game id, creating the
// instance on first arrival, and blocks for the connection's full lifetime.
// The lookup-or-create is atomic: concurrent first connections for one game
// id always land on a single instance.
func (r *Registry) HandleConnection(ctx context.Context, conn Conn) {
	instance := r.findOrCreate(conn.GID(), conn.Players())
	instance.HandleConnection(ctx, conn)
}

func (r *Registry) findOrCreate(gid string, players []string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[gid]
	if !ok {
		instance = NewInstance(gid, players, WithInstancePollTimeout(r.pollTimeout))
		r.instances[gid] = instance
		observability.RecordInstanceCreated()
		slog.Info("created new instance", "gid", gid, "players", players)
	}
	return instance
}

// Instance returns the instance for gid, or nil if none exists.
func (r *Registry) Instance(gid string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[gid]
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Stop broadcasts stop to every instance. Idempotent: stopping an already
// stopped registry has no further effect.
func (r *Registry) Stop() {
	r.mu.Lock()
	instances := make([]*Instance, 0, len(r.instances))
	for _, instance := range r.instances {
		instances = append(instances, instance)
	}
	r.mu.Unlock()

	slog.Info("stopping all instances", "instances", len(instances))
	for _, instance := range instances {
		instance.Stop()
	}
}
