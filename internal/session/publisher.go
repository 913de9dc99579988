// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"log/slog"
	"sync"

	"github.com/broadside/broadside/internal/game"
	"github.com/broadside/broadside/internal/observability"
)

// ShapeFunc customizes the payload delivered to one subscriber. It receives
// a private copy of the base payload and returns what should be sent, or nil
// to skip the subscriber. Used for things like hiding privileged fields from
// non-owning subscribers; the default is pass-through.
type ShapeFunc func(conn Conn, event game.Event, payload map[string]any) map[string]any

// Publisher fans instance events out to every subscribed connection. It is
// the single event sink of the instance's model: emission order is preserved
// and each publish sends to a point-in-time snapshot of the subscriber set.
type Publisher struct {
	mu    sync.Mutex
	subs  []Conn
	shape ShapeFunc
}

// PublisherOption configures a Publisher during construction.
type PublisherOption func(*Publisher)

// WithShaper installs a per-subscriber payload shaping hook.
func WithShaper(shape ShapeFunc) PublisherOption {
	return func(p *Publisher) {
		p.shape = shape
	}
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe adds a connection to the subscriber set.
func (p *Publisher) Subscribe(conn Conn) {
	slog.Debug("adding subscriber", "uid", conn.UID(), "gid", conn.GID())
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, conn)
}

// Unsubscribe removes a connection from the subscriber set. Removing a
// connection that is not subscribed is a no-op.
func (p *Publisher) Unsubscribe(conn Conn) {
	slog.Debug("removing subscriber", "uid", conn.UID(), "gid", conn.GID())
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subs {
		if sub == conn {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Notify implements game.Sink by publishing the event.
func (p *Publisher) Notify(event game.Event) {
	p.Publish(event)
}

// Publish translates the event to its wire form and sends it to a snapshot
// of the current subscribers. Sends are independent: one subscriber's
// failure does not block or fail delivery to the others.
func (p *Publisher) Publish(event game.Event) {
	p.mu.Lock()
	subs := make([]Conn, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	slog.Debug("publishing event",
		"event_id", event.ID.String(),
		"event_type", string(event.Type),
		"subscribers", len(subs),
	)
	observability.RecordEventPublished(string(event.Type))

	base := eventPayload(event)
	for _, sub := range subs {
		payload := base
		if p.shape != nil {
			payload = p.shape(sub, event, clonePayload(base))
			if payload == nil {
				continue
			}
		}
		if err := sub.Send(payload); err != nil {
			slog.Debug("failed to deliver event to subscriber",
				"uid", sub.UID(),
				"gid", sub.GID(),
				"event_id", event.ID.String(),
				"error", err,
			)
		}
	}
}

// eventPayload builds the broadcast wire object: the event kind and its
// human-readable message plus the event-specific fields.
func eventPayload(event game.Event) map[string]any {
	payload := make(map[string]any, len(event.Fields)+2)
	for k, v := range event.Fields {
		payload[k] = v
	}
	payload["event"] = string(event.Type)
	payload["message"] = event.Message
	return payload
}

func clonePayload(payload map[string]any) map[string]any {
	clone := make(map[string]any, len(payload))
	for k, v := range payload {
		clone[k] = v
	}
	return clone
}
