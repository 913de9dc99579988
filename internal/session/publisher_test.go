// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broadside/broadside/internal/game"
)

func TestPublisher_FansOutToAllSubscribers(t *testing.T) {
	p := NewPublisher()
	alice := newFakeConn("alice", "g1", "alice", "bob")
	bob := newFakeConn("bob", "g1", "alice", "bob")
	p.Subscribe(alice)
	p.Subscribe(bob)

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	for _, conn := range []*fakeConn{alice, bob} {
		events := conn.events()
		require.Len(t, events, 1)
		assert.Equal(t, "ChatEvent", events[0]["event"])
		assert.Equal(t, `alice says, "hello"`, events[0]["message"])
		assert.Equal(t, "alice", events[0]["player_id"])
		assert.Equal(t, "hello", events[0]["text"])
	}
}

func TestPublisher_UnsubscribedConnectionStopsReceiving(t *testing.T) {
	p := NewPublisher()
	alice := newFakeConn("alice", "g1", "alice", "bob")
	bob := newFakeConn("bob", "g1", "alice", "bob")
	p.Subscribe(alice)
	p.Subscribe(bob)
	p.Unsubscribe(bob)

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	assert.Len(t, alice.events(), 1)
	assert.Empty(t, bob.events())
}

func TestPublisher_UnsubscribeUnknownConnectionIsNoOp(t *testing.T) {
	p := NewPublisher()
	alice := newFakeConn("alice", "g1", "alice", "bob")
	p.Subscribe(alice)

	p.Unsubscribe(newFakeConn("stranger", "g1", "alice", "bob"))

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	assert.Len(t, alice.events(), 1)
}

func TestPublisher_OneFailedSendDoesNotBlockOthers(t *testing.T) {
	p := NewPublisher()
	alice := newFakeConn("alice", "g1", "alice", "bob")
	bob := newFakeConn("bob", "g1", "alice", "bob")
	bob.setSendErr(errors.New("pipe broken"))
	p.Subscribe(bob)
	p.Subscribe(alice)

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	assert.Len(t, alice.events(), 1)
}

func TestPublisher_ShaperCustomizesPerSubscriber(t *testing.T) {
	shape := func(conn Conn, _ game.Event, payload map[string]any) map[string]any {
		if conn.UID() == "bob" {
			return nil // bob sees nothing
		}
		payload["shaped_for"] = conn.UID()
		return payload
	}
	p := NewPublisher(WithShaper(shape))
	alice := newFakeConn("alice", "g1", "alice", "bob")
	bob := newFakeConn("bob", "g1", "alice", "bob")
	p.Subscribe(alice)
	p.Subscribe(bob)

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	events := alice.events()
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0]["shaped_for"])
	assert.Empty(t, bob.events())
}

func TestPublisher_ShaperMutationDoesNotLeakBetweenSubscribers(t *testing.T) {
	shape := func(conn Conn, _ game.Event, payload map[string]any) map[string]any {
		payload["shaped_for"] = conn.UID()
		return payload
	}
	p := NewPublisher(WithShaper(shape))
	alice := newFakeConn("alice", "g1", "alice", "bob")
	bob := newFakeConn("bob", "g1", "alice", "bob")
	p.Subscribe(alice)
	p.Subscribe(bob)

	event := game.NewChatEvent("alice", "hello")
	p.Publish(event)

	require.Len(t, alice.events(), 1)
	require.Len(t, bob.events(), 1)
	assert.Equal(t, "alice", alice.events()[0]["shaped_for"])
	assert.Equal(t, "bob", bob.events()[0]["shaped_for"])
}
