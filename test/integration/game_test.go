// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

//go:build integration

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/broadside/broadside/internal/session"
	"github.com/broadside/broadside/internal/ws"
)

const messageDeadline = 5 * time.Second

// client drives one WebSocket connection in a spec.
type client struct {
	conn *websocket.Conn
}

func connect(addr, query string) *client {
	conn, resp, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/play?%s", addr, query), nil)
	Expect(err).NotTo(HaveOccurred())
	if resp != nil {
		_ = resp.Body.Close()
	}
	return &client{conn: conn}
}

func (c *client) close() {
	_ = c.conn.Close()
}

func (c *client) send(v map[string]any) {
	Expect(c.conn.WriteJSON(v)).To(Succeed())
}

func (c *client) next() map[string]any {
	Expect(c.conn.SetReadDeadline(time.Now().Add(messageDeadline))).To(Succeed())
	var msg map[string]any
	Expect(c.conn.ReadJSON(&msg)).To(Succeed())
	return msg
}

// nextAck reads messages until an ack arrives, skipping interleaved event
// broadcasts.
func (c *client) nextAck() map[string]any {
	for range 16 {
		msg := c.next()
		if _, ok := msg["status"]; ok {
			return msg
		}
	}
	Fail("no ack within 16 messages")
	return nil
}

// nextEvent reads messages until an event of the given kind arrives, skipping
// acks and other events.
func (c *client) nextEvent(kind string) map[string]any {
	for range 16 {
		msg := c.next()
		if msg["event"] == kind {
			return msg
		}
	}
	Fail(fmt.Sprintf("no %s within 16 messages", kind))
	return nil
}

var _ = Describe("A two-player game", func() {
	var (
		cancel context.CancelFunc
		done   chan error
		addr   string

		alice *client
		bob   *client
	)

	singleShipLayout := []map[string]any{
		{"name": "Dinghy", "size": 1, "row": 0, "col": 0, "horizontal": true},
	}

	BeforeEach(func() {
		registry := session.NewRegistry(
			session.WithRegistryPollTimeout(5 * time.Millisecond),
		)
		server := ws.NewServer("127.0.0.1:0", "/play", registry)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- server.Run(ctx)
		}()
		Eventually(server.Addr).ShouldNot(BeEmpty())
		addr = server.Addr()

		alice = connect(addr, "gid=match-1&uid=alice&players=alice,bob")
		bob = connect(addr, "gid=match-1&uid=bob&players=alice,bob")
	})

	AfterEach(func() {
		alice.close()
		bob.close()
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("plays from placement to game over", func() {
		By("both players placing their ships")
		alice.send(map[string]any{"command": "place_ships", "ships": singleShipLayout})
		Expect(alice.nextAck()["status"]).To(Equal("ok"))

		bob.send(map[string]any{"command": "place_ships", "ships": singleShipLayout})
		Expect(bob.nextAck()["status"]).To(Equal("ok"))

		By("announcing the first turn to everyone")
		for _, c := range []*client{alice, bob} {
			turn := c.nextEvent("TurnEvent")
			Expect(turn["player_id"]).To(Equal("alice"))
			Expect(turn["message"]).To(Equal("It is now alice's turn."))
		}

		By("rejecting an attack out of turn")
		bob.send(map[string]any{"command": "attack", "row": 0, "col": 0})
		ack := bob.nextAck()
		Expect(ack["status"]).To(Equal("error"))
		Expect(ack["error"]).To(HaveKeyWithValue("message", "Not your turn"))

		By("alice sinking bob's only ship")
		alice.send(map[string]any{"command": "attack", "row": 0, "col": 0})
		Expect(alice.nextAck()["status"]).To(Equal("ok"))

		for _, c := range []*client{alice, bob} {
			attack := c.nextEvent("AttackEvent")
			Expect(attack["attacker_id"]).To(Equal("alice"))
			Expect(attack["result"]).To(Equal("hit"))
			Expect(attack["message"]).To(Equal("alice attacked (0, 0) - hit"))

			sunk := c.nextEvent("ShipSunkEvent")
			Expect(sunk["ship_name"]).To(Equal("Dinghy"))
			Expect(sunk["message"]).To(Equal("alice sank Dinghy"))

			over := c.nextEvent("GameOverEvent")
			Expect(over["winner_id"]).To(Equal("alice"))
			Expect(over["message"]).To(Equal("alice wins the game!"))
		}

		By("rejecting further attacks")
		bob.send(map[string]any{"command": "attack", "row": 1, "col": 1})
		ack = bob.nextAck()
		Expect(ack["status"]).To(Equal("error"))
		Expect(ack["error"]).To(HaveKeyWithValue("message", "Game is over"))
	})

	It("broadcasts chat in any phase", func() {
		alice.send(map[string]any{"command": "chat", "message": "ready when you are"})
		Expect(alice.nextAck()["status"]).To(Equal("ok"))

		chat := bob.nextEvent("ChatEvent")
		Expect(chat["player_id"]).To(Equal("alice"))
		Expect(chat["message"]).To(Equal(`alice says, "ready when you are"`))
	})

	It("rejects unknown and missing commands", func() {
		alice.send(map[string]any{"command": "teleport"})
		ack := alice.nextAck()
		Expect(ack["status"]).To(Equal("error"))
		Expect(ack["error"]).To(HaveKeyWithValue("message", "invalid command 'teleport'"))

		alice.send(map[string]any{})
		ack = alice.nextAck()
		Expect(ack["status"]).To(Equal("error"))
		Expect(ack["error"]).To(HaveKeyWithValue("message", "must specify command"))
	})
})
