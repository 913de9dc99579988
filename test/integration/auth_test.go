// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/broadside/broadside/internal/auth"
	"github.com/broadside/broadside/internal/session"
	"github.com/broadside/broadside/internal/ws"
)

const testIssuer = "urn:broadside:token-issuer"

var _ = Describe("Token authentication", func() {
	var (
		cancel context.CancelFunc
		done   chan error
		addr   string
		gen    *auth.Generator
	)

	BeforeEach(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		Expect(err).NotTo(HaveOccurred())
		gen = auth.NewGenerator(testIssuer, key, time.Hour)
		validator := auth.NewValidator(testIssuer, &key.PublicKey)

		registry := session.NewRegistry(
			session.WithRegistryPollTimeout(5*time.Millisecond),
			session.WithAuthenticator(func(gid, token string) (session.Identity, error) {
				identity, err := validator.Validate(gid, token)
				if err != nil {
					return session.Identity{}, err
				}
				return session.Identity{UID: identity.UID, Players: identity.Players}, nil
			}),
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
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("admits a client with a valid token and takes identity from the claims", func() {
		token, err := gen.Generate("alice", "match-1", []string{"alice", "bob"})
		Expect(err).NotTo(HaveOccurred())

		c := connect(addr, "gid=match-1&token="+token)
		defer c.close()

		c.send(map[string]any{"command": "chat", "message": "let me in"})
		Expect(c.nextAck()["status"]).To(Equal("ok"))
		Expect(c.nextEvent("ChatEvent")["player_id"]).To(Equal("alice"))
	})

	It("rejects a token issued for another game", func() {
		token, err := gen.Generate("alice", "match-2", []string{"alice", "bob"})
		Expect(err).NotTo(HaveOccurred())

		_, resp, err := websocket.DefaultDialer.Dial(
			fmt.Sprintf("ws://%s/play?gid=match-1&token=%s", addr, token), nil)
		Expect(err).To(MatchError(websocket.ErrBadHandshake))
		Expect(resp).NotTo(BeNil())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a missing token", func() {
		_, resp, err := websocket.DefaultDialer.Dial(
			fmt.Sprintf("ws://%s/play?gid=match-1", addr), nil)
		Expect(err).To(MatchError(websocket.ErrBadHandshake))
		Expect(resp).NotTo(BeNil())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})
})
