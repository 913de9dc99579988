// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/broadside/broadside/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Server accepts WebSocket connections and routes each one to its game
// instance through the session registry.
type Server struct {
	addr     string
	path     string
	registry *session.Registry
	upgrader websocket.Upgrader

	listener net.Listener
	mu       sync.RWMutex
}

// NewServer creates a WebSocket server serving the endpoint at path.
func NewServer(addr, path string, registry *session.Registry) *Server {
	return &Server{
		addr:     addr,
		path:     path,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until context is cancelled. On shutdown
// it stops the registry, which unwinds every live connection handler.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("WebSocket server started", "addr", listener.Addr(), "path", s.path)

	go func() {
		<-ctx.Done()
		s.registry.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Debug("error shutting down http server", "error", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWS establishes the client's identity, upgrades the connection, and
// blocks in the session layer until the connection ends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	gid := query.Get("gid")
	if gid == "" {
		http.Error(w, "missing 'gid' parameter", http.StatusBadRequest)
		return
	}

	var uid string
	var players []string
	if s.registry.AuthEnabled() {
		identity, err := s.registry.Authenticate(gid, bearerToken(r))
		if err != nil {
			slog.Info("rejected connection", "gid", gid, "remote", r.RemoteAddr, "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		uid = identity.UID
		players = identity.Players
	} else {
		uid = query.Get("uid")
		if uid == "" {
			http.Error(w, "missing 'uid' parameter", http.StatusBadRequest)
			return
		}
		players = splitPlayers(query.Get("players"))
		if len(players) == 0 {
			http.Error(w, "missing 'players' parameter", http.StatusBadRequest)
			return
		}
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConn(uid, gid, players, wsConn)
	defer func() { _ = conn.Close() }()

	slog.Info("client connected", "uid", uid, "gid", gid, "remote", r.RemoteAddr)
	s.registry.HandleConnection(r.Context(), conn)
}

// bearerToken extracts the token from the Authorization header, falling back
// to the "token" query parameter for clients that cannot set headers on the
// WebSocket handshake.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func splitPlayers(raw string) []string {
	var players []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}
	return players
}
