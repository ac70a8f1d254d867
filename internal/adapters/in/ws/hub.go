// Package ws is the WebSocket gateway. It accepts client connections, keeps
// the connection registry in step with them and pushes notifications to the
// sockets it holds.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"golang.org/x/net/websocket"
)

const (
	pingFrame = "ping"
	pongFrame = "pong"

	defaultWriteTimeout = 5 * time.Second
)

type ConnectionHandler interface {
	Register(ctx context.Context, command commands.RegisterConnectionCommand) (connection.Connection, error)
	Deregister(ctx context.Context, command commands.DeregisterConnectionCommand) error
}

type TokenVerifier interface {
	Verify(raw string) (actor.Actor, error)
}

// socket serialises writes to one client; pushes and pong replies may race.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socket) send(ctx context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return websocket.Message.Send(s.conn, msg)
}

// Hub holds the sockets opened against this instance and implements
// ports.SocketPusher for them.
type Hub struct {
	mu      sync.RWMutex
	sockets map[string]*socket

	handler  ConnectionHandler
	verifier TokenVerifier
	logger   *slog.Logger
}

func NewHub(handler ConnectionHandler, verifier TokenVerifier, logger *slog.Logger) *Hub {
	return &Hub{
		sockets:  make(map[string]*socket),
		handler:  handler,
		verifier: verifier,
		logger:   logger.With("component", "WebSocketHub"),
	}
}

// Handler serves the upgrade. The optional ?token= query parameter carries
// the client's bearer token; without it the client is anonymous. A token that
// fails verification is refused.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{
		Handshake: func(_ *websocket.Config, r *http.Request) error {
			if raw := r.URL.Query().Get("token"); raw != "" {
				if _, err := h.verifier.Verify(raw); err != nil {
					return err
				}
			}
			return nil
		},
		Handler: h.serve,
	}
}

func (h *Hub) serve(conn *websocket.Conn) {
	ctx := conn.Request().Context()
	defer conn.Close()

	var identity *actor.Actor
	if raw := conn.Request().URL.Query().Get("token"); raw != "" {
		a, err := h.verifier.Verify(raw)
		if err != nil {
			return
		}
		identity = &a
	}

	id := kernel.NewUUID().String()
	registerCmd, err := commands.NewRegisterConnectionCommand(id, identity)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid connection", "error", err)
		return
	}

	// The socket must be pushable before the registry can hand its id out.
	s := &socket{conn: conn}
	h.mu.Lock()
	h.sockets[id] = s
	h.mu.Unlock()

	if _, err = h.handler.Register(ctx, registerCmd); err != nil {
		h.mu.Lock()
		delete(h.sockets, id)
		h.mu.Unlock()
		h.logger.ErrorContext(ctx, "failed to register connection", "connection_id", id, "error", err)
		return
	}

	defer h.disconnect(id)

	for {
		var msg string
		if err = websocket.Message.Receive(conn, &msg); err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.DebugContext(ctx, "connection read ended", "connection_id", id, "error", err)
			}
			return
		}
		if strings.EqualFold(strings.TrimSpace(msg), pingFrame) {
			if err = s.send(ctx, pongFrame); err != nil {
				return
			}
		}
	}
}

func (h *Hub) disconnect(id string) {
	h.mu.Lock()
	delete(h.sockets, id)
	h.mu.Unlock()

	// The request context is done once the client has gone.
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()

	cmd, err := commands.NewDeregisterConnectionCommand(id)
	if err == nil {
		err = h.handler.Deregister(ctx, cmd)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "failed to deregister connection", "connection_id", id, "error", err)
	}
}

// Push writes payload as a text frame. A connection this instance does not
// hold, or one whose socket is already closed, is reported as errs.ErrGone.
func (h *Hub) Push(ctx context.Context, connectionID string, payload []byte) error {
	h.mu.RLock()
	s, ok := h.sockets[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s: %w", connectionID, errs.ErrGone)
	}

	if err := s.send(ctx, string(payload)); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
			return fmt.Errorf("connection %s: %w", connectionID, errs.ErrGone)
		}
		return err
	}
	return nil
}

// Len reports the number of sockets currently held.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sockets)
}

// Close closes every held socket; each serve loop then deregisters its id.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sockets {
		_ = s.conn.Close()
	}
}
