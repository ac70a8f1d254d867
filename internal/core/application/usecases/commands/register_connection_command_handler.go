package commands

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/ports"
)

// ConnectionCommandHandler keeps the connection registry in step with the
// WebSocket gateway's connect and disconnect callbacks.
type ConnectionCommandHandler struct {
	registry ports.ConnectionRegistry
	ttl      time.Duration
	logger   *slog.Logger
}

func NewConnectionCommandHandler(
	registry ports.ConnectionRegistry,
	ttl time.Duration,
	logger *slog.Logger,
) ConnectionCommandHandler {
	if ttl <= 0 {
		ttl = connection.DefaultTTL
	}
	return ConnectionCommandHandler{
		registry: registry,
		ttl:      ttl,
		logger:   logger.With("component", "ConnectionCommandHandler"),
	}
}

func (h ConnectionCommandHandler) Register(ctx context.Context, command RegisterConnectionCommand) (connection.Connection, error) {
	if err := command.Validate(); err != nil {
		return connection.Connection{}, err
	}

	var userID, tenantID, role string
	if id := command.Identity(); id != nil {
		userID, tenantID, role = id.ID(), id.TenantID(), id.Role().String()
	}

	conn, err := connection.New(command.ConnectionID(), userID, tenantID, role, time.Now(), h.ttl)
	if err != nil {
		return connection.Connection{}, err
	}
	if err = h.registry.Register(ctx, conn); err != nil {
		return connection.Connection{}, err
	}

	h.logger.InfoContext(ctx, "connection registered",
		"connection_id", conn.ID, "user_id", userID, "tenant_id", tenantID, "role", role)

	return conn, nil
}

func (h ConnectionCommandHandler) Deregister(ctx context.Context, command DeregisterConnectionCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}
	if err := h.registry.Deregister(ctx, command.ConnectionID()); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "connection deregistered", "connection_id", command.ConnectionID())
	return nil
}
