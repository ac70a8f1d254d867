package queries

import (
	"context"
	"sort"

	"orderflow/internal/core/ports"
)

type ListConnectionsQueryResponse struct {
	TenantID    string   `json:"tenantId"`
	Connections []string `json:"connections"`
	Count       int      `json:"count"`
}

type ListConnectionsQueryHandler struct {
	registry ports.ConnectionRegistry
}

func NewListConnectionsQueryHandler(registry ports.ConnectionRegistry) ListConnectionsQueryHandler {
	return ListConnectionsQueryHandler{registry: registry}
}

func (h ListConnectionsQueryHandler) Handle(
	ctx context.Context,
	query ListConnectionsQuery,
) (ListConnectionsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListConnectionsQueryResponse{}, err
	}

	ids, err := h.registry.ListByTenant(ctx, query.TenantID())
	if err != nil {
		return ListConnectionsQueryResponse{}, err
	}
	sort.Strings(ids)
	if ids == nil {
		ids = []string{}
	}

	return ListConnectionsQueryResponse{
		TenantID:    query.TenantID(),
		Connections: ids,
		Count:       len(ids),
	}, nil
}
