package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrListConnectionsQueryIsNotConstructed = errors.New(
	"ListConnectionsQuery must be created via NewListConnectionsQuery constructor",
)

// ListConnectionsQuery lists the live WebSocket connections of the site
// administrator's tenant.
type ListConnectionsQuery struct {
	tenantID string

	guard guard.ConstructorGuard
}

func NewListConnectionsQuery(admin actor.Actor) (ListConnectionsQuery, error) {
	if err := admin.Validate(); err != nil {
		return ListConnectionsQuery{}, err
	}
	if admin.Role() != actor.RoleSiteAdmin {
		return ListConnectionsQuery{}, errs.NewForbiddenError(admin.Role(), "list connections")
	}

	return ListConnectionsQuery{
		tenantID: admin.TenantID(),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q ListConnectionsQuery) Validate() error {
	return q.guard.Validate(ErrListConnectionsQueryIsNotConstructed)
}

func (q ListConnectionsQuery) TenantID() string {
	return q.tenantID
}
