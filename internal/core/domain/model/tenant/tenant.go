// Package tenant holds the read model of a restaurant site. Sites are managed
// elsewhere; the order core only needs each site's location for driver selection.
package tenant

import (
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

type Tenant struct {
	id       string
	name     string
	location kernel.GeoPoint
}

func NewTenant(id, name string, location kernel.GeoPoint) (*Tenant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.NewValueIsRequiredError("tenantId")
	}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	return &Tenant{id: id, name: name, location: location}, nil
}

func (t *Tenant) ID() string {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

// Location is the site drivers are dispatched from.
func (t *Tenant) Location() kernel.GeoPoint {
	return t.location
}
