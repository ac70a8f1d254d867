// Package actor describes who is acting on an order: a closed set of roles and
// the identity extracted from a verified bearer token.
package actor

import (
	"errors"
	"strings"

	"orderflow/internal/pkg/errs"
)

// Role is the closed set of roles that may act on an order. Anything else is
// rejected at the boundary by ParseRole.
type Role string

const (
	RoleKitchenStaff Role = "kitchen-staff"
	RoleDispatcher   Role = "dispatcher"
	RoleDriver       Role = "driver"
	RoleSiteAdmin    Role = "site-admin"
	RoleCustomer     Role = "customer"
)

// aliases maps the role names issued by the legacy identity service
// (lowercased) onto the closed enum.
var aliases = map[string]Role{
	"kitchen-staff":   RoleKitchenStaff,
	"cocinero":        RoleKitchenStaff,
	"cheff ejecutivo": RoleKitchenStaff,
	"chef ejecutivo":  RoleKitchenStaff,
	"dispatcher":      RoleDispatcher,
	"empacador":       RoleDispatcher,
	"driver":          RoleDriver,
	"repartidor":      RoleDriver,
	"site-admin":      RoleSiteAdmin,
	"admin sede":      RoleSiteAdmin,
	"customer":        RoleCustomer,
	"cliente":         RoleCustomer,
}

var ErrActorIsNotConstructed = errors.New("Actor must be created via NewActor")

// ParseRole maps a role claim onto the closed enum, accepting legacy names.
func ParseRole(s string) (Role, error) {
	if r, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", errs.NewValueIsInvalidError("role " + s)
}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is one of the canonical roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleKitchenStaff, RoleDispatcher, RoleDriver, RoleSiteAdmin, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to a tenant's personnel.
func (r Role) IsStaff() bool {
	return r != RoleCustomer && r != ""
}

// Actor is the authenticated caller of an operation.
// TenantID is empty for customers, who are not bound to a site.
type Actor struct {
	id            string
	role          Role
	tenantID      string
	isConstructed bool
}

// NewActor validates the identity. Staff actors must carry a tenant.
func NewActor(id string, role Role, tenantID string) (Actor, error) {
	if strings.TrimSpace(id) == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor id")
	}
	if !role.IsValid() {
		return Actor{}, errs.NewValueIsInvalidError("role " + string(role))
	}
	if role.IsStaff() && strings.TrimSpace(tenantID) == "" {
		return Actor{}, errs.NewValueIsRequiredError("tenant id for role " + string(role))
	}

	return Actor{
		id:            id,
		role:          role,
		tenantID:      tenantID,
		isConstructed: true,
	}, nil
}

func (a Actor) ID() string {
	return a.id
}

func (a Actor) Role() Role {
	return a.role
}

func (a Actor) TenantID() string {
	return a.tenantID
}

func (a Actor) Validate() error {
	if !a.isConstructed {
		return ErrActorIsNotConstructed
	}
	return nil
}
