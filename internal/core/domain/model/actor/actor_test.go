package actor_test

import (
	"testing"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := map[string]actor.Role{
		"kitchen-staff":   actor.RoleKitchenStaff,
		"Cocinero":        actor.RoleKitchenStaff,
		"Cheff Ejecutivo": actor.RoleKitchenStaff,
		"Empacador":       actor.RoleDispatcher,
		"Repartidor":      actor.RoleDriver,
		" Admin Sede ":    actor.RoleSiteAdmin,
		"Cliente":         actor.RoleCustomer,
	}

	for input, want := range tests {
		got, err := actor.ParseRole(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := actor.ParseRole("superuser")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewActor(t *testing.T) {
	t.Run("customer without tenant", func(t *testing.T) {
		a, err := actor.NewActor("cust-1", actor.RoleCustomer, "")

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.False(t, a.Role().IsStaff())
	})

	t.Run("staff requires tenant", func(t *testing.T) {
		_, err := actor.NewActor("chef-1", actor.RoleKitchenStaff, "")
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := actor.NewActor("x", actor.Role("root"), "t1")
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var a actor.Actor
		assert.ErrorIs(t, a.Validate(), actor.ErrActorIsNotConstructed)
	})
}
