package auth_test

import (
	"testing"
	"time"

	"orderflow/internal/adapters/in/auth"
	"orderflow/internal/core/domain/model/actor"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, key string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()

	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func TestTokenVerifier_Verify(t *testing.T) {
	verifier := auth.NewTokenVerifier(secret)
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("staff token", func(t *testing.T) {
		raw := sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "chef-1", "role": "kitchen-staff", "tenant_id": "sede-1", "exp": exp,
		})

		a, err := verifier.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, "chef-1", a.ID())
		assert.Equal(t, actor.RoleKitchenStaff, a.Role())
		assert.Equal(t, "sede-1", a.TenantID())
	})

	t.Run("legacy role name", func(t *testing.T) {
		raw := sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u-1", "role": "Cliente", "exp": exp,
		})

		a, err := verifier.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, actor.RoleCustomer, a.Role())
	})

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": sign(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "customer", "exp": exp}),
		"wrong method": sign(t, secret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "role": "customer", "exp": exp}),
		"expired":      sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "customer", "exp": 1}),
		"unknown role": sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "janitor", "exp": exp}),
		"staff without tenant": sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "d-1", "role": "driver", "exp": exp,
		}),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(raw)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestFromHeader(t *testing.T) {
	token, ok := auth.FromHeader("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	token, ok = auth.FromHeader("bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = auth.FromHeader("Basic abc")
	assert.False(t, ok)

	_, ok = auth.FromHeader("Bearer ")
	assert.False(t, ok)
}
