// Package auth turns verified bearer tokens into actors. Tokens are issued
// elsewhere; this service only checks HS256 signatures.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"orderflow/internal/core/domain/model/actor"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier checks HS256 tokens carrying the claims sub, role and
// tenant_id. Legacy role names are accepted through actor.ParseRole.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) TokenVerifier {
	return TokenVerifier{secret: []byte(secret)}
}

func (v TokenVerifier) Verify(raw string) (actor.Actor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return actor.Actor{}, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return actor.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return actor.Actor{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	roleClaim, _ := claims["role"].(string)
	tenantID, _ := claims["tenant_id"].(string)

	role, err := actor.ParseRole(roleClaim)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	a, err := actor.NewActor(sub, role, tenantID)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return a, nil
}

// FromHeader extracts the token of an "Authorization: Bearer <token>" header.
func FromHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
