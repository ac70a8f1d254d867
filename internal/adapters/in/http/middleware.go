package http

import (
	"fmt"

	"orderflow/internal/adapters/in/auth"
	"orderflow/internal/core/domain/model/actor"

	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

type TokenVerifier interface {
	Verify(raw string) (actor.Actor, error)
}

// Authenticate verifies the bearer token and stores the resulting actor in
// the echo context.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := auth.FromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return fmt.Errorf("%w: missing bearer token", auth.ErrInvalidToken)
			}

			a, err := verifier.Verify(raw)
			if err != nil {
				return err
			}

			c.Set(actorKey, a)
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) (actor.Actor, error) {
	a, ok := c.Get(actorKey).(actor.Actor)
	if !ok {
		return actor.Actor{}, auth.ErrInvalidToken
	}
	return a, nil
}
