package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// loadStudent puts the authenticated student in the context; deactivated accounts are rejected.
func (h *handler) loadStudent(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		st, err := getContextStudent(ctx, h.studentSvc)
		if err != nil {
			return errors.Wrap(err, "getting context student")
		}
		if !st.Active() {
			return errAccountDeactivated
		}
		return next(ctx)
	}
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// studentMiddleware restricts an endpoint to accounts holding the student role.
func studentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.IsStudent {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
