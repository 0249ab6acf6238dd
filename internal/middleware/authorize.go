package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/metrics"
)

// RoleLookup returns the stored role and active flag of a user. It returns
// apperrors.ErrUserNotFound when the user no longer exists.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (role auth.Role, active bool, err error)
}

// Authorizer gates routes by the caller's current stored role.
type Authorizer struct {
	lookup  RoleLookup
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(lookup RoleLookup, logger *zap.Logger, m *metrics.Metrics) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{lookup: lookup, logger: logger, metrics: m}
}

// Require admits the request only when the caller's stored role is one of
// roles. The role embedded in the token is never trusted: it is re-read on
// every request and replaces the one in the identity.
func (a *Authorizer) Require(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			id, ok := auth.IdentityFrom(ctx)
			if !ok {
				a.metrics.Denied("unauthenticated")
				return apperrors.ErrUnauthenticated
			}

			role, active, err := a.lookup.RoleOf(ctx, id.UserID)
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				a.metrics.Denied("user_not_found")
				return apperrors.ErrUserNotFound
			case err != nil:
				a.logger.Error("role lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
				return err
			case !active:
				a.metrics.Denied("account_disabled")
				return apperrors.ErrAccountDisabled
			case !role.In(roles...):
				a.metrics.Denied("forbidden")
				a.logger.Info("role rejected",
					zap.String("user_id", id.UserID),
					zap.String("role", role.String()),
					zap.String("path", c.Path()),
				)
				return apperrors.ErrForbidden
			}

			id.Role = role
			c.SetRequest(c.Request().WithContext(auth.WithIdentity(ctx, id)))
			return next(c)
		}
	}
}
