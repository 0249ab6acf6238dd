// Package middleware contains the Echo middleware that authenticates callers
// and gates routes by role.
package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/metrics"
)

const claimsContextKey = "session_claims"

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	VerifyKind(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// SessionConfig configures Session.
type SessionConfig struct {
	// CookieName is the cookie holding the access token.
	CookieName string
	// Optional lets requests without a valid token through anonymously.
	Optional bool
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Session reads the access token from a cookie and attaches the caller
// identity to the request context. In mandatory mode a missing, expired or
// tampered token ends the request with 401. In optional mode the request
// continues with no identity attached.
func Session(verifier TokenVerifier, cfg SessionConfig) echo.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "cookie:" + cfg.CookieName,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return verifier.VerifyKind(token, auth.TokenAccess)
		},
		ContinueOnIgnoredError: cfg.Optional,
		ErrorHandler: func(c echo.Context, err error) error {
			if cfg.Optional {
				return nil
			}
			reason := "missing_token"
			if errors.Is(err, auth.ErrExpired) {
				reason = "expired_token"
			} else if errors.Is(err, auth.ErrInvalidSignature) {
				reason = "invalid_token"
			}
			logger.Debug("session rejected", zap.String("reason", reason), zap.String("path", c.Path()))
			cfg.Metrics.Denied(reason)
			return apperrors.ErrUnauthenticated
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(attachIdentity(next))
	}
}

// attachIdentity moves verified claims into the typed request context.
func attachIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, ok := c.Get(claimsContextKey).(*auth.Claims); ok && claims != nil {
			ctx := auth.WithIdentity(c.Request().Context(), claims.Identity())
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

// Identity returns the caller attached to c, or nil for an anonymous caller.
func Identity(c echo.Context) *auth.Identity {
	return auth.IdentityPtr(c.Request().Context())
}
