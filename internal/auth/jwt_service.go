package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenExpiry is used when TokenConfig leaves AccessTTL unset.
	DefaultAccessTokenExpiry = 72 * time.Hour
	// DefaultRefreshTokenExpiry is used when TokenConfig leaves RefreshTTL unset.
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

var (
	// ErrInvalidSignature covers tampered, malformed, wrongly signed or wrong kind tokens.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned for a correctly signed token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalidPayload is returned when signing a payload without a user id or valid role.
	ErrInvalidPayload = errors.New("token payload requires user id and valid role")
)

// TokenKind distinguishes short lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPayload is the identity subset embedded in a token.
type TokenPayload struct {
	UserID string
	Role   Role
	Email  string
}

// Claims represents JWT claims.
type Claims struct {
	UserID string    `json:"userId"`
	Role   Role      `json:"role"`
	Email  string    `json:"email,omitempty"`
	Kind   TokenKind `json:"tokenType"`
	jwt.RegisteredClaims
}

// Identity returns the caller identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, Email: c.Email}
}

// TokenConfig configures a TokenCodec.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec creates a codec. A nil clock defaults to time.Now.
func NewTokenCodec(cfg TokenConfig, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTokenExpiry
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTokenExpiry
	}
	return &TokenCodec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
	}
}

// TTL returns the lifetime used for tokens of the given kind.
func (s *TokenCodec) TTL(kind TokenKind) time.Duration {
	if kind == TokenRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Sign issues a token of the given kind. The jti is empty for access tokens.
func (s *TokenCodec) Sign(payload TokenPayload, kind TokenKind) (token string, jti string, err error) {
	if payload.UserID == "" || !payload.Role.Valid() {
		return "", "", ErrInvalidPayload
	}
	if kind != TokenAccess && kind != TokenRefresh {
		return "", "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := s.now()
	claims := &Claims{
		UserID: payload.UserID,
		Role:   payload.Role,
		Email:  payload.Email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   payload.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if kind == TokenRefresh {
		jti = uuid.New().String()
		claims.ID = jti
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, jti, nil
}

// Verify validates a token and returns its claims.
func (s *TokenCodec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidSignature
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// VerifyKind validates a token and additionally requires it to be of kind.
func (s *TokenCodec) VerifyKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrInvalidSignature
	}
	if kind == TokenRefresh && claims.ID == "" {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}
