package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
	"newsdesk/internal/repository"
)

// Session is the token pair handed to a client after login or refresh.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, id *auth.Identity) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	codec      *auth.TokenCodec
	tokenStore auth.TokenStoreInterface
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, codec *auth.TokenCodec, tokenStore auth.TokenStoreInterface, bcryptCost int, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		users:      users,
		codec:      codec,
		tokenStore: tokenStore,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active USER account.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if err := ensureEmailFree(ctx, s.users, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func ensureEmailFree(ctx context.Context, users repository.UserRepository, email string) error {
	_, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return apperrors.ErrEmailTaken
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

// Login checks credentials and issues an access and a refresh token.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	payload := auth.TokenPayload{UserID: user.ID, Role: user.Role, Email: user.Email}
	access, _, err := s.codec.Sign(payload, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, jti, err := s.codec.Sign(payload, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}

	refreshTTL := s.codec.TTL(auth.TokenRefresh)
	if err := s.tokenStore.StoreRefreshToken(ctx, jti, user.ID, refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	now := s.now()
	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(s.codec.TTL(auth.TokenAccess)),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(refreshTTL),
		User:             user,
	}, nil
}

// Refresh issues a new access token for a stored refresh token. The user is
// re-read so the new token carries the current role.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.codec.VerifyKind(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.UserID {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	access, _, err := s.codec.Sign(auth.TokenPayload{UserID: user.ID, Role: user.Role, Email: user.Email}, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:     access,
		AccessExpiresAt: s.now().Add(s.codec.TTL(auth.TokenAccess)),
		User:            user,
	}, nil
}

// Logout revokes a refresh token. Tokens that no longer verify have nothing
// left to revoke.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.codec.VerifyKind(refreshToken, auth.TokenRefresh)
	if err != nil {
		s.logger.Debug("logout with unusable refresh token", zap.Error(err))
		return nil
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Me returns the stored profile of the caller, or nil for a guest.
func (s *authService) Me(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
