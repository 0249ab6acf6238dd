package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"newsdesk/internal/cache"
)

const refreshTokenKeyPrefix = "refresh_token:"

// TokenStoreInterface defines the interface for refresh token bookkeeping.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, jti string, userID string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, jti string) (userID string, err error)
	DeleteRefreshToken(ctx context.Context, jti string) error
}

// TokenStore keeps issued refresh token ids in Redis until they expire.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshRecord struct {
	UserID string `json:"user_id"`
}

// StoreRefreshToken records a refresh token id with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, jti string, userID string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshRecord{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+jti, payload, ttl)
}

// GetRefreshToken returns the user id a refresh token id was issued to.
func (s *TokenStore) GetRefreshToken(ctx context.Context, jti string) (string, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+jti)
	if err != nil || data == nil {
		return "", fmt.Errorf("refresh token not found")
	}

	var rec refreshRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("unmarshal token data: %w", err)
	}
	if rec.UserID == "" {
		return "", fmt.Errorf("invalid user_id in token data")
	}
	return rec.UserID, nil
}

// DeleteRefreshToken revokes a refresh token id.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, jti string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+jti)
}
