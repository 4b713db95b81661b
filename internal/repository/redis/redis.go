package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"abayaStore/domain"

	"github.com/redis/go-redis/v9"
)

// Session keys:
//
//	token:user:<id>      JSON TokenData of the user's latest session
//	token:lookup:<jwt>   user id, one entry per live token
const (
	userKeyPrefix   = "token:user:"
	lookupKeyPrefix = "token:lookup:"
)

var ErrTokenNotFound = fmt.Errorf("%w: token not found or expired", domain.ErrNotFound)

type TokenData struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

type TokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

func userKey(userID string) string  { return userKeyPrefix + userID }
func lookupKey(token string) string { return lookupKeyPrefix + token }

// StoreToken writes the session record and its reverse lookup in one
// MULTI/EXEC so a token is never valid without its owner record.
func (r *TokenRepository) StoreToken(ctx context.Context, userID, token string, data TokenData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(userID), payload, ttl)
		pipe.Set(ctx, lookupKey(token), userID, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Session returns the latest session stored for a user.
func (r *TokenRepository) Session(ctx context.Context, userID string) (TokenData, error) {
	raw, err := r.client.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TokenData{}, ErrTokenNotFound
	}
	if err != nil {
		return TokenData{}, fmt.Errorf("failed to load session: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return TokenData{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return data, nil
}

// ValidateToken returns the user id a live token belongs to.
func (r *TokenRepository) ValidateToken(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, lookupKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to validate token: %w", err)
	}
	return userID, nil
}

// RevokeToken drops the token's lookup entry, and the user's session record
// when it still points at this token.
func (r *TokenRepository) RevokeToken(ctx context.Context, userID, token string) error {
	session, err := r.Session(ctx, userID)
	current := err == nil && session.Token == token
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, lookupKey(token))
		if current {
			pipe.Del(ctx, userKey(userID))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
