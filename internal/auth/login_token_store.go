package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"novalabs/internal/cache"
	apperrors "novalabs/internal/errors"
)

const (
	loginTokenKeyPrefix = "login_token:"
	// LoginTokenTTL bounds the window between checkout and password setup.
	LoginTokenTTL = time.Hour
)

// LoginTokenData is minted after a successful checkout and exchanged once for
// setting the account password. Keyed by the processor's checkout-session id.
type LoginTokenData struct {
	SessionID   string    `json:"session_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Plan        string    `json:"plan"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	Nonce       string    `json:"nonce"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginTokenStore mints and consumes one-time login tokens. Backed by Redis so
// the token survives process restarts and any serving instance can redeem it.
type LoginTokenStore interface {
	Mint(ctx context.Context, data LoginTokenData) (string, error)
	Consume(ctx context.Context, token string) (*LoginTokenData, error)
}

type loginTokenStore struct {
	cache *cache.Client
	now   func() time.Time
}

// NewLoginTokenStore creates a Redis-backed login token store.
func NewLoginTokenStore(cache *cache.Client) LoginTokenStore {
	return &loginTokenStore{cache: cache, now: time.Now}
}

// Mint stores the token data with a 1h TTL and returns the opaque token handed
// to the client. The nonce in the encoded token must match the stored record
// on redemption, so an old token cannot redeem a re-minted session.
func (s *loginTokenStore) Mint(ctx context.Context, data LoginTokenData) (string, error) {
	data.Nonce = uuid.New().String()
	data.ExpiresAt = s.now().Add(LoginTokenTTL)

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal login token: %w", err)
	}
	if err := s.cache.SetStrict(ctx, loginTokenKeyPrefix+data.SessionID, payload, LoginTokenTTL); err != nil {
		return "", fmt.Errorf("store login token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Consume validates the token and deletes it. Expiry is enforced on read from
// the stored record, not only by the Redis TTL.
func (s *loginTokenStore) Consume(ctx context.Context, token string) (*LoginTokenData, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.ErrInvalidLoginToken
	}
	var claimed LoginTokenData
	if err := json.Unmarshal(decoded, &claimed); err != nil || claimed.SessionID == "" {
		return nil, apperrors.ErrInvalidLoginToken
	}

	stored, err := s.cache.Get(ctx, loginTokenKeyPrefix+claimed.SessionID)
	if err != nil || stored == nil {
		return nil, apperrors.ErrInvalidLoginToken
	}
	var data LoginTokenData
	if err := json.Unmarshal(stored, &data); err != nil {
		return nil, apperrors.ErrInvalidLoginToken
	}
	if data.Nonce != claimed.Nonce || s.now().After(data.ExpiresAt) {
		return nil, apperrors.ErrInvalidLoginToken
	}

	_ = s.cache.Delete(ctx, loginTokenKeyPrefix+claimed.SessionID)
	return &data, nil
}
