// Package token issues and revokes the signed credentials backing API
// authentication.
//
// The JWT signature and expiry are the source of truth for validity. The
// session-cache entry written alongside each token is a projection for cheap
// summary lookups; if the cache write fails the token is still returned and
// still verifies.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/cache"
	"github.com/metachat/accounts/internal/domain"
)

type Service struct {
	cache      cache.Cache
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewService(c cache.Cache, secret string, accessTTL, refreshTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		cache:      c,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

func (s *Service) IssueAccess(ctx context.Context, user domain.Summary) (string, error) {
	return s.issue(ctx, user, s.accessTTL)
}

func (s *Service) IssueRefresh(ctx context.Context, user domain.Summary) (string, error) {
	return s.issue(ctx, user, s.refreshTTL)
}

func (s *Service) issue(ctx context.Context, user domain.Summary, ttl time.Duration) (string, error) {
	if user.ID == "" {
		return "", domain.E(domain.KindInvalidArgument, "user id is required")
	}

	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, cache.SessionKey(signed), data, ttl); err != nil {
		s.logger.Error("session cache write failed", "user_id", user.ID, "error", err)
	}

	return signed, nil
}

// Session resolves a token to the cached user summary. Returns
// cache.ErrMiss when the entry is absent or expired.
func (s *Service) Session(ctx context.Context, token string) (domain.Summary, error) {
	data, err := s.cache.Get(ctx, cache.SessionKey(token))
	if err != nil {
		return domain.Summary{}, err
	}

	var sum domain.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return domain.Summary{}, err
	}
	return sum, nil
}

// Revoke removes the session entry for token. Revoking an unknown token is
// not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.cache.Del(ctx, cache.SessionKey(token))
}

// ResetDeviceState clears the offline marker for the user+device pair.
// Best-effort: failures are logged, never returned.
func (s *Service) ResetDeviceState(ctx context.Context, userID, deviceID string) {
	if err := s.cache.Del(ctx, cache.OfflineKey(userID, deviceID)); err != nil {
		s.logger.Error("reset device state failed", "user_id", userID, "device_id", deviceID, "error", err)
	}
}

// VerifyRefresh checks the signature and expiry of a refresh token and
// returns the user id it was issued for.
func (s *Service) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	return s.Verify(tokenString)
}

// Verify checks signature and expiry and extracts the subject user id.
func (s *Service) Verify(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, domain.Wrap(domain.KindUnauthorized, "invalid or expired token", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.E(domain.KindUnauthorized, "invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, domain.E(domain.KindUnauthorized, "missing subject claim")
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.Wrap(domain.KindUnauthorized, "invalid subject claim", err)
	}
	return id, nil
}
