// Package cache wraps the key-value store backing sessions, OTP codes and
// device presence markers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache keys
func SessionKey(token string) string {
	return fmt.Sprintf("user:%s", token)
}

func OTPKey(userID string) string {
	return fmt.Sprintf("otp:user:%s", userID)
}

func OfflineKey(userID, deviceID string) string {
	return fmt.Sprintf("offline_user:%s:%s", userID, deviceID)
}
