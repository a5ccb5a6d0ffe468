// Package event publishes domain events to a topic exchange. Publishing is
// fire-and-forget: consumers (push notification sender, OTP delivery) live
// in other services.
package event

import "context"

// Routing keys
const (
	FcmTokenSet    = "user.fcmtoken.set"
	FcmTokenRemove = "user.fcmtoken.remove"
	OTPIssued      = "user.otp.issued"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NopPublisher drops every event. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
