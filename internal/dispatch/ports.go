package dispatch

import (
	"context"
	"errors"
	"time"
)

// ErrIdentityNotFound is returned by an IdentityProvider when no identity exists for the user.
var ErrIdentityNotFound = errors.New("identity not found")

// DirectoryStore reads user records from the directory.
type DirectoryStore interface {
	ListByRole(ctx context.Context, role string) ([]Responder, error)
}

// MessageGateway sends a single outbound SMS.
type MessageGateway interface {
	Send(ctx context.Context, body, from, to string) error
}

// IdentityProvider removes authentication identities.
type IdentityProvider interface {
	DeleteIdentity(ctx context.Context, userID string) error
}

// ClaimStore records which responders were already alerted for a request.
// Claim reports false when the key was claimed before.
type ClaimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// DeadLetterPublisher receives reaper failures that need operator attention.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Alerter notifies operators out of band.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}
