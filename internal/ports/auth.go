package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; the HTTP layer consumes them.

import (
	"context"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
)

// TokenVerifier verifies a bearer token issued by the identity provider and
// returns the caller it names.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (domainauth.Identity, error)
}
