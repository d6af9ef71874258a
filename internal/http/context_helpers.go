package httpx

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
type identityKey struct{}

// SetIdentityInContext returns a child context that carries the caller identity.
func SetIdentityInContext(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentityFromContext returns the caller identity and whether one is present.
func GetIdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	if !ok || !id.Valid() {
		return domainauth.Identity{}, false
	}
	return id, true
}

// requireCaller returns the caller identity or writes 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (domainauth.Identity, bool) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
	}
	return id, ok
}
