package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/adapters/oidc"
	"github.com/eventdesk/eventdesk-api/internal/ports"
)

// IdentitySetup is how the API identifies callers.
type IdentitySetup struct {
	Verifier  ports.TokenVerifier // nil when OIDC is not configured
	DevHeader string              // empty outside dev mode
}

// BuildIdentity wires bearer verification when an issuer is configured and
// the trusted dev header when running in dev mode. At least one must be available.
func BuildIdentity(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (IdentitySetup, error) {
	if cfg == nil {
		return IdentitySetup{}, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var setup IdentitySetup
	if cfg.Auth.IsOIDCEnabled() {
		v, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL:       cfg.Auth.OIDC.IssuerURL,
			ClientID:        cfg.Auth.OIDC.ClientID,
			SkipIssuerCheck: cfg.Auth.OIDC.SkipIssuerCheck,
		})
		if err != nil {
			return IdentitySetup{}, fmt.Errorf("build oidc verifier: %w", err)
		}
		setup.Verifier = v
		logger.InfoContext(ctx, "bearer token verification enabled", "issuer", cfg.Auth.OIDC.IssuerURL)
	}

	if cfg.IsDev {
		setup.DevHeader = cfg.Auth.DevUserHeader
		logger.WarnContext(ctx, "dev identity header enabled; do not use in production", "header", setup.DevHeader)
	}

	if setup.Verifier == nil && setup.DevHeader == "" {
		return IdentitySetup{}, errors.New("no identity source configured: set OIDC_ISSUER_URL or enable dev mode")
	}
	return setup, nil
}
