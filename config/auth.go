package config

import "strings"

// OIDCConfig configures bearer ID token verification against the identity provider.
type OIDCConfig struct {
	// IssuerURL is the provider issuer; discovery is performed at startup.
	IssuerURL string `env:"ISSUER_URL"`
	// ClientID is the expected audience of incoming ID tokens.
	ClientID string `env:"CLIENT_ID" envDefault:"eventdesk"`
	// SkipIssuerCheck disables issuer validation for providers behind proxies.
	SkipIssuerCheck bool `env:"SKIP_ISSUER_CHECK" envDefault:"false"`
}

// AuthConfig groups identity-related configuration.
type AuthConfig struct {
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevUserHeader is the header trusted for identity when running in dev mode.
	DevUserHeader string `env:"AUTH_DEV_USER_HEADER" envDefault:"X-User-ID"`
}

// Sanitize trims identity settings.
func (a *AuthConfig) Sanitize() {
	a.OIDC.IssuerURL = strings.TrimSpace(a.OIDC.IssuerURL)
	a.OIDC.ClientID = strings.TrimSpace(a.OIDC.ClientID)
	if a.DevUserHeader = strings.TrimSpace(a.DevUserHeader); a.DevUserHeader == "" {
		a.DevUserHeader = "X-User-ID"
	}
}

// IsOIDCEnabled reports whether bearer tokens should be verified.
func (a *AuthConfig) IsOIDCEnabled() bool {
	return a.OIDC.IssuerURL != ""
}
