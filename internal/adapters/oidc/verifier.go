package oidc

// Package oidc verifies bearer ID tokens issued by the managed identity provider.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/eventdesk/eventdesk-api/internal/domain/auth"
)

// VerifierConfig holds configuration for the OIDC token verifier.
type VerifierConfig struct {
	IssuerURL       string
	ClientID        string
	SkipIssuerCheck bool
	HTTPClient      *http.Client // Optional, defaults to a client with a 30s timeout
}

// Verifier implements ports.TokenVerifier using go-oidc.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
	client   *http.Client
}

// NewVerifier discovers the issuer and builds an ID token verifier.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// go-oidc reads the HTTP client for discovery and JWKS fetches from the context.
	ctx = oauth2ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		verifier: op.Verifier(&gooidc.Config{
			ClientID:        cfg.ClientID,
			SkipIssuerCheck: cfg.SkipIssuerCheck,
		}),
		client: httpClient,
	}, nil
}

// Verify validates rawToken and maps its claims to an Identity.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domainauth.Identity{}, domainauth.ErrUnauthenticated
	}

	tok, err := v.verifier.Verify(oauth2ClientContext(ctx, v.client), rawToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	var c idTokenClaims
	if err := tok.Claims(&c); err != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", err)
	}

	id := mapClaims(c, tok.Subject)
	id.ExpiresAt = tok.Expiry
	if !id.Valid() {
		return domainauth.Identity{}, errors.New("id_token has no subject")
	}
	return id, nil
}

func oauth2ClientContext(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

type idTokenClaims struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

// mapClaims prefers the provider's stable subject over display handles.
func mapClaims(c idTokenClaims, subject string) domainauth.Identity {
	name := c.Name
	if name == "" {
		name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}
	return domainauth.Identity{
		UserID: firstNonEmpty(c.Sub, subject, c.PreferredUsername),
		Email:  c.Email,
		Name:   name,
		Source: domainauth.SourceBearer,
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
