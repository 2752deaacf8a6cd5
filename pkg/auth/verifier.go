// Package auth verifies caller identity tokens and turns them into
// principals for the access policy.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	oidc "github.com/coreos/go-oidc"

	"github.com/openfroyo/ucm/pkg/engine"
)

const (
	// DefaultGroupsClaim is where Cognito places group membership.
	DefaultGroupsClaim = "cognito:groups"

	// DefaultTenantClaim is the custom attribute carrying the caller's tenant.
	DefaultTenantClaim = "custom:tenant_id"
)

// Config configures token verification.
type Config struct {
	// IssuerURL is the OpenID Connect issuer, for example
	// https://cognito-idp.<region>.amazonaws.com/<user pool id>.
	IssuerURL string

	// ClientID is the expected audience.
	ClientID string

	GroupsClaim string
	TenantClaim string
}

func (c *Config) setDefaults() {
	if c.GroupsClaim == "" {
		c.GroupsClaim = DefaultGroupsClaim
	}
	if c.TenantClaim == "" {
		c.TenantClaim = DefaultTenantClaim
	}
}

// Claims are the verified facts about a caller.
type Claims struct {
	Subject  string
	Email    string
	Groups   []string
	TenantID string
	Expiry   time.Time
}

// Principal converts the claims for authorization.
func (c *Claims) Principal() engine.Principal {
	return engine.Principal{
		Subject:  c.Subject,
		Email:    c.Email,
		Groups:   append([]string(nil), c.Groups...),
		TenantID: c.TenantID,
	}
}

// Verifier checks identity tokens.
type Verifier struct {
	cfg      Config
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer's keys and returns a verifier.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("issuer url and client id are required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover issuer %s: %w", cfg.IssuerURL, err)
	}
	cfg.setDefaults()
	return &Verifier{
		cfg:      cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// NewVerifierWithKeySet returns a verifier checking signatures against keys.
func NewVerifierWithKeySet(cfg Config, keys oidc.KeySet, now func() time.Time) *Verifier {
	cfg.setDefaults()
	return &Verifier{
		cfg: cfg,
		verifier: oidc.NewVerifier(cfg.IssuerURL, keys, &oidc.Config{
			ClientID: cfg.ClientID,
			Now:      now,
		}),
	}
}

// Verify validates a raw token, with or without a "Bearer " prefix, and
// returns its claims.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	rawToken = strings.TrimSpace(strings.TrimPrefix(rawToken, "Bearer "))
	if rawToken == "" {
		return nil, denied("missing identity token", nil)
	}

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, denied("invalid identity token", err)
	}

	var raw map[string]interface{}
	if err := token.Claims(&raw); err != nil {
		return nil, denied("unreadable identity token claims", err)
	}

	claims := &Claims{
		Subject:  token.Subject,
		Expiry:   token.Expiry,
		Email:    stringClaim(raw, "email"),
		TenantID: stringClaim(raw, v.cfg.TenantClaim),
		Groups:   listClaim(raw, v.cfg.GroupsClaim),
	}
	return claims, nil
}

func denied(msg string, err error) error {
	return engine.NewPermanentError(msg, err).WithCode(engine.ErrCodePermissionDenied)
}

func stringClaim(raw map[string]interface{}, name string) string {
	s, _ := raw[name].(string)
	return s
}

// listClaim accepts a JSON array or a single space-separated string.
func listClaim(raw map[string]interface{}, name string) []string {
	switch v := raw[name].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	}
	return nil
}
