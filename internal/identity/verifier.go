// Package identity resolves bearer tokens to user identities against an
// external OIDC provider. The provider is discovered once at startup; every
// request then resolves its token through the provider's userinfo endpoint,
// so revoked tokens stop working immediately (no session caching).
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Token verification errors.
var (
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("identity: no bearer token provided")

	// ErrInvalidToken is returned when the provider rejects the token or
	// resolves it to no user.
	ErrInvalidToken = errors.New("identity: invalid bearer token")
)

// Identity is the resolved caller identity. UserID is the provider's stable
// subject claim and is the only field ownership checks rely on.
type Identity struct {
	UserID string
	Email  string
}

// Verifier resolves an opaque bearer token to a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// OIDCVerifier verifies tokens by calling the provider's userinfo endpoint.
type OIDCVerifier struct {
	userinfoURL string
	client      *http.Client
}

// DefaultHTTPTimeout bounds each outbound userinfo call.
const DefaultHTTPTimeout = 10 * time.Second

// NewOIDCVerifier discovers the provider at issuer and returns a verifier
// backed by its userinfo endpoint. The returned verifier is safe for
// concurrent use and is intended to be a process-wide singleton.
func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("identity: provider discovery: %w", err)
	}

	var claims struct {
		UserInfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("identity: decode provider metadata: %w", err)
	}
	if claims.UserInfoEndpoint == "" {
		return nil, fmt.Errorf("identity: provider %s has no userinfo endpoint", issuer)
	}

	return &OIDCVerifier{
		userinfoURL: claims.UserInfoEndpoint,
		client:      &http.Client{Timeout: DefaultHTTPTimeout},
	}, nil
}

// Verify resolves token via the provider's userinfo endpoint.
//
// Classification:
//   - empty token: ErrMissingToken
//   - provider 401/403 or a response without a subject: ErrInvalidToken
//   - transport failure or any other provider status: plain error, which the
//     caller surfaces as an unexpected failure rather than a 401
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, fmt.Errorf("%w: provider returned %d", ErrInvalidToken, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("identity: userinfo status %d: %s", resp.StatusCode, body)
	}

	var userinfo struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return Identity{}, fmt.Errorf("identity: decode userinfo: %w", err)
	}
	if userinfo.Subject == "" {
		return Identity{}, fmt.Errorf("%w: userinfo response has no subject", ErrInvalidToken)
	}

	return Identity{UserID: userinfo.Subject, Email: userinfo.Email}, nil
}
