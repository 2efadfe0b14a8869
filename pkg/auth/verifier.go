// Package auth verifies the bearer tokens issued by the identity directory
// and makes the resulting user identity available to handlers via the
// request context. Token verification is the only identity logic owned by
// this service; who the user is and what groups they belong to is entirely
// the directory's business.
package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// UserID is the opaque identifier of a person record in the directory,
// taken from a verified token's subject claim.
type UserID string

// Verifier reduces a raw bearer token to a user identity
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (UserID, error)
}

// OIDCVerifier verifies directory-issued JWTs against the directory's
// published key set. The expected audience is the root org id and the
// expected issuer is the directory endpoint.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier creates a verifier backed by the remote JWKS at jwksURL.
// Keys are fetched lazily and cached; ctx bounds the lifetime of background
// key refreshes.
func NewOIDCVerifier(ctx context.Context, jwksURL, issuer, rootOrgID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID: rootOrgID,
		}),
	}
}

// Verify checks the token's signature, issuer, audience and expiry, and
// returns the subject claim as the user id.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (UserID, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}
	if token.Subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return UserID(token.Subject), nil
}
