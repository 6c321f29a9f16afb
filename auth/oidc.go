package auth

import (
	"context"
	"crypto"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/judyrop/restaurant-backend/apperr"
)

// Resolver maps a verified identity-provider email to a local user.
type Resolver func(ctx context.Context, email string) (Principal, error)

// OIDCVerifier accepts ID tokens from an external identity provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	resolve  Resolver
}

// NewOIDCVerifier discovers the provider's keys from its issuer URL.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string, resolve Resolver) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider %s: %w", issuer, err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		resolve:  resolve,
	}, nil
}

// NewStaticOIDCVerifier verifies against fixed public keys instead of discovery.
func NewStaticOIDCVerifier(issuer, clientID string, keys []crypto.PublicKey, resolve Resolver) *OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID}),
		resolve:  resolve,
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (Principal, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := token.Claims(&claims); err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token claims")
	}
	if claims.Email == "" || !claims.EmailVerified {
		return Principal{}, apperr.Unauthorized("token has no verified email")
	}
	return v.resolve(ctx, claims.Email)
}
