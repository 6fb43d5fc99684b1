// Package auth resolves bearer credentials to caller identities.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	// ErrMissingToken reports a request without a bearer credential.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken reports a credential that failed verification.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotConfigured reports that no signing secret is configured.
	ErrNotConfigured = errors.New("authentication is not configured")
)

// Authenticator verifies HS256 access tokens and returns their subject.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for tokens signed with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ExtractBearerToken returns the token of an Authorization header value.
func ExtractBearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate verifies token and returns the caller identity held in its
// "sub" claim.
func (a *Authenticator) Authenticate(token string) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrNotConfigured
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Wrap(ErrInvalidToken, err.Error())
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.Wrap(ErrInvalidToken, "token has no subject")
	}
	return claims.Subject, nil
}

// IssueToken signs a token for subject. Used by tests and local tooling.
func (a *Authenticator) IssueToken(subject string, claims jwt.RegisteredClaims) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrNotConfigured
	}
	claims.Subject = subject
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
