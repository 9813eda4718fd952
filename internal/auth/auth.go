// Package auth resolves the calling owner from a request. The ledger never
// takes ownership from a request body.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HeaderUserID is set by a trusted gateway in front of the service.
const HeaderUserID = "X-User-ID"

var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator returns the owner id for r or an error wrapping
// ErrUnauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Header trusts the gateway-provided user header.
type Header struct{}

func (Header) Authenticate(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if owner == "" {
		return "", fmt.Errorf("%w: missing %s header", ErrUnauthenticated, HeaderUserID)
	}
	return owner, nil
}

// JWT verifies HMAC-signed bearer tokens; the subject claim is the owner.
type JWT struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewJWT(secret, issuer string) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}
}

func (a *JWT) Authenticate(r *http.Request) (string, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token without subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Sign issues a token for owner; used by ledgerctl and tests.
func (a *JWT) Sign(owner string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   owner,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// New picks the JWT authenticator when a secret is configured and the
// gateway header otherwise.
func New(jwtSecret, issuer string) Authenticator {
	if jwtSecret != "" {
		return NewJWT(jwtSecret, issuer)
	}
	return Header{}
}
