// Package auth resolves the signed-in user of a CLI or HTTP call from an
// HS256 bearer token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/sci-ledger/internal/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// Session identifies the user an operation runs for.
type Session struct {
	UserID string
	Email  string
}

// SignedIn reports whether the session carries a user.
func (s *Session) SignedIn() bool {
	return s != nil && strings.TrimSpace(s.UserID) != ""
}

// Claims is the token payload. The user id travels in the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator mints and checks session tokens.
type Authenticator struct {
	secret    []byte
	localUser string
}

// New creates an Authenticator. localUser, when set, is what Resolve returns
// for an empty token; ParseToken never falls back to it.
func New(secret, localUser string) *Authenticator {
	return &Authenticator{secret: []byte(secret), localUser: strings.TrimSpace(localUser)}
}

// ParseToken validates an HS256 token and returns its session.
func (a *Authenticator) ParseToken(token string) (*Session, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret is not configured")
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNotSignedIn, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", apperrors.ErrNotSignedIn)
	}
	return &Session{UserID: claims.Subject, Email: claims.Email}, nil
}

// Mint signs a token for userID valid for ttl. A zero ttl never expires.
func (a *Authenticator) Mint(userID, email string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Resolve returns the session for token, or the local user session when the
// token is empty and a local user is configured.
func (a *Authenticator) Resolve(token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		if a.localUser == "" {
			return nil, apperrors.ErrNotSignedIn
		}
		return &Session{UserID: a.localUser}, nil
	}
	return a.ParseToken(token)
}

// RequireUser returns ErrNotSignedIn unless the session carries a user.
func RequireUser(s *Session) error {
	if !s.SignedIn() {
		return apperrors.ErrNotSignedIn
	}
	return nil
}
