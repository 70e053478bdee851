package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenLifetime is the nominal validity recorded with every login.
//
// The planner decides when a token stops working; the toolkit records the expiry for display and
// never forces a re-login.
const TokenLifetime = time.Hour

// Token is a planner bearer token plus the bookkeeping recorded at login.
type Token struct {
	AccessToken string    `json:"token"`
	Email       string    `json:"email"`
	IssuedAt    time.Time `json:"issued_at"`
	Expiry      time.Time `json:"expiry"`
}

// NewToken records a token issued at now with the nominal [TokenLifetime].
func NewToken(access, email string, now time.Time) *Token {
	return &Token{AccessToken: access, Email: email, IssuedAt: now, Expiry: now.Add(TokenLifetime)}
}

// NominallyExpired reports whether the recorded expiry has passed. Informational only.
func (t *Token) NominallyExpired(now time.Time) bool {
	return !t.Expiry.IsZero() && now.After(t.Expiry)
}

// OAuth2 converts the token for use with [oauth2.StaticTokenSource].
//
// The oauth2 expiry is left zero so the transport never treats the token as stale.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{AccessToken: t.AccessToken, TokenType: "Bearer"}
}

// TokenClaims holds the fields shown by `auth status`, read from the token when it is a JWT.
type TokenClaims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Claims decodes the token payload without verifying the signature.
//
// Planner tokens are opaque to the toolkit; this only helps operators see which account and
// expiry the planner itself assigned.
func (t *Token) Claims() (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	out := &TokenClaims{}
	out.Subject, _ = claims.GetSubject()
	out.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// SaveToken writes the token to path with owner-only permissions.
func SaveToken(path string, t *Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by [SaveToken].
func LoadToken(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if t.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &t, nil
}

// RemoveToken deletes a saved token. A missing file is not an error.
func RemoveToken(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
