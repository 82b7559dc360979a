// Package service contains the auth client and the generation orchestrator.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/session"
	"github.com/mkarelin/docforge/internal/transport"
)

// fallback TTL when the token carries no parseable exp claim
const defaultTokenTTL = 30 * time.Minute

// Auth registers, logs in and logs out the user, keeping the credential store
// in sync with the server-issued token.
type Auth struct {
	tr    *transport.Client
	store session.Store
	log   *zap.Logger
}

// NewAuth constructs the auth client.
func NewAuth(tr *transport.Client, store session.Store, log *zap.Logger) *Auth {
	return &Auth{tr: tr, store: store, log: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// Register creates an account and stores the returned token, so a fresh
// registration is immediately a logged-in session.
func (a *Auth) Register(ctx context.Context, username, password string) error {
	return a.obtainToken(ctx, "/auth/register", username, password)
}

// Login authenticates and stores the returned token durably.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	return a.obtainToken(ctx, "/auth/login", username, password)
}

// Logout discards the stored token. Purely local; the server keeps no session.
func (a *Auth) Logout() error {
	return a.store.Clear()
}

func (a *Auth) obtainToken(ctx context.Context, path, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: empty username or password", errs.ErrValidation)
	}
	var tok tokenResponse
	err := a.tr.PostJSON(ctx, path, credentialsRequest{Username: username, Password: password}, &tok,
		transport.Unauthenticated())
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: server returned no access token", errs.ErrRequestFailed)
	}
	if err := a.store.SetToken(tok.AccessToken, tokenExpiry(tok.AccessToken)); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	a.log.Info("session established", zap.String("username", tok.Username))
	return nil
}

// tokenExpiry reads the exp claim without validating the signature; the server
// remains the authority on expiry, this only stamps the local token file.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(defaultTokenTTL)
}
