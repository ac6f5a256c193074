package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionStore.Get when no session exists
// for the given ID. Stores wrap or return it directly so callers can treat
// "no session" uniformly across backends.
var ErrSessionNotFound = errors.New("session not found")

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// CredentialsProvider authenticates users with email and password against
// the upstream account backend and manages the backend-side session.
type CredentialsProvider interface {
	// SignIn exchanges credentials for an authenticated identity.
	// Invalid credentials return an unauthorized error with no detail about
	// which part of the credential pair was wrong.
	SignIn(ctx context.Context, email, password string) (domainauth.Identity, error)

	// CurrentSession revalidates a previously issued identity.
	CurrentSession(ctx context.Context, refreshToken string) (domainauth.Identity, error)

	// Refresh exchanges a refresh token for a renewed identity.
	Refresh(ctx context.Context, refreshToken string) (domainauth.Identity, error)

	// SignOut invalidates the backend session. Failures are reported but the
	// caller discards local state regardless.
	SignOut(ctx context.Context, refreshToken string) error
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// RoleSource looks up a user's role assignment record.
// A missing record means the user has no elevated role, which is distinct
// from the lookup itself failing.
type RoleSource interface {
	RoleFor(ctx context.Context, userID string) (domainauth.RoleRecord, error)
}
