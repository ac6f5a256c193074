// Package service provides business logic services for the agency API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/idna"
	"golang.org/x/sync/singleflight"

	"github.com/atlastours/agency-api/internal/data"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	apperrors "github.com/atlastours/agency-api/internal/errors"
	"github.com/atlastours/agency-api/internal/ports"
)

// AuthConfig holds the timing policy for the auth service.
type AuthConfig struct {
	// LoginTimeout bounds the full sign-in round trip to the auth backend.
	LoginTimeout time.Duration
	// RoleCheckTimeout bounds a single role lookup.
	RoleCheckTimeout time.Duration
	// RoleCheckThrottle is the minimum interval between role re-checks for a
	// session, absent an explicit login event.
	RoleCheckThrottle time.Duration
	// AdminTrustWindow is how long a positive admin verification is trusted
	// across a fresh sign-in without re-querying the role source.
	AdminTrustWindow time.Duration
	// SignOutTimeout bounds the best-effort backend sign-out on logout.
	SignOutTimeout time.Duration
}

// DefaultAuthConfig returns the standard timing policy.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		LoginTimeout:      45 * time.Second,
		RoleCheckTimeout:  20 * time.Second,
		RoleCheckThrottle: 5 * time.Minute,
		AdminTrustWindow:  10 * time.Minute,
		SignOutTimeout:    5 * time.Second,
	}
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Credentials  ports.CredentialsProvider
	Provider     ports.AuthProvider // optional, SSO mode
	Sessions     ports.SessionStore
	Roles        ports.RoleMapper // optional, SSO group mapping
	RoleSource   ports.RoleSource
	Config       *AuthConfig
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// AuthService owns the question "is there a logged-in user, and are they an
// admin?". It coordinates the credentials backend, the role source, and
// session persistence, and enforces the role-check failure policy: an
// authorization denial demotes the session, an infrastructure failure never
// does.
type AuthService struct {
	credentials  ports.CredentialsProvider
	provider     ports.AuthProvider
	sessions     ports.SessionStore
	roles        ports.RoleMapper
	roleSource   ports.RoleSource
	cfg          AuthConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger

	// roleChecks coalesces concurrent lookups for the same user, so a login
	// racing the background monitor issues a single query.
	roleChecks singleflight.Group
}

// ErrSessionExpired is returned when a stored session has passed its expiry.
var ErrSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		defaultCfg := DefaultAuthConfig()
		opts.Config = &defaultCfg
	}

	return &AuthService{
		credentials:  opts.Credentials,
		provider:     opts.Provider,
		sessions:     opts.Sessions,
		roles:        opts.Roles,
		roleSource:   opts.RoleSource,
		cfg:          *opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger,
	}
}

// LoginInput groups parameters for a password login.
type LoginInput struct {
	Email    string
	Password string

	// PriorSessionID, when set, lets a fresh sign-in inherit a recent admin
	// verification from the previous session instead of re-querying.
	PriorSessionID string
}

// LoginResult contains the session created by a successful login.
type LoginResult struct {
	Session  domainauth.Session
	Snapshot domainauth.Snapshot
}

// Login authenticates with email and password, creates a session, and
// resolves the role synchronously. A role lookup that fails for
// infrastructure reasons does not fail the login; the session is created
// with the role unresolved to last-known state and re-checked later.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, apperrors.Validation("invalid email format")
	}
	if input.Password == "" {
		return nil, apperrors.Validation("password is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoginTimeout)
	defer cancel()

	identity, err := s.credentials.SignIn(ctx, email, input.Password)
	if err != nil {
		if apperrors.IsUnavailable(err) || apperrors.IsTimeout(err) {
			return nil, err
		}
		// Generic by contract: never reveal which half of the pair was wrong.
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	now := s.timeProvider.Now()
	session := domainauth.Session{
		ID:           uuid.New().String(),
		UserID:       identity.UserID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		Role:         domainauth.RoleGuest,
		RefreshToken: identity.RefreshToken,
		ExpiresAt:    identity.ExpiresAt,
	}

	if !s.inheritVerification(ctx, &session, input.PriorSessionID, now) {
		s.resolveRole(ctx, &session)
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.Info("user logged in",
		"user_id", session.UserID,
		"role", session.Role,
		"role_resolved", session.RoleResolved)

	return &LoginResult{
		Session:  session,
		Snapshot: domainauth.SnapshotOf(&session),
	}, nil
}

// inheritVerification applies the optimistic trust window: if the prior
// session for the same user was positively verified as admin recently, the
// new session reuses that verdict and skips the synchronous lookup.
func (s *AuthService) inheritVerification(ctx context.Context, session *domainauth.Session, priorID string, now time.Time) bool {
	if priorID == "" {
		return false
	}
	prior, err := s.sessions.Get(ctx, priorID)
	if err != nil {
		return false
	}
	if prior.UserID != session.UserID || prior.AdminVerifiedAt == nil {
		return false
	}
	if now.Sub(*prior.AdminVerifiedAt) >= s.cfg.AdminTrustWindow {
		return false
	}

	session.Role = prior.Role
	session.RoleResolved = true
	session.AdminVerifiedAt = prior.AdminVerifiedAt
	session.LastRoleCheckAt = prior.LastRoleCheckAt
	return true
}

// GetSession retrieves a session by ID, evicting it if expired. When the
// last role check is older than the throttle interval, a re-check runs
// before the session is returned.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.timeProvider.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	if s.shouldRecheckRole(&session) {
		s.resolveRole(ctx, &session)
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			s.logger.Warn("persist role re-check failed",
				"session_id", session.ID, "error", saveErr)
		}
	}

	return &session, nil
}

// Snapshot returns the client-facing auth state for a session ID. A missing
// or expired session is a plain unauthenticated snapshot, not an error.
func (s *AuthService) Snapshot(ctx context.Context, sessionID string) (domainauth.Snapshot, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return domainauth.SnapshotOf(nil), nil
		}
		return domainauth.Snapshot{}, err
	}
	return domainauth.SnapshotOf(session), nil
}

// Logout removes the session. The backend sign-out is best effort and
// bounded; a remote failure never blocks the local logout.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err == nil && session.RefreshToken != "" && s.credentials != nil {
		signOutCtx, cancel := context.WithTimeout(ctx, s.cfg.SignOutTimeout)
		if signOutErr := s.credentials.SignOut(signOutCtx, session.RefreshToken); signOutErr != nil {
			s.logger.Warn("backend sign-out failed",
				"session_id", sessionID, "error", signOutErr)
		}
		cancel()
	}

	if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
		return fmt.Errorf("delete session: %w", deleteErr)
	}
	return nil
}

// shouldRecheckRole applies the 5-minute throttle.
func (s *AuthService) shouldRecheckRole(session *domainauth.Session) bool {
	if session.LastRoleCheckAt == nil {
		return true
	}
	return s.timeProvider.Now().Sub(*session.LastRoleCheckAt) >= s.cfg.RoleCheckThrottle
}

// resolveRole runs a role lookup and applies the failure policy in one
// place, so login, request-path re-checks, and the background monitor all
// converge on the same transitions:
//
//   - lookup succeeded, record grants admin: adopt the role, stamp
//     AdminVerifiedAt
//   - lookup succeeded, record does not grant: demote, clear AdminVerifiedAt
//   - lookup failed (timeout, network, database): keep the prior role, but
//     mark the role resolved so callers are unblocked on last-known state
func (s *AuthService) resolveRole(ctx context.Context, session *domainauth.Session) {
	now := s.timeProvider.Now()
	record, err := s.lookupRole(ctx, session.UserID)

	session.LastRoleCheckAt = &now
	session.RoleResolved = true

	if err != nil {
		s.logger.Warn("role lookup failed, preserving prior role",
			"user_id", session.UserID,
			"role", session.Role,
			"error", err)
		return
	}

	if record.Grants() {
		session.Role = record.Role
		session.AdminVerifiedAt = &now
		return
	}

	if record.IsActive && record.Role.Valid() {
		session.Role = record.Role
	} else {
		session.Role = domainauth.RoleGuest
	}
	session.AdminVerifiedAt = nil
}

// lookupRole queries the role source with a bounded timeout. Concurrent
// lookups for the same user share one in-flight query.
func (s *AuthService) lookupRole(ctx context.Context, userID string) (domainauth.RoleRecord, error) {
	if s.roleSource == nil {
		return domainauth.RoleRecord{}, errors.New("role source is not configured")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.RoleCheckTimeout)
	defer cancel()

	v, err, _ := s.roleChecks.Do(userID, func() (any, error) {
		return s.roleSource.RoleFor(lookupCtx, userID)
	})
	if err != nil {
		return domainauth.RoleRecord{}, err
	}
	record, ok := v.(domainauth.RoleRecord)
	if !ok {
		return domainauth.RoleRecord{}, errors.New("unexpected role lookup result type")
	}
	return record, nil
}

// BeginLoginResult contains the result of beginning an SSO login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an SSO authentication flow and returns the provider
// auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("sso is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	input := ports.BeginInput{RedirectURL: redirectURL}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing an SSO login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin completes an SSO flow by exchanging the code for an
// identity, mapping IdP groups to a role, and persisting a session. Group
// claims arrive with the token, so the role is resolved immediately and no
// database lookup runs.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("sso is not configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	exchangeInput := ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	}
	identity, err := s.provider.Exchange(ctx, exchangeInput)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := domainauth.RoleGuest
	if s.roles != nil {
		role = s.roles.Map(identity.Groups)
	}

	now := s.timeProvider.Now()
	session := domainauth.Session{
		ID:              uuid.New().String(),
		UserID:          identity.UserID,
		Email:           identity.Email,
		DisplayName:     identity.DisplayName,
		Role:            role,
		RoleResolved:    true,
		LastRoleCheckAt: &now,
		RefreshToken:    identity.RefreshToken,
		ExpiresAt:       identity.ExpiresAt,
	}
	if role.IsAdmin() {
		session.AdminVerifiedAt = &now
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &LoginResult{
		Session:  session,
		Snapshot: domainauth.SnapshotOf(&session),
	}, nil
}

var emailLocalPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+$`)

// NormalizeEmail validates an email address shape and returns it lowercased
// with the domain converted to its ASCII (punycode) form. Validation is
// local; no network call is made.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", errors.New("invalid email format")
	}

	local, domain := email[:at], email[at+1:]
	if !emailLocalPattern.MatchString(local) {
		return "", errors.New("invalid email format")
	}

	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", errors.New("invalid email format")
	}
	if !strings.Contains(asciiDomain, ".") {
		return "", errors.New("invalid email format")
	}

	return local + "@" + asciiDomain, nil
}
