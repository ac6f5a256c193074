package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	"github.com/atlastours/agency-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider        = (*MockAuthProvider)(nil)
	_ ports.CredentialsProvider = (*MockCredentialsProvider)(nil)
	_ ports.SessionStore        = (*MemorySessionStore)(nil)
	_ ports.RoleSource          = (*StaticRoleSource)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:      "mock-user-1",
			Email:       "mock.user@example.com",
			DisplayName: "Mock User",
			Groups:      []string{"agency-staff"},
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with a fresh expiration time
	user := m.DefaultUser
	if user.UserID == "" {
		user = domainauth.Identity{
			UserID:      "mock-user-1",
			Email:       "mock.user@example.com",
			DisplayName: "Mock User",
			Groups:      []string{"agency-staff"},
		}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)

	return user, nil
}

// MockCredentialsProvider simulates the hosted password-auth backend.
// Zero value accepts any credential pair matching Email/Password when set,
// or everything when both are empty.
type MockCredentialsProvider struct {
	SignInFunc  func(ctx context.Context, email, password string) (domainauth.Identity, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (domainauth.Identity, error)
	SignOutFunc func(ctx context.Context, refreshToken string) error

	Email    string
	Password string
	Identity domainauth.Identity

	// Call counters for asserting how often the backend was hit.
	SignInCalls  int
	RefreshCalls int
	SignOutCalls int
}

// NewMockCredentialsProvider creates a provider that accepts the given
// credential pair and returns an identity derived from the email.
func NewMockCredentialsProvider(email, password string) *MockCredentialsProvider {
	return &MockCredentialsProvider{
		Email:    email,
		Password: password,
		Identity: domainauth.Identity{
			UserID:       "mock-user-1",
			Email:        email,
			DisplayName:  "Mock User",
			RefreshToken: "mock-refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}
}

func (m *MockCredentialsProvider) SignIn(ctx context.Context, email, password string) (domainauth.Identity, error) {
	m.SignInCalls++
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	if m.Email != "" && (email != m.Email || password != m.Password) {
		return domainauth.Identity{}, errors.New("invalid email or password")
	}
	identity := m.Identity
	if identity.UserID == "" {
		identity = domainauth.Identity{UserID: "mock-user-1", Email: email}
	}
	if identity.ExpiresAt.IsZero() {
		identity.ExpiresAt = time.Now().Add(time.Hour)
	}
	return identity, nil
}

func (m *MockCredentialsProvider) CurrentSession(ctx context.Context, refreshToken string) (domainauth.Identity, error) {
	return m.Refresh(ctx, refreshToken)
}

func (m *MockCredentialsProvider) Refresh(ctx context.Context, refreshToken string) (domainauth.Identity, error) {
	m.RefreshCalls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	if refreshToken == "" {
		return domainauth.Identity{}, errors.New("no session to refresh")
	}
	identity := m.Identity
	if identity.UserID == "" {
		identity = domainauth.Identity{UserID: "mock-user-1", Email: m.Email}
	}
	identity.ExpiresAt = time.Now().Add(time.Hour)
	return identity, nil
}

func (m *MockCredentialsProvider) SignOut(ctx context.Context, refreshToken string) error {
	m.SignOutCalls++
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, refreshToken)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// Guarded by a mutex so tests exercising concurrent role checks are safe.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = ports.ErrSessionNotFound

// StaticRoleSource serves role records from a fixed map and counts lookups,
// so tests can assert throttle behavior. Err, when set, simulates an
// infrastructure failure for every lookup.
type StaticRoleSource struct {
	mu      sync.Mutex
	Records map[string]domainauth.RoleRecord
	Err     error
	calls   int
}

// NewStaticRoleSource creates a StaticRoleSource over the given records.
func NewStaticRoleSource(records map[string]domainauth.RoleRecord) *StaticRoleSource {
	if records == nil {
		records = make(map[string]domainauth.RoleRecord)
	}
	return &StaticRoleSource{Records: records}
}

func (s *StaticRoleSource) RoleFor(_ context.Context, userID string) (domainauth.RoleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return domainauth.RoleRecord{}, s.Err
	}
	record, ok := s.Records[userID]
	if !ok {
		return domainauth.RoleRecord{Role: domainauth.RoleGuest}, nil
	}
	return record, nil
}

// Calls reports how many lookups have been issued.
func (s *StaticRoleSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SetErr swaps the simulated infrastructure failure on or off mid-test.
func (s *StaticRoleSource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}
