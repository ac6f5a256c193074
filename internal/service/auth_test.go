package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastours/agency-api/internal/data"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	apperrors "github.com/atlastours/agency-api/internal/errors"
	mocks "github.com/atlastours/agency-api/internal/mocks/auth"
	"github.com/atlastours/agency-api/internal/ports"
)

type authFixture struct {
	service     *AuthService
	credentials *mocks.MockCredentialsProvider
	sessions    *mocks.MemorySessionStore
	roleSource  *mocks.StaticRoleSource
	clock       *data.FixedTimeProvider
}

func newAuthFixture(t *testing.T, records map[string]domainauth.RoleRecord) *authFixture {
	t.Helper()

	base := time.Now()
	clock := data.NewFixedTimeProvider(base)
	credentials := mocks.NewMockCredentialsProvider("ada@example.com", "secret")
	credentials.Identity.ExpiresAt = base.Add(24 * time.Hour)
	sessions := mocks.NewMemorySessionStore()
	roleSource := mocks.NewStaticRoleSource(records)

	svc := NewAuthService(AuthServiceOptions{
		Credentials:  credentials,
		Sessions:     sessions,
		RoleSource:   roleSource,
		TimeProvider: clock,
	})

	return &authFixture{
		service:     svc,
		credentials: credentials,
		sessions:    sessions,
		roleSource:  roleSource,
		clock:       clock,
	}
}

func adminRecords() map[string]domainauth.RoleRecord {
	return map[string]domainauth.RoleRecord{
		"mock-user-1": {Role: domainauth.RoleAdmin, IsActive: true},
	}
}

func TestAuthService_Login_InvalidEmailFormat(t *testing.T) {
	f := newAuthFixture(t, nil)

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "not-an-email",
		Password: "x",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "invalid email format", err.Error())
	// Validation happens before any backend call.
	assert.Equal(t, 0, f.credentials.SignInCalls)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t, nil)

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "admin@example.com",
		Password: "wrongpass",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, "invalid email or password", err.Error())
	assert.Equal(t, 0, f.sessions.Len(), "no session is created on credential failure")
}

func TestAuthService_Login_AdminRoleResolvedSynchronously(t *testing.T) {
	f := newAuthFixture(t, adminRecords())

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, result.Session.Role)
	assert.True(t, result.Session.RoleResolved)
	require.NotNil(t, result.Session.AdminVerifiedAt)
	require.NotNil(t, result.Session.LastRoleCheckAt)
	assert.True(t, result.Snapshot.Authenticated)
	assert.True(t, result.Snapshot.Admin)
	assert.Equal(t, 1, f.roleSource.Calls())
}

func TestAuthService_Login_RoleLookupFailureIsSoftSuccess(t *testing.T) {
	f := newAuthFixture(t, adminRecords())
	f.roleSource.SetErr(errors.New("connection refused"))

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})

	require.NoError(t, err, "an infrastructure failure must not fail the login")
	assert.Equal(t, domainauth.RoleGuest, result.Session.Role)
	assert.True(t, result.Session.RoleResolved,
		"role is marked resolved to unblock callers on last-known state")
	assert.Nil(t, result.Session.AdminVerifiedAt)
	assert.True(t, result.Snapshot.Authenticated)
	assert.False(t, result.Snapshot.Admin)
}

func TestAuthService_RoleCheck_InfraFailurePreservesAdmin(t *testing.T) {
	f := newAuthFixture(t, adminRecords())

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, domainauth.RoleAdmin, result.Session.Role)

	f.roleSource.SetErr(context.DeadlineExceeded)
	f.clock.AddTime(6 * time.Minute)

	session, err := f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, session.Role,
		"a timed-out lookup keeps the last known role")
	assert.True(t, session.RoleResolved)
	assert.Equal(t, 2, f.roleSource.Calls(), "the failed re-check was attempted")
}

func TestAuthService_RoleCheck_DenialDemotesAndSticks(t *testing.T) {
	f := newAuthFixture(t, adminRecords())

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, domainauth.RoleAdmin, result.Session.Role)

	// The role source now says staff: a definitive authorization denial.
	f.roleSource.Records["mock-user-1"] = domainauth.RoleRecord{
		Role: domainauth.RoleStaff, IsActive: true,
	}
	f.clock.AddTime(6 * time.Minute)

	session, err := f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStaff, session.Role)
	assert.False(t, session.IsAdmin())
	assert.Nil(t, session.AdminVerifiedAt)

	// A later infrastructure failure must not resurrect admin rights.
	f.roleSource.SetErr(errors.New("db down"))
	f.clock.AddTime(6 * time.Minute)

	session, err = f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.False(t, session.IsAdmin())
}

func TestAuthService_RoleCheck_InactiveRecordDemotesToGuest(t *testing.T) {
	f := newAuthFixture(t, map[string]domainauth.RoleRecord{
		"mock-user-1": {Role: domainauth.RoleAdmin, IsActive: false},
	})

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleGuest, result.Session.Role)
	assert.Nil(t, result.Session.AdminVerifiedAt)
}

func TestAuthService_RoleCheck_ThrottleHonored(t *testing.T) {
	f := newAuthFixture(t, adminRecords())

	result, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.roleSource.Calls())

	// Two back-to-back reads within the throttle window issue zero lookups.
	_, err = f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	_, err = f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.roleSource.Calls())

	f.clock.AddTime(5 * time.Minute)

	_, err = f.service.GetSession(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.roleSource.Calls())
}

func TestAuthService_Login_TrustWindowSkipsRecheck(t *testing.T) {
	f := newAuthFixture(t, adminRecords())

	first, err := f.service.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.roleSource.Calls())

	f.clock.AddTime(3 * time.Minute)

	second, err := f.service.Login(context.Background(), LoginInput{
		Email:          "ada@example.com",
		Password:       "secret",
		PriorSessionID: first.Session.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, second.Session.Role)
	assert.True(t, second.Session.RoleResolved)
	assert.Equal(t, 1, f.roleSource.Calls(),
		"a recent admin verification short-circuits the lookup")

	f.clock.AddTime(10 * time.Minute)

	_, err = f.service.Login(context.Background(), LoginInput{
		Email:          "ada@example.com",
		Password:       "secret",
		PriorSessionID: second.Session.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.roleSource.Calls(),
		"an expired trust window re-verifies on sign-in")
}

func TestAuthService_SnapshotInvariant_AdminImpliesAuthenticated(t *testing.T) {
	f := newAuthFixture(t, adminRecords())
	ctx := context.Background()

	// Unauthenticated start.
	snap, err := f.service.Snapshot(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, snap.Authenticated)
	assert.False(t, snap.Admin)

	result, err := f.service.Login(ctx, LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	snap, err = f.service.Snapshot(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.True(t, snap.Authenticated)
	assert.True(t, snap.Admin)

	require.NoError(t, f.service.Logout(ctx, result.Session.ID))

	snap, err = f.service.Snapshot(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.False(t, snap.Authenticated)
	assert.False(t, snap.Admin, "admin never holds without authentication")
}

func TestAuthService_Logout_BestEffortBackendSignOut(t *testing.T) {
	f := newAuthFixture(t, adminRecords())
	ctx := context.Background()

	result, err := f.service.Login(ctx, LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	f.credentials.SignOutFunc = func(context.Context, string) error {
		return errors.New("backend unreachable")
	}

	require.NoError(t, f.service.Logout(ctx, result.Session.ID),
		"a remote sign-out failure never blocks local logout")
	assert.Equal(t, 1, f.credentials.SignOutCalls)

	_, err = f.service.GetSession(ctx, result.Session.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestAuthService_GetSession_ExpiredIsEvicted(t *testing.T) {
	f := newAuthFixture(t, adminRecords())
	ctx := context.Background()

	result, err := f.service.Login(ctx, LoginInput{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	f.clock.AddTime(25 * time.Hour)

	_, err = f.service.GetSession(ctx, result.Session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_CompleteLogin_MapsGroups(t *testing.T) {
	base := time.Now()
	clock := data.NewFixedTimeProvider(base)
	provider := mocks.NewMockAuthProvider()
	provider.DefaultUser.Groups = []string{"agency-admins"}
	sessions := mocks.NewMemorySessionStore()

	svc := NewAuthService(AuthServiceOptions{
		Provider:     provider,
		Sessions:     sessions,
		Roles:        roleMapperFunc(func([]string) domainauth.Role { return domainauth.RoleAdmin }),
		TimeProvider: clock,
	})

	result, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{
		Code: "code", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, result.Session.Role)
	assert.True(t, result.Session.RoleResolved)
	require.NotNil(t, result.Session.AdminVerifiedAt)
	assert.Equal(t, base, *result.Session.AdminVerifiedAt)
}

// roleMapperFunc adapts a function to ports.RoleMapper.
type roleMapperFunc func(groups []string) domainauth.Role

func (f roleMapperFunc) Map(groups []string) domainauth.Role { return f(groups) }

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "Ada@Example.COM", want: "ada@example.com"},
		{name: "trimmed", in: "  ada@example.com  ", want: "ada@example.com"},
		{name: "unicode domain", in: "ada@bücher.example", want: "ada@xn--bcher-kva.example"},
		{name: "no at sign", in: "not-an-email", wantErr: true},
		{name: "missing local", in: "@example.com", wantErr: true},
		{name: "missing domain", in: "ada@", wantErr: true},
		{name: "no dot in domain", in: "ada@localhost", wantErr: true},
		{name: "spaces in local", in: "a da@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEmail(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
