package passauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/atlastours/agency-api/internal/errors"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(Config{BaseURL: srv.URL, APIKey: "test-key", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return p
}

func TestProvider_SignIn_Success(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"expires_in":    3600,
			"user": map[string]any{
				"id":    "user-1",
				"email": "ada@example.com",
				"user_metadata": map[string]any{
					"full_name": "Ada Lovelace",
				},
			},
		})
	})

	identity, err := p.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada Lovelace", identity.DisplayName)
	assert.Equal(t, "rt-1", identity.RefreshToken)
	assert.False(t, identity.ExpiresAt.IsZero())
}

func TestProvider_SignIn_InvalidCredentials(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})

	_, err := p.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	// The message must not say whether the email or the password was wrong.
	assert.Equal(t, "invalid email or password", err.Error())
}

func TestProvider_SignIn_BackendDown(t *testing.T) {
	p, err := NewProvider(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = p.SignIn(context.Background(), "ada@example.com", "secret")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestProvider_SignIn_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.SignIn(context.Background(), "ada@example.com", "secret")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestProvider_Refresh(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-1", body["refresh_token"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-2",
			"refresh_token": "rt-2",
			"expires_in":    3600,
			"user":          map[string]any{"id": "user-1", "email": "ada@example.com"},
		})
	})

	identity, err := p.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "rt-2", identity.RefreshToken)
}

func TestProvider_Refresh_EmptyToken(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("backend should not be called")
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestProvider_SignOut(t *testing.T) {
	var called bool
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, p.SignOut(context.Background(), "rt-1"))
	assert.True(t, called)

	// Empty token is a no-op.
	require.NoError(t, p.SignOut(context.Background(), ""))
}

func TestNewProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}
