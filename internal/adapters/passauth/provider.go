// Package passauth implements the CredentialsProvider port against the
// hosted account backend's password-grant REST API.
package passauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	apperrors "github.com/atlastours/agency-api/internal/errors"
)

// Config holds configuration for the password auth provider.
type Config struct {
	// BaseURL is the root of the account backend, e.g. "https://auth.example.com".
	BaseURL string
	// APIKey is sent on every request as the "apikey" header.
	APIKey string
	// HTTPClient is optional and defaults to a 20s-timeout client.
	HTTPClient *http.Client
}

// Provider implements ports.CredentialsProvider.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewProvider constructs a password auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("passauth: BaseURL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Provider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         userBody `json:"user"`
}

type userBody struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignIn exchanges credentials for an identity. A 400/401/403 response maps
// to a generic unauthorized error; the backend's distinction between unknown
// email and wrong password is deliberately not surfaced.
func (p *Provider) SignIn(ctx context.Context, email, password string) (domainauth.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := p.post(ctx, "/token?grant_type=password", body)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return p.decodeIdentity(resp)
}

// CurrentSession revalidates a previously issued session via its refresh token.
func (p *Provider) CurrentSession(ctx context.Context, refreshToken string) (domainauth.Identity, error) {
	return p.Refresh(ctx, refreshToken)
}

// Refresh exchanges a refresh token for a renewed identity.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domainauth.Identity, error) {
	if refreshToken == "" {
		return domainauth.Identity{}, apperrors.Unauthorized("no session to refresh")
	}
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := p.post(ctx, "/token?grant_type=refresh_token", body)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return p.decodeIdentity(resp)
}

// SignOut revokes the backend session for the given refresh token.
func (p *Provider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := p.post(ctx, "/logout", body)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (p *Provider) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "auth backend unreachable")
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, p.mapErrorResponse(resp)
	}
	return resp, nil
}

func (p *Provider) mapErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errBody errorResponse
	_ = json.Unmarshal(raw, &errBody)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		// Never leak which half of the credential pair was wrong.
		return apperrors.Unauthorized("invalid email or password")
	case http.StatusTooManyRequests:
		return apperrors.Unavailable("auth backend is rate limiting requests")
	default:
		msg := errBody.ErrorDescription
		if msg == "" {
			msg = errBody.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("auth backend returned status %d", resp.StatusCode)
		}
		return apperrors.Wrap(
			fmt.Errorf("auth backend status %d", resp.StatusCode),
			apperrors.ErrCodeUnavailable,
			msg,
		)
	}
}

func (p *Provider) decodeIdentity(resp *http.Response) (domainauth.Identity, error) {
	defer func() { _ = resp.Body.Close() }()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode token response: %w", err)
	}
	if tok.User.ID == "" {
		return domainauth.Identity{}, errors.New("token response missing user")
	}

	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	return domainauth.Identity{
		UserID:       tok.User.ID,
		Email:        tok.User.Email,
		DisplayName:  metadataString(tok.User.Metadata, "full_name"),
		ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second),
		RefreshToken: tok.RefreshToken,
	}, nil
}

func metadataString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
