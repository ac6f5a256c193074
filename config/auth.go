package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword authenticates against the account backend's password API.
	AuthModePassword AuthMode = "password"
	// AuthModeSSO uses OAuth/OIDC for authentication.
	AuthModeSSO AuthMode = "sso"
	// AuthModeDev uses a config-driven local identity (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "sso", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, sso, dev)", v)
	}
}

// PasswordAuthConfig contains account backend configuration for password logins.
type PasswordAuthConfig struct {
	BaseURL string `env:"BASE_URL"`
	APIKey  string `env:"API_KEY"`
}

// SSOConfig contains OAuth/OIDC configuration.
type SSOConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"agency"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls dev authentication identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	UserID      string   `env:"USER_ID"      envDefault:"dev-user"`
	Email       string   `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string   `env:"DISPLAY_NAME" envDefault:"Dev User"`
	Groups      []string `env:"GROUPS"       envDefault:"admins"          envSeparator:";"`
}

// AuthTimingConfig groups the timing policy for role resolution and sessions.
type AuthTimingConfig struct {
	// LoginTimeout bounds the full sign-in round trip to the auth backend.
	LoginTimeout time.Duration `env:"AUTH_LOGIN_TIMEOUT" envDefault:"45s"`

	// RoleCheckTimeout bounds a single role lookup.
	RoleCheckTimeout time.Duration `env:"AUTH_ROLE_CHECK_TIMEOUT" envDefault:"20s"`

	// RoleCheckThrottle is the minimum interval between role re-checks for a
	// session, absent an explicit login event.
	RoleCheckThrottle time.Duration `env:"AUTH_ROLE_CHECK_THROTTLE" envDefault:"5m"`

	// AdminTrustWindow is how long a positive admin verification carries
	// across a fresh sign-in without re-querying the role source.
	AdminTrustWindow time.Duration `env:"AUTH_ADMIN_TRUST_WINDOW" envDefault:"10m"`

	// SignOutTimeout bounds the best-effort backend sign-out on logout.
	SignOutTimeout time.Duration `env:"AUTH_SIGN_OUT_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to timing configuration values.
func (t *AuthTimingConfig) Sanitize() {
	if t.LoginTimeout <= 0 {
		t.LoginTimeout = 45 * time.Second
	}
	if t.RoleCheckTimeout <= 0 {
		t.RoleCheckTimeout = 20 * time.Second
	}
	if t.RoleCheckThrottle < 0 {
		t.RoleCheckThrottle = 0
	}
	if t.AdminTrustWindow < 0 {
		t.AdminTrustWindow = 0
	}
	if t.SignOutTimeout <= 0 {
		t.SignOutTimeout = 5 * time.Second
	}
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// Password backend configuration (used when Mode=password).
	Password PasswordAuthConfig `envPrefix:"AUTH_PASSWORD_"`

	// SSO configuration (used when Mode=sso).
	SSO SSOConfig `envPrefix:"SSO_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SuperadminGroup is the IdP group granting the superadmin role in SSO mode.
	SuperadminGroup string `env:"AUTH_SUPERADMIN_GROUP"`

	// AdminGroup is the IdP group granting the admin role in SSO mode.
	AdminGroup string `env:"AUTH_ADMIN_GROUP"`

	// StaffGroup is the IdP group granting the staff role in SSO mode.
	StaffGroup string `env:"AUTH_STAFF_GROUP"`

	// Timing is the role-resolution and session timing policy.
	Timing AuthTimingConfig
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.Timing.Sanitize()
}
