package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/atlastours/agency-api/config"
	"github.com/atlastours/agency-api/internal/adapters/authroles"
	"github.com/atlastours/agency-api/internal/adapters/devauth"
	"github.com/atlastours/agency-api/internal/adapters/oidc"
	"github.com/atlastours/agency-api/internal/adapters/passauth"
	"github.com/atlastours/agency-api/internal/adapters/pgroles"
	redisadapter "github.com/atlastours/agency-api/internal/adapters/redis"
	"github.com/atlastours/agency-api/internal/ports"
	"github.com/atlastours/agency-api/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthRuntime bundles the auth service with the pieces other components need.
type AuthRuntime struct {
	Service *service.AuthService

	// Credentials is set in password mode; the session monitor needs it for
	// silent refreshes.
	Credentials ports.CredentialsProvider

	// SSOEnabled reports whether the SSO login routes should be registered.
	SSOEnabled bool
}

// newSessionStore builds the Redis session store under the shared key prefix.
func newSessionStore(client redis.UniversalClient) *redisadapter.SessionStore {
	return redisadapter.NewSessionStoreWithPrefix(client, "session:")
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns a zero runtime if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) AuthRuntime {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return AuthRuntime{}
	}

	// Redis session store shared by all modes
	sessionStore := newSessionStore(cfg.RedisClient)

	// Role assignments live in the database regardless of login mode
	roleSource := pgroles.NewSource(cfg.DB)

	timing := serviceAuthConfig(cfg.Auth.Timing)

	switch cfg.Auth.Mode {
	case config.AuthModePassword:
		return buildPasswordAuthService(cfg, sessionStore, roleSource, timing)

	case config.AuthModeSSO:
		return buildSSOAuthService(cfg, sessionStore, roleSource, timing)

	case config.AuthModeDev:
		return buildDevAuthService(cfg, sessionStore, roleSource, timing)

	default:
		return AuthRuntime{}
	}
}

func serviceAuthConfig(t config.AuthTimingConfig) *service.AuthConfig {
	return &service.AuthConfig{
		LoginTimeout:      t.LoginTimeout,
		RoleCheckTimeout:  t.RoleCheckTimeout,
		RoleCheckThrottle: t.RoleCheckThrottle,
		AdminTrustWindow:  t.AdminTrustWindow,
		SignOutTimeout:    t.SignOutTimeout,
	}
}

func groupMapper(cfg config.AuthConfig) authroles.StaticRoleMapper {
	return authroles.StaticRoleMapper{
		SuperadminGroup: cfg.SuperadminGroup,
		AdminGroup:      cfg.AdminGroup,
		StaffGroup:      cfg.StaffGroup,
	}
}

func buildPasswordAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleSource *pgroles.Source,
	timing *service.AuthConfig,
) AuthRuntime {
	password := cfg.Auth.Password
	if password.BaseURL == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModePassword selected but AUTH_PASSWORD_BASE_URL missing; auth disabled")
		}
		return AuthRuntime{}
	}

	prov, err := passauth.NewProvider(passauth.Config{
		BaseURL: password.BaseURL,
		APIKey:  password.APIKey,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create password auth provider, auth disabled", "error", err)
		}
		return AuthRuntime{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Credentials: prov,
		Sessions:    sessionStore,
		RoleSource:  roleSource,
		Config:      timing,
		Logger:      cfg.Logger,
	})

	return AuthRuntime{Service: svc, Credentials: prov}
}

func buildSSOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleSource *pgroles.Source,
	timing *service.AuthConfig,
) AuthRuntime {
	// Only enable when fully configured
	sso := cfg.Auth.SSO
	if sso.DiscoveryURL == "" || sso.ClientID == "" || sso.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeSSO selected but required config missing; auth disabled",
				"discovery_url_empty", sso.DiscoveryURL == "",
				"client_id_empty", sso.ClientID == "",
				"client_secret_empty", sso.ClientSecret == "",
			)
		}
		return AuthRuntime{}
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     sso.ClientID,
		ClientSecret: sso.ClientSecret,
		RedirectURL:  sso.RedirectURL,
		Scope:        sso.Scope,
		DiscoveryURL: sso.DiscoveryURL,
		LogoutURL:    sso.LogoutURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return AuthRuntime{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      groupMapper(cfg.Auth),
		RoleSource: roleSource,
		Config:     timing,
		Logger:     cfg.Logger,
	})

	return AuthRuntime{Service: svc, SSOEnabled: true}
}

func buildDevAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleSource *pgroles.Source,
	timing *service.AuthConfig,
) AuthRuntime {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:      cfg.Auth.DevAuth.UserID,
		Email:       cfg.Auth.DevAuth.Email,
		DisplayName: cfg.Auth.DevAuth.DisplayName,
		Groups:      cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return AuthRuntime{}
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      groupMapper(cfg.Auth),
		RoleSource: roleSource,
		Config:     timing,
		Logger:     cfg.Logger,
	})

	return AuthRuntime{Service: svc, SSOEnabled: true}
}
