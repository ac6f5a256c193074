package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
			expectError: false,
		},
		{
			name:  "single service - session-monitor",
			input: "session-monitor",
			expected: map[ServiceMode]bool{
				ServiceModeSessionMonitor: true,
			},
			expectError: false,
		},
		{
			name:  "both services",
			input: "http,session-monitor",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:           true,
				ServiceModeSessionMonitor: true,
			},
			expectError: false,
		},
		{
			name:  "services with spaces",
			input: " http , session-monitor ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:           true,
				ServiceModeSessionMonitor: true,
			},
			expectError: false,
		},
		{
			name:  "duplicate services",
			input: "http,http,session-monitor",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:           true,
				ServiceModeSessionMonitor: true,
			},
			expectError: false,
		},
		{
			name:        "empty string",
			input:       "",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,invalid-service",
			expected:    nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d", len(tt.expected), len(result))
				return
			}

			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "sso")
	t.Setenv("AUTH_SUPERADMIN_GROUP", "cn=superadmins,ou=groups,dc=example,dc=org")
	t.Setenv("AUTH_ADMIN_GROUP", "cn=admins,ou=groups,dc=example,dc=org")
	t.Setenv("AUTH_STAFF_GROUP", "cn=staff,ou=groups,dc=example,dc=org")
	t.Setenv("SSO_CLIENT_ID", "agency-client")
	t.Setenv("SSO_CLIENT_SECRET", "super-secret")
	t.Setenv("SSO_REDIRECT_URL", "https://app.example.com/auth/sso/callback")
	t.Setenv("SSO_DISCOVERY_URL", "https://login.example.com/.well-known/openid-configuration")
	t.Setenv("SSO_SCOPE", "openid profile email")
	t.Setenv("DEV_AUTH_USER_ID", "dev-user")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.com")
	t.Setenv("DEV_AUTH_GROUPS", "admins;devs")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeSSO,
		SSO: SSOConfig{
			ClientID:     "agency-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://app.example.com/auth/sso/callback",
			Scope:        "openid profile email",
			DiscoveryURL: "https://login.example.com/.well-known/openid-configuration",
		},
		DevAuth: DevAuthConfig{
			UserID:      "dev-user",
			Email:       "dev@example.com",
			DisplayName: "Dev User",
			Groups:      []string{"admins", "devs"},
		},
		SuperadminGroup: "cn=superadmins,ou=groups,dc=example,dc=org",
		AdminGroup:      "cn=admins,ou=groups,dc=example,dc=org",
		StaffGroup:      "cn=staff,ou=groups,dc=example,dc=org",
		Timing: AuthTimingConfig{
			LoginTimeout:      45 * time.Second,
			RoleCheckTimeout:  20 * time.Second,
			RoleCheckThrottle: 5 * time.Minute,
			AdminTrustWindow:  10 * time.Minute,
			SignOutTimeout:    5 * time.Second,
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var mode AuthMode
	if err := mode.UnmarshalText([]byte("PASSWORD")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != AuthModePassword {
		t.Fatalf("expected password mode, got %q", mode)
	}

	if err := mode.UnmarshalText([]byte("ldap")); err == nil {
		t.Fatal("expected error for invalid auth mode")
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name            string
		services        string
		expectedHTTP    bool
		expectedMonitor bool
	}{
		{
			name:            "default - both",
			services:        "http,session-monitor",
			expectedHTTP:    true,
			expectedMonitor: true,
		},
		{
			name:            "http only",
			services:        "http",
			expectedHTTP:    true,
			expectedMonitor: false,
		},
		{
			name:            "session-monitor only",
			services:        "session-monitor",
			expectedHTTP:    false,
			expectedMonitor: true,
		},
		{
			name:            "invalid config",
			services:        "invalid-service",
			expectedHTTP:    false,
			expectedMonitor: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}

			if cfg.IsHTTPServerEnabled() != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v, got %v", tt.expectedHTTP, cfg.IsHTTPServerEnabled())
			}

			if cfg.IsSessionMonitorEnabled() != tt.expectedMonitor {
				t.Errorf("IsSessionMonitorEnabled(): expected %v, got %v", tt.expectedMonitor, cfg.IsSessionMonitorEnabled())
			}
		})
	}
}

func TestCatalogConfig_Sanitize(t *testing.T) {
	cfg := CatalogConfig{
		FetchTimeout: -1 * time.Second,
		ListLimit:    0,
	}

	cfg.Sanitize()

	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("expected fetch timeout default, got %v", cfg.FetchTimeout)
	}
	if cfg.PackagesTTL != 10*time.Minute {
		t.Fatalf("expected packages TTL default, got %v", cfg.PackagesTTL)
	}
	if cfg.DestinationsTTL != 15*time.Minute {
		t.Fatalf("expected destinations TTL default, got %v", cfg.DestinationsTTL)
	}
	if cfg.ListLimit != 1 {
		t.Fatalf("expected list limit to be clamped to 1, got %d", cfg.ListLimit)
	}
}

func TestBookingConfig_Sanitize(t *testing.T) {
	cfg := BookingConfig{WriteAttempts: 0, RetryBackoff: -time.Second}

	cfg.Sanitize()

	if cfg.WriteAttempts != 1 {
		t.Fatalf("expected write attempts to be clamped to 1, got %d", cfg.WriteAttempts)
	}
	if cfg.RetryBackoff != 0 {
		t.Fatalf("expected retry backoff to be clamped to 0, got %v", cfg.RetryBackoff)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}
