package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSessionMonitor runs the background session re-validation loop.
	ServiceModeSessionMonitor ServiceMode = "session-monitor"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeSessionMonitor,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeSessionMonitor:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, session-monitor)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// CatalogConfig contains catalog facade configuration.
type CatalogConfig struct {
	// FetchTimeout bounds one live fetch attempt against the database.
	FetchTimeout time.Duration `env:"CATALOG_FETCH_TIMEOUT" envDefault:"30s"`

	// PackagesTTL is the cache TTL for the packages collection.
	PackagesTTL time.Duration `env:"CATALOG_PACKAGES_TTL" envDefault:"10m"`

	// DestinationsTTL is the cache TTL for the destinations collection.
	DestinationsTTL time.Duration `env:"CATALOG_DESTINATIONS_TTL" envDefault:"15m"`

	// ServicesTTL is the cache TTL for the services collection.
	ServicesTTL time.Duration `env:"CATALOG_SERVICES_TTL" envDefault:"15m"`

	// ListLimit caps rows returned per collection fetch.
	ListLimit int `env:"CATALOG_LIST_LIMIT" envDefault:"200"`
}

// Sanitize applies guardrails to catalog configuration values.
func (c *CatalogConfig) Sanitize() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.PackagesTTL <= 0 {
		c.PackagesTTL = 10 * time.Minute
	}
	if c.DestinationsTTL <= 0 {
		c.DestinationsTTL = 15 * time.Minute
	}
	if c.ServicesTTL <= 0 {
		c.ServicesTTL = 15 * time.Minute
	}
	if c.ListLimit < 1 {
		c.ListLimit = 1
	}
}

// BookingConfig contains booking write retry configuration.
type BookingConfig struct {
	// WriteAttempts is the total number of attempts per booking write,
	// including the first one.
	WriteAttempts int `env:"BOOKING_WRITE_ATTEMPTS" envDefault:"2"`

	// RetryBackoff is the pause between booking write attempts.
	RetryBackoff time.Duration `env:"BOOKING_RETRY_BACKOFF" envDefault:"2s"`
}

// Sanitize applies guardrails to booking configuration values.
func (b *BookingConfig) Sanitize() {
	if b.WriteAttempts < 1 {
		b.WriteAttempts = 1
	}
	if b.RetryBackoff < 0 {
		b.RetryBackoff = 0
	}
}

// SessionMonitorConfig contains session monitor service configuration.
type SessionMonitorConfig struct {
	// Interval is the monitor sweep interval.
	Interval time.Duration `env:"SESSION_MONITOR_INTERVAL" envDefault:"60s"`

	// RefreshWindow is how close to expiry a session is refreshed proactively.
	// Zero defaults to twice the interval.
	RefreshWindow time.Duration `env:"SESSION_MONITOR_REFRESH_WINDOW" envDefault:"0"`
}

// Sanitize applies guardrails to session monitor configuration values.
func (s *SessionMonitorConfig) Sanitize() {
	if s.Interval < time.Second {
		s.Interval = time.Second
	}
	if s.RefreshWindow < 0 {
		s.RefreshWindow = 0
	}
}
