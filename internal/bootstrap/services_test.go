package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/atlastours/agency-api/config"
	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/data"
)

func TestNewServicesRequiresDeps(t *testing.T) {
	if _, err := NewServices(nil); err == nil {
		t.Fatal("expected error for nil dependencies")
	}
}

func TestNewServicesBuildsWithoutRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.AppConfig{}
	cfg.Sanitize()

	services, err := NewServices(&ServiceDeps{
		Config: &cfg,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewServices() error: %v", err)
	}

	if services.Catalog == nil {
		t.Error("expected catalog service to be built")
	}
	if services.Bookings == nil {
		t.Error("expected booking service to be built")
	}
	if services.Auth.Service != nil {
		t.Error("expected auth service to be disabled without redis")
	}
	if services.Monitor != nil {
		t.Error("expected session monitor to be disabled without redis")
	}
	if services.Cache == nil {
		t.Error("expected an in-memory cache tier without redis")
	}
}

func TestBuildRepositoriesFallsBackToMemoryCache(t *testing.T) {
	repos := buildRepositories(nil, nil)

	if _, ok := repos.CacheRepo.(*data.MemoryCacheRepo); !ok {
		t.Fatalf("expected memory cache repo without redis, got %T", repos.CacheRepo)
	}
}

func TestServiceCatalogConfigMapsTTLs(t *testing.T) {
	cfg := config.CatalogConfig{
		FetchTimeout:    10 * time.Second,
		PackagesTTL:     time.Minute,
		DestinationsTTL: 2 * time.Minute,
		ServicesTTL:     3 * time.Minute,
		ListLimit:       50,
	}

	svcCfg := serviceCatalogConfig(cfg)

	if svcCfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout: expected 10s, got %v", svcCfg.FetchTimeout)
	}
	if svcCfg.TTLs[catalog.CollectionPackages] != time.Minute {
		t.Errorf("packages TTL: expected 1m, got %v", svcCfg.TTLs[catalog.CollectionPackages])
	}
	if svcCfg.TTLs[catalog.CollectionServices] != 3*time.Minute {
		t.Errorf("services TTL: expected 3m, got %v", svcCfg.TTLs[catalog.CollectionServices])
	}
	if svcCfg.ListLimit != 50 {
		t.Errorf("ListLimit: expected 50, got %d", svcCfg.ListLimit)
	}
}

func TestValidateServiceConfig(t *testing.T) {
	if err := ValidateServiceConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := &config.AppConfig{Services: "http"}
	if err := ValidateServiceConfig(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = &config.AppConfig{Services: "nope"}
	if err := ValidateServiceConfig(cfg); err == nil {
		t.Error("expected error for invalid service name")
	}
}
