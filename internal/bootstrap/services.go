package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlastours/agency-api/config"
	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/data"
	"github.com/atlastours/agency-api/internal/observability/statsd"
	"github.com/atlastours/agency-api/internal/service"
	"github.com/atlastours/agency-api/internal/store"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     AuthRuntime
	Catalog  *service.CatalogService
	Bookings *service.BookingService
	Monitor  *service.SessionMonitor
	Cache    core.CacheRepository
	Metrics  *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB              *sql.DB
	Redis           redis.UniversalClient
	PackageRepo     *data.PackageRepo
	DestinationRepo *data.DestinationRepo
	ServiceRepo     *data.ServiceRepo
	BookingRepo     *data.BookingRepo
	CustomerRepo    *data.CustomerRepo
	ContactRepo     *data.ContactRepo
	CacheRepo       core.CacheRepository
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	var cacheRepo core.CacheRepository
	if redisClient != nil {
		cacheRepo = data.NewRedisCacheRepo(redisClient)
	} else {
		// No Redis: the cache tier degrades to process-local memory.
		cacheRepo = data.NewMemoryCacheRepo()
	}

	return &serviceRepositories{
		DB:              db,
		Redis:           redisClient,
		PackageRepo:     data.NewPackageRepo(db),
		DestinationRepo: data.NewDestinationRepo(db),
		ServiceRepo:     data.NewServiceRepo(db),
		BookingRepo:     data.NewBookingRepo(db),
		CustomerRepo:    data.NewCustomerRepo(db),
		ContactRepo:     data.NewContactRepo(db),
		CacheRepo:       cacheRepo,
	}
}

// buildMetrics configures the StatsD sink when metrics emission is enabled.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "agency",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func serviceCatalogConfig(cfg config.CatalogConfig) *service.CatalogConfig {
	return &service.CatalogConfig{
		FetchTimeout: cfg.FetchTimeout,
		TTLs: map[string]time.Duration{
			catalog.CollectionPackages:     cfg.PackagesTTL,
			catalog.CollectionDestinations: cfg.DestinationsTTL,
			catalog.CollectionServices:     cfg.ServicesTTL,
		},
		ListLimit: cfg.ListLimit,
	}
}

func newCatalogService(
	repos *serviceRepositories,
	cfg config.CatalogConfig,
	logger *slog.Logger,
	metrics *statsd.Client,
) (*service.CatalogService, error) {
	var sink statsd.Sink
	if metrics != nil {
		sink = metrics
	}
	return service.NewCatalogService(service.CatalogServiceOptions{
		Packages:     repos.PackageRepo,
		Destinations: repos.DestinationRepo,
		Services:     repos.ServiceRepo,
		Cache:        repos.CacheRepo,
		Store:        store.New(),
		Fallback:     catalog.NewFallback(),
		Config:       serviceCatalogConfig(cfg),
		Logger:       logger,
		Metrics:      sink,
	})
}

func newBookingService(
	repos *serviceRepositories,
	cfg config.BookingConfig,
	logger *slog.Logger,
) (*service.BookingService, error) {
	return service.NewBookingService(service.BookingServiceOptions{
		Bookings:  repos.BookingRepo,
		Customers: repos.CustomerRepo,
		Packages:  repos.PackageRepo,
		Contact:   repos.ContactRepo,
		Config: &service.BookingConfig{
			WriteAttempts: cfg.WriteAttempts,
			RetryBackoff:  cfg.RetryBackoff,
		},
		Logger: logger,
	})
}

func newSessionMonitor(
	auth AuthRuntime,
	cfg config.SessionMonitorConfig,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	metrics *statsd.Client,
) *service.SessionMonitor {
	if auth.Credentials == nil || redisClient == nil {
		if logger != nil {
			logger.Info("session monitor disabled: no refresh-capable credentials backend")
		}
		return nil
	}

	var sink statsd.Sink
	if metrics != nil {
		sink = metrics
	}
	monitor, err := service.NewSessionMonitor(service.SessionMonitorOptions{
		Sessions:      newSessionStore(redisClient),
		Credentials:   auth.Credentials,
		Interval:      cfg.Interval,
		RefreshWindow: cfg.RefreshWindow,
		Logger:        logger,
		Metrics:       sink,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create session monitor", "error", err)
		}
		return nil
	}
	return monitor
}

// NewServices wires business services using repositories and adapters.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	metrics := buildMetrics(logger, appCfg.Observability.Metrics)
	repos := buildRepositories(deps.DB, deps.RedisClient)

	catalogSvc, err := newCatalogService(repos, appCfg.Catalog, logger, metrics)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build catalog service: %w", err)
	}

	bookingSvc, err := newBookingService(repos, appCfg.Booking, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build booking service: %w", err)
	}

	auth := BuildAuthService(AuthConfig{
		Auth:        appCfg.Auth,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})

	monitor := newSessionMonitor(auth, appCfg.SessionMonitor, deps.RedisClient, logger, metrics)

	return ServiceContainer{
		Auth:     auth,
		Catalog:  catalogSvc,
		Bookings: bookingSvc,
		Monitor:  monitor,
		Cache:    repos.CacheRepo,
		Metrics:  metrics,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	var httpServer *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			DB:       cfg.DB,
			Logger:   logger,
		})
	}

	var monitorDone <-chan struct{}
	if enabledServices[config.ServiceModeSessionMonitor] {
		monitorDone = startSessionMonitor(serviceCtx, cfg.Services.Monitor, logger, errCh)
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		monitorDone: monitorDone,
		logger:      logger,
	})
}

// startSessionMonitor launches the background re-validation loop.
func startSessionMonitor(
	ctx context.Context,
	monitor *service.SessionMonitor,
	logger *slog.Logger,
	errCh chan<- error,
) <-chan struct{} {
	if monitor == nil {
		logger.Warn("session monitor enabled but not built; skipping")
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := monitor.Run(ctx); err != nil {
			select {
			case errCh <- fmt.Errorf("session monitor failed: %w", err):
			case <-ctx.Done():
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", "session monitor")
	return done
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	monitorDone <-chan struct{}
	logger      *slog.Logger
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(cfg.ctx, shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	waitForService(cfg.monitorDone, "session monitor", cfg.logger)
	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
