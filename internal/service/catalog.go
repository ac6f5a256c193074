package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/core"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
	"github.com/atlastours/agency-api/internal/observability/metrics"
	"github.com/atlastours/agency-api/internal/observability/statsd"
	"github.com/atlastours/agency-api/internal/store"
)

// Source identifies which tier served a fetch.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

// FetchResult is the uniform envelope returned by the facade. A degraded
// response (store or fallback tier) is still Success=true so callers never
// need a special error branch; Source tells telemetry and tests apart.
type FetchResult struct {
	Success bool            `json:"success"`
	Source  Source          `json:"source"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// CatalogConfig holds the timing and sizing policy for the catalog facade.
type CatalogConfig struct {
	// FetchTimeout bounds one live fetch attempt.
	FetchTimeout time.Duration
	// TTLs maps collection name to cache TTL. Freshness requirements differ
	// per collection, so the TTL is configuration, not a universal constant.
	TTLs map[string]time.Duration
	// ListLimit caps rows returned per collection fetch.
	ListLimit int
}

// DefaultCatalogConfig returns the standard facade policy.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		FetchTimeout: 30 * time.Second,
		TTLs: map[string]time.Duration{
			catalog.CollectionPackages:     10 * time.Minute,
			catalog.CollectionDestinations: 15 * time.Minute,
			catalog.CollectionServices:     15 * time.Minute,
		},
		ListLimit: 200,
	}
}

// TTLFor returns the cache TTL for a collection, defaulting to 10 minutes.
func (c CatalogConfig) TTLFor(collection string) time.Duration {
	if ttl, ok := c.TTLs[collection]; ok && ttl > 0 {
		return ttl
	}
	return 10 * time.Minute
}

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	Packages     core.PackageRepository
	Destinations core.DestinationRepository
	Services     core.ServiceRepository
	Cache        core.CacheRepository // Required: TTL cache tier
	Store        *store.Store         // Required: last-good-data tier
	Fallback     *catalog.Fallback    // Required: bundled dataset tier
	Config       *CatalogConfig
	Logger       *slog.Logger
	Metrics      statsd.Sink // Optional
}

// CatalogService serves named catalog collections with bounded waits and a
// strict tier order: TTL cache, live repositories, last good data, bundled
// fallback. Reads prioritize availability over freshness; only writes talk
// to the database directly.
type CatalogService struct {
	packages     core.PackageRepository
	destinations core.DestinationRepository
	services     core.ServiceRepository
	cache        core.CacheRepository
	store        *store.Store
	fallback     *catalog.Fallback
	cfg          CatalogConfig
	logger       *slog.Logger
	metrics      statsd.Sink

	// fetches coalesces concurrent live fetches for the same collection.
	fetches singleflight.Group
}

// NewCatalogService constructs a new CatalogService.
func NewCatalogService(opts CatalogServiceOptions) (*CatalogService, error) {
	if opts.Cache == nil {
		return nil, errors.New("CacheRepository is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}
	if opts.Fallback == nil {
		return nil, errors.New("Fallback is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		defaultCfg := DefaultCatalogConfig()
		opts.Config = &defaultCfg
	}

	return &CatalogService{
		packages:     opts.Packages,
		destinations: opts.Destinations,
		services:     opts.Services,
		cache:        opts.Cache,
		store:        opts.Store,
		fallback:     opts.Fallback,
		cfg:          *opts.Config,
		logger:       opts.Logger.With("component", "catalog"),
		metrics:      opts.Metrics,
	}, nil
}

// FetchCollection returns the named collection from the freshest tier that
// can serve it. The returned error is non-nil only when every tier failed,
// including the bundled fallback.
func (s *CatalogService) FetchCollection(ctx context.Context, name string, forceRefresh bool) (FetchResult, error) {
	start := time.Now()
	collection := strings.ToLower(strings.TrimSpace(name))

	if !s.knownCollection(collection) {
		return FetchResult{}, apperrors.NotFoundf("unknown collection %q", name)
	}

	if !forceRefresh {
		if cached := s.fromCache(ctx, collection); cached != nil {
			s.emitFetch(collection, SourceCache, metrics.ResultSuccess, start, nil)
			return FetchResult{Success: true, Source: SourceCache, Data: cached}, nil
		}
	}

	v, err, _ := s.fetches.Do(collection, func() (any, error) {
		return s.fetchWithFallback(ctx, collection)
	})
	if err != nil {
		s.emitFetch(collection, "", metrics.ResultError, start, err)
		return FetchResult{}, err
	}

	result, ok := v.(FetchResult)
	if !ok {
		return FetchResult{}, errors.New("unexpected fetch result type")
	}

	outcome := metrics.ResultSuccess
	if result.Source != SourceLive {
		outcome = metrics.ResultDegraded
	}
	s.emitFetch(collection, result.Source, outcome, start, nil)
	return result, nil
}

// Loading reports whether a live fetch is currently in flight for a collection.
func (s *CatalogService) Loading(name string) bool {
	return s.store.Loading(strings.ToLower(strings.TrimSpace(name)))
}

// Collections lists the collection names the facade can serve.
func (s *CatalogService) Collections() []string {
	return catalog.Collections()
}

// fetchWithFallback runs the live fetch and walks the degraded tiers on
// failure. The loading flag covers only the live attempt and is cleared
// unconditionally so it can never stick.
func (s *CatalogService) fetchWithFallback(ctx context.Context, collection string) (FetchResult, error) {
	s.store.SetLoading(collection, true)
	defer s.store.SetLoading(collection, false)

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	payload, err := s.fetchLive(fetchCtx, collection)
	if err == nil {
		s.writeThrough(ctx, collection, payload)
		return FetchResult{Success: true, Source: SourceLive, Data: payload}, nil
	}

	s.logger.Warn("live fetch failed, serving degraded data",
		"collection", collection, "error", err)

	if entry, ok := s.store.Collection(collection); ok && len(entry.Data) > 0 {
		return FetchResult{Success: true, Source: SourceStore, Data: entry.Data}, nil
	}

	fallbackData, fbErr := s.fallback.Collection(collection)
	if fbErr == nil {
		return FetchResult{Success: true, Source: SourceFallback, Data: fallbackData}, nil
	}
	s.logger.Error("fallback dataset unavailable",
		"collection", collection, "error", fbErr)

	return FetchResult{}, apperrors.Wrapf(err, apperrors.ErrCodeUnavailable,
		"collection %q unavailable from every tier", collection)
}

// fetchLive queries the live repository for a collection and encodes the
// rows as a JSON array.
func (s *CatalogService) fetchLive(ctx context.Context, collection string) (json.RawMessage, error) {
	active := true

	var rows any
	var err error
	switch collection {
	case catalog.CollectionPackages:
		if s.packages == nil {
			return nil, errors.New("package repository is not configured")
		}
		rows, err = s.packages.List(ctx, model.PackagesListOptions{
			Active: &active, Limit: s.cfg.ListLimit,
		})
	case catalog.CollectionDestinations:
		if s.destinations == nil {
			return nil, errors.New("destination repository is not configured")
		}
		rows, err = s.destinations.List(ctx, model.DestinationsListOptions{
			Active: &active, Limit: s.cfg.ListLimit,
		})
	case catalog.CollectionServices:
		if s.services == nil {
			return nil, errors.New("service repository is not configured")
		}
		rows, err = s.services.List(ctx, model.ServicesListOptions{
			Active: &active, Limit: s.cfg.ListLimit,
		})
	default:
		return nil, fmt.Errorf("no fetcher for collection %q", collection)
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode collection %q: %w", collection, err)
	}
	return payload, nil
}

// writeThrough records a successful live fetch in the cache and the store.
// Cache failures are logged, not surfaced: the caller already has the data.
func (s *CatalogService) writeThrough(ctx context.Context, collection string, payload json.RawMessage) {
	if err := s.cache.Set(ctx, cacheKey(collection), payload, s.cfg.TTLFor(collection)); err != nil {
		s.logger.Warn("cache write failed", "collection", collection, "error", err)
	}
	s.store.SetCollection(collection, payload, true)
}

func (s *CatalogService) fromCache(ctx context.Context, collection string) json.RawMessage {
	cached, err := s.cache.Get(ctx, cacheKey(collection))
	if err != nil {
		s.logger.Warn("cache read failed", "collection", collection, "error", err)
		return nil
	}
	return cached
}

// InvalidateCollection drops the cached copy of a collection, forcing the
// next read through to the live tier. Called after admin writes.
func (s *CatalogService) InvalidateCollection(ctx context.Context, name string) {
	collection := strings.ToLower(strings.TrimSpace(name))
	if _, err := s.cache.Delete(ctx, cacheKey(collection)); err != nil {
		s.logger.Warn("cache invalidation failed", "collection", collection, "error", err)
	}
}

func (s *CatalogService) knownCollection(collection string) bool {
	switch collection {
	case catalog.CollectionPackages, catalog.CollectionDestinations, catalog.CollectionServices:
		return true
	default:
		return false
	}
}

func (s *CatalogService) emitFetch(collection string, source Source, result string, start time.Time, err error) {
	metrics.EmitFetch(s.metrics, metrics.FetchMetric{
		Collection: collection,
		Source:     string(source),
		Result:     result,
		Duration:   time.Since(start),
		Err:        err,
	})
}

func cacheKey(collection string) string {
	return "catalog:" + collection
}
