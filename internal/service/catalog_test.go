package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastours/agency-api/internal/catalog"
	"github.com/atlastours/agency-api/internal/data"
	"github.com/atlastours/agency-api/internal/domain/model"
	apperrors "github.com/atlastours/agency-api/internal/errors"
	"github.com/atlastours/agency-api/internal/store"
)

// stubPackageRepo counts List calls and serves canned rows or a canned error.
type stubPackageRepo struct {
	rows      []*model.TourPackage
	err       error
	listCalls int
}

func (r *stubPackageRepo) Create(_ context.Context, req *model.CreatePackageRequest) (*model.TourPackage, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pkg := &model.TourPackage{
		ID:         fmt.Sprintf("pkg-%d", len(r.rows)+1),
		Title:      req.Title,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Active:     active,
	}
	r.rows = append(r.rows, pkg)
	return pkg, nil
}

func (r *stubPackageRepo) GetByID(_ context.Context, id string) (*model.TourPackage, error) {
	for _, pkg := range r.rows {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return nil, data.ErrPackageNotFound
}

func (r *stubPackageRepo) List(context.Context, model.PackagesListOptions) ([]*model.TourPackage, error) {
	r.listCalls++
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

func (r *stubPackageRepo) Update(ctx context.Context, id string, req model.UpdatePackageRequest) (*model.TourPackage, error) {
	pkg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		pkg.Title = *req.Title
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}
	return pkg, nil
}

func (r *stubPackageRepo) Delete(_ context.Context, id string) (bool, error) {
	for i, pkg := range r.rows {
		if pkg.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubDestinationRepo struct {
	rows      []*model.Destination
	err       error
	listCalls int
}

func (r *stubDestinationRepo) Create(context.Context, *model.CreateDestinationRequest) (*model.Destination, error) {
	return nil, errors.New("not implemented")
}

func (r *stubDestinationRepo) GetByID(context.Context, string) (*model.Destination, error) {
	return nil, errors.New("not implemented")
}

func (r *stubDestinationRepo) List(context.Context, model.DestinationsListOptions) ([]*model.Destination, error) {
	r.listCalls++
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

func (r *stubDestinationRepo) Update(context.Context, string, model.UpdateDestinationRequest) (*model.Destination, error) {
	return nil, errors.New("not implemented")
}

func (r *stubDestinationRepo) Delete(context.Context, string) (bool, error) {
	return false, errors.New("not implemented")
}

type catalogFixture struct {
	service      *CatalogService
	packages     *stubPackageRepo
	destinations *stubDestinationRepo
	store        *store.Store
	clock        *data.FixedTimeProvider
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	clock := data.NewFixedTimeProvider(time.Now())
	packages := &stubPackageRepo{
		rows: []*model.TourPackage{
			{ID: "pkg-1", Title: "Sahara Caravan", PriceCents: 129900, Currency: "USD", Active: true},
		},
	}
	destinations := &stubDestinationRepo{
		rows: []*model.Destination{
			{ID: "dest-1", Name: "Marrakech", Country: "Morocco", Active: true},
		},
	}
	st := store.New()

	svc, err := NewCatalogService(CatalogServiceOptions{
		Packages:     packages,
		Destinations: destinations,
		Cache:        data.NewMemoryCacheRepoWithTimeProvider(clock),
		Store:        st,
		Fallback:     catalog.NewFallback(),
	})
	require.NoError(t, err)

	return &catalogFixture{
		service:      svc,
		packages:     packages,
		destinations: destinations,
		store:        st,
		clock:        clock,
	}
}

func TestCatalogService_LiveFetchPopulatesCacheAndStore(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	result, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourceLive, result.Source)
	assert.Contains(t, string(result.Data), "Sahara Caravan")
	assert.Equal(t, 1, f.packages.listCalls)

	entry, ok := f.store.Collection("packages")
	require.True(t, ok)
	assert.True(t, entry.FromLive)
}

func TestCatalogService_CachedEntrySkipsNetwork(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.FetchCollection(ctx, "destinations", false)
	require.NoError(t, err)
	require.Equal(t, 1, f.destinations.listCalls)

	result, err := f.service.FetchCollection(ctx, "destinations", false)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, result.Source)
	assert.Contains(t, string(result.Data), "Marrakech")
	assert.Equal(t, 1, f.destinations.listCalls, "a fresh cache entry issues zero repository calls")
}

func TestCatalogService_ExpiredCacheGoesBackToLive(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	require.Equal(t, 1, f.packages.listCalls)

	f.clock.AddTime(10 * time.Minute)

	result, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, result.Source)
	assert.Equal(t, 2, f.packages.listCalls)
}

func TestCatalogService_ForceRefreshBypassesCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)

	result, err := f.service.FetchCollection(ctx, "packages", true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, result.Source)
	assert.Equal(t, 2, f.packages.listCalls)
}

func TestCatalogService_StoreTierServesLastGoodData(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	first, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	require.Equal(t, SourceLive, first.Source)

	// Backend goes down; force refresh so the cache tier is skipped.
	f.packages.err = errors.New("connection refused")

	result, err := f.service.FetchCollection(ctx, "packages", true)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourceStore, result.Source)
	assert.JSONEq(t, string(first.Data), string(result.Data))
}

func TestCatalogService_FallbackChainEndsAtBundledData(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	// Cold start with a dead backend: no cache, empty store.
	f.packages.err = errors.New("connection refused")

	result, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err, "the fallback tier is returned as a success")
	assert.True(t, result.Success)
	assert.Equal(t, SourceFallback, result.Source)

	expected, fbErr := catalog.NewFallback().Collection("packages")
	require.NoError(t, fbErr)
	assert.JSONEq(t, string(expected), string(result.Data))
}

func TestCatalogService_LoadingFlagClearsAfterFailure(t *testing.T) {
	f := newCatalogFixture(t)
	f.packages.err = errors.New("connection refused")

	_, err := f.service.FetchCollection(context.Background(), "packages", false)
	require.NoError(t, err)
	assert.False(t, f.service.Loading("packages"), "loading can never stick after a fetch")
}

func TestCatalogService_UnknownCollection(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.FetchCollection(context.Background(), "bookings", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogService_InvalidateForcesLiveRead(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	require.Equal(t, 1, f.packages.listCalls)

	f.service.InvalidateCollection(ctx, "packages")

	result, err := f.service.FetchCollection(ctx, "packages", false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, result.Source)
	assert.Equal(t, 2, f.packages.listCalls)
}

func TestCatalogService_NameNormalization(t *testing.T) {
	f := newCatalogFixture(t)

	result, err := f.service.FetchCollection(context.Background(), "  Packages ", false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, result.Source)
}
