package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
)

type mockDashboardRepo struct {
	rows       []models.DashboardFilterRow
	total      int
	lastSearch models.DashboardSearchParams
	listCalls  int
}

func (m *mockDashboardRepo) SearchDashboard(ctx context.Context, params models.DashboardSearchParams) ([]models.DashboardFilterRow, int, error) {
	m.lastSearch = params
	return m.rows, m.total, nil
}

func (m *mockDashboardRepo) ListDashboardAll(ctx context.Context, providerID int64) ([]models.DashboardFilterRow, error) {
	m.listCalls++
	return m.rows, nil
}

func TestDashboardServiceStatsRollups(t *testing.T) {
	repo := &mockDashboardRepo{rows: []models.DashboardFilterRow{
		// owned, enabled, active: counts toward currently filtering, and the
		// subs_count of 3 includes the owner's own ledger row
		{Filter: models.Filter{ID: 1, ProviderID: 7, Enabled: true, Visibility: models.VisibilityPublic}, SubscriptionActive: true, CidsCount: 10, SubsCount: 3},
		// owned but disabled in the catalog: active subscription alone is not enough
		{Filter: models.Filter{ID: 2, ProviderID: 7, Enabled: false, Visibility: models.VisibilityPrivate}, SubscriptionActive: true, CidsCount: 4, SubsCount: 1},
		// imported and paused
		{Filter: models.Filter{ID: 3, ProviderID: 9, Enabled: true, Visibility: models.VisibilityThirdParty}, SubscriptionActive: false, CidsCount: 6, SubsCount: 2},
		// imported and running
		{Filter: models.Filter{ID: 4, ProviderID: 9, Enabled: true, Visibility: models.VisibilityNone}, SubscriptionActive: true, CidsCount: 5, SubsCount: 2},
	}}
	svc := NewDashboardService(repo, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Stats(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(15), stats.CurrentlyFiltering)
	assert.Equal(t, int64(3), stats.ActiveFilters)
	assert.Equal(t, int64(1), stats.InactiveFilters)
	assert.Equal(t, int64(2), stats.ImportedFilters)
	assert.Equal(t, int64(2), stats.ExternalSubscribers)
	assert.Equal(t, int64(1), stats.PublicFilters)
	assert.Equal(t, int64(1), stats.PrivateFilters)
	assert.Equal(t, int64(1), stats.ThirdPartyFilters)
	assert.Equal(t, int64(1), stats.NoneFilters)
}

func TestDashboardServiceStatsUsesCache(t *testing.T) {
	repo := &mockDashboardRepo{}
	cache := &mockCache{}
	svc := NewDashboardService(repo, cache, zap.NewNop(), time.Minute)

	_, err := svc.Stats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, repo.listCalls)
}

func TestDashboardServiceSearch(t *testing.T) {
	repo := &mockDashboardRepo{
		rows:  []models.DashboardFilterRow{{Filter: models.Filter{ID: 1, Name: "bad-bits"}}},
		total: 1,
	}
	svc := NewDashboardService(repo, nil, zap.NewNop(), time.Minute)

	result, err := svc.Search(context.Background(), models.DashboardSearchParams{ProviderID: 7, Query: "bad"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Len(t, result.Filters, 1)
	assert.Equal(t, "bad", repo.lastSearch.Query)
}

func TestDashboardServiceSearchReturnsEmptySlice(t *testing.T) {
	svc := NewDashboardService(&mockDashboardRepo{}, nil, zap.NewNop(), time.Minute)

	result, err := svc.Search(context.Background(), models.DashboardSearchParams{ProviderID: 7})
	require.NoError(t, err)
	assert.NotNil(t, result.Filters)
	assert.Empty(t, result.Filters)
}
