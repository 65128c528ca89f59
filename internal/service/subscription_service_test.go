package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type mockSubscriptionRepo struct {
	rows             map[[2]int64]*models.ProviderFilter
	byFilter         map[int64][]models.ProviderFilter
	updated          *models.ProviderFilter
	deleted          [][2]int64
	enabledCascades  []bool
	ownerUnsubscribe [][2]int64
}

func (m *mockSubscriptionRepo) Find(ctx context.Context, providerID, filterID int64) (*models.ProviderFilter, error) {
	if row, ok := m.rows[[2]int64{providerID, filterID}]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionRepo) ListByFilter(ctx context.Context, filterID int64) ([]models.ProviderFilter, error) {
	return m.byFilter[filterID], nil
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, row *models.ProviderFilter) error {
	row.ID = 99
	if m.rows == nil {
		m.rows = make(map[[2]int64]*models.ProviderFilter)
	}
	m.rows[[2]int64{row.ProviderID, row.FilterID}] = row
	return nil
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, row *models.ProviderFilter) error {
	m.updated = row
	return nil
}

func (m *mockSubscriptionRepo) Delete(ctx context.Context, providerID, filterID int64) error {
	m.deleted = append(m.deleted, [2]int64{providerID, filterID})
	return nil
}

func (m *mockSubscriptionRepo) SetEnabledForAll(ctx context.Context, filterID int64, enabled bool) error {
	m.enabledCascades = append(m.enabledCascades, enabled)
	return nil
}

func (m *mockSubscriptionRepo) UnsubscribeOwner(ctx context.Context, ownerID, filterID int64) error {
	m.ownerUnsubscribe = append(m.ownerUnsubscribe, [2]int64{ownerID, filterID})
	return nil
}

type mockSubscriptionFilters struct {
	filters map[int64]*models.Filter
}

func (m *mockSubscriptionFilters) FindByID(ctx context.Context, id int64) (*models.Filter, error) {
	if f, ok := m.filters[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionFilters) FindByShareID(ctx context.Context, shareID string) (*models.PublicFilterRow, error) {
	for _, f := range m.filters {
		if f.ShareID == shareID {
			return &models.PublicFilterRow{Filter: *f}, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockSubscriptionProviders struct {
	ids map[int64]bool
}

func (m *mockSubscriptionProviders) FindByID(ctx context.Context, id int64) (*models.Provider, error) {
	if m.ids[id] {
		return &models.Provider{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func newSubscriptionFixture() (*SubscriptionService, *mockSubscriptionRepo, *mockSubscriptionFilters) {
	repo := &mockSubscriptionRepo{rows: make(map[[2]int64]*models.ProviderFilter), byFilter: make(map[int64][]models.ProviderFilter)}
	filters := &mockSubscriptionFilters{filters: map[int64]*models.Filter{
		42: {ID: 42, Name: "bad-bits", ShareID: "a1b2c3d4", Visibility: models.VisibilityPublic, Enabled: true, ProviderID: 7},
		43: {ID: 43, Name: "internal", ShareID: "c3d4e5f6", Visibility: models.VisibilityPrivate, Enabled: true, ProviderID: 7},
	}}
	providers := &mockSubscriptionProviders{ids: map[int64]bool{7: true, 9: true}}
	svc := NewSubscriptionService(repo, filters, providers, validator.New(), zap.NewNop())
	return svc, repo, filters
}

func TestSubscriptionServiceSubscribe(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	row, err := svc.Subscribe(context.Background(), 9, 42, true, "imported for compliance")
	require.NoError(t, err)
	assert.True(t, row.Active)
	assert.Equal(t, "imported for compliance", row.Notes)
	assert.NotNil(t, repo.rows[[2]int64{9, 42}])
}

func TestSubscriptionServiceSubscribeInactiveOnRequest(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	row, err := svc.Subscribe(context.Background(), 9, 42, false, "want this inactive")
	require.NoError(t, err)
	assert.False(t, row.Active)
	require.NotNil(t, repo.rows[[2]int64{9, 42}])
	assert.False(t, repo.rows[[2]int64{9, 42}].Active)
}

func TestSubscriptionServiceSubscribeTwiceConflicts(t *testing.T) {
	svc, _, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), 9, 42, true, "")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), 9, 42, true, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubscriptionServiceSubscribeMissingFilter(t *testing.T) {
	svc, _, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), 9, 1000, true, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSubscriptionServiceUpdateForcesInactiveWhenOrphaned(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	// only the owner holds a ledger row, so the filter is orphaned
	repo.rows[[2]int64{7, 42}] = &models.ProviderFilter{ID: 1, ProviderID: 7, FilterID: 42, Active: false}
	repo.byFilter[42] = []models.ProviderFilter{{ID: 1, ProviderID: 7, FilterID: 42}}

	active := true
	row, err := svc.Update(context.Background(), 7, 42, models.SubscriptionPatch{Active: &active})
	require.NoError(t, err)
	assert.False(t, row.Active)
	require.NotNil(t, repo.updated)
	assert.False(t, repo.updated.Active)
}

func TestSubscriptionServiceUpdateAllowsActivationWithExternalSubscriber(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	repo.rows[[2]int64{9, 42}] = &models.ProviderFilter{ID: 2, ProviderID: 9, FilterID: 42, Active: false}
	repo.byFilter[42] = []models.ProviderFilter{
		{ID: 1, ProviderID: 7, FilterID: 42},
		{ID: 2, ProviderID: 9, FilterID: 42},
	}

	active := true
	notes := "re-enabled"
	row, err := svc.Update(context.Background(), 9, 42, models.SubscriptionPatch{Active: &active, Notes: &notes})
	require.NoError(t, err)
	assert.True(t, row.Active)
	assert.Equal(t, "re-enabled", row.Notes)
}

func TestSubscriptionServiceSetEnabledForAllRequiresOwner(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	err := svc.SetEnabledForAll(context.Background(), 9, 42, true)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.enabledCascades)

	require.NoError(t, svc.SetEnabledForAll(context.Background(), 7, 42, true))
	assert.Equal(t, []bool{true}, repo.enabledCascades)
}

func TestSubscriptionServiceUnsubscribeNonOwnerDeletesOwnRowOnly(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	repo.rows[[2]int64{9, 42}] = &models.ProviderFilter{ID: 2, ProviderID: 9, FilterID: 42, Active: true}

	require.NoError(t, svc.Unsubscribe(context.Background(), 9, 42))
	assert.Equal(t, [][2]int64{{9, 42}}, repo.deleted)
	assert.Empty(t, repo.ownerUnsubscribe)
}

func TestSubscriptionServiceUnsubscribeOwnerCascades(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	repo.rows[[2]int64{7, 42}] = &models.ProviderFilter{ID: 1, ProviderID: 7, FilterID: 42, Active: true}

	require.NoError(t, svc.Unsubscribe(context.Background(), 7, 42))
	assert.Equal(t, [][2]int64{{7, 42}}, repo.ownerUnsubscribe)
	assert.Empty(t, repo.deleted)
}

func TestSubscriptionServiceSubscribeByShareIDRejectsOwnFilter(t *testing.T) {
	svc, _, _ := newSubscriptionFixture()

	_, err := svc.SubscribeByShareID(context.Background(), 7, "a1b2c3d4", true, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubscriptionServiceSubscribeByShareIDHidesPrivateTokens(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture()

	// a private share token does not resolve for anyone but the owner
	_, err := svc.SubscribeByShareID(context.Background(), 9, "c3d4e5f6", true, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Nil(t, repo.rows[[2]int64{9, 43}])

	// a public token imports fine
	row, err := svc.SubscribeByShareID(context.Background(), 9, "a1b2c3d4", true, "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), row.FilterID)
}
