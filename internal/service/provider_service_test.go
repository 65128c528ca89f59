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

type mockProviderRepo struct {
	providers map[int64]*models.Provider
	configs   map[int64]*models.ProviderConfig
	cascaded  []int64
	upserted  *models.ProviderConfig
}

func (m *mockProviderRepo) FindByID(ctx context.Context, id int64) (*models.Provider, error) {
	if p, ok := m.providers[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProviderRepo) FindByWallet(ctx context.Context, wallet string) (*models.Provider, error) {
	for _, p := range m.providers {
		if p.WalletAddress == wallet {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProviderRepo) Update(ctx context.Context, provider *models.Provider) error {
	m.providers[provider.ID] = provider
	return nil
}

func (m *mockProviderRepo) GetConfig(ctx context.Context, providerID int64) (*models.ProviderConfig, error) {
	if cfg, ok := m.configs[providerID]; ok {
		copied := *cfg
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProviderRepo) UpsertConfig(ctx context.Context, cfg *models.ProviderConfig) error {
	m.upserted = cfg
	return nil
}

func (m *mockProviderRepo) DeleteCascade(ctx context.Context, providerID int64) error {
	m.cascaded = append(m.cascaded, providerID)
	return nil
}

func newProviderFixture() (*ProviderService, *mockProviderRepo) {
	repo := &mockProviderRepo{
		providers: map[int64]*models.Provider{
			7: {ID: 7, WalletAddress: "f1abc", Email: "ops@acme.test", BusinessName: "Acme Storage"},
			9: {ID: 9, WalletAddress: "f1def", Email: "ops@other.test"},
		},
		configs: make(map[int64]*models.ProviderConfig),
	}
	svc := NewProviderService(repo, validator.New(), zap.NewNop())
	return svc, repo
}

func TestProviderServiceDeleteRequiresSelf(t *testing.T) {
	svc, repo := newProviderFixture()

	err := svc.Delete(context.Background(), 7, "f1def")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.cascaded)

	require.NoError(t, svc.Delete(context.Background(), 7, "f1abc"))
	assert.Equal(t, []int64{7}, repo.cascaded)
}

func TestProviderServiceDeleteUnknownWallet(t *testing.T) {
	svc, _ := newProviderFixture()

	err := svc.Delete(context.Background(), 7, "f1missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestProviderServiceGetConfigDefaults(t *testing.T) {
	svc, repo := newProviderFixture()

	cfg, err := svc.GetConfig(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.ProviderID)
	assert.False(t, cfg.Bitscreen)

	repo.configs[7] = &models.ProviderConfig{ID: 3, ProviderID: 7, Bitscreen: true}
	cfg, err = svc.GetConfig(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, cfg.Bitscreen)
}

func TestProviderServiceUpdateConfigPinsProviderID(t *testing.T) {
	svc, repo := newProviderFixture()

	cfg, err := svc.UpdateConfig(context.Background(), 7, models.ProviderConfig{ProviderID: 999, ShareEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.ProviderID)
	require.NotNil(t, repo.upserted)
	assert.True(t, repo.upserted.ShareEnabled)
}

func TestProviderServiceUpdateRejectsBadEmail(t *testing.T) {
	svc, _ := newProviderFixture()

	_, err := svc.Update(context.Background(), 7, ProviderUpdateRequest{Email: "not-an-email"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
