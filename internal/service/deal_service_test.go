package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
)

type mockDealRepo struct {
	covered map[string]bool
	created []models.Deal
}

func (m *mockDealRepo) Create(ctx context.Context, deal *models.Deal) error {
	deal.ID = int64(len(m.created) + 1)
	m.created = append(m.created, *deal)
	return nil
}

func (m *mockDealRepo) ListByProvider(ctx context.Context, providerID int64) ([]models.Deal, error) {
	return m.created, nil
}

func (m *mockDealRepo) IsCidCovered(ctx context.Context, providerID int64, value string) (bool, error) {
	return m.covered[value], nil
}

func TestDealServiceDecide(t *testing.T) {
	repo := &mockDealRepo{covered: map[string]bool{"QmBlocked": true}}
	svc := NewDealService(repo, zap.NewNop())

	deal, err := svc.Decide(context.Background(), 7, "QmBlocked")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusRejected, deal.Status)

	deal, err = svc.Decide(context.Background(), 7, "QmClean")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusAccepted, deal.Status)

	// both outcomes are recorded
	assert.Len(t, repo.created, 2)
}

func TestDealServiceDecideRequiresCid(t *testing.T) {
	svc := NewDealService(&mockDealRepo{}, zap.NewNop())

	_, err := svc.Decide(context.Background(), 7, "  ")
	require.Error(t, err)
}
