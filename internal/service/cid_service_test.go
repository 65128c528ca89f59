package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type mockCidRepo struct {
	cids        map[int64]*models.Cid
	localCounts map[string]int64
	remoteCount int64
	updated     *models.Cid
	deleted     []int64
}

func (m *mockCidRepo) Create(ctx context.Context, cid *models.Cid) error {
	cid.ID = 5
	if m.cids == nil {
		m.cids = make(map[int64]*models.Cid)
	}
	m.cids[cid.ID] = cid
	return nil
}

func (m *mockCidRepo) FindByID(ctx context.Context, id int64) (*models.Cid, error) {
	if c, ok := m.cids[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCidRepo) ListByFilter(ctx context.Context, filterID int64) ([]models.Cid, error) {
	var out []models.Cid
	for _, c := range m.cids {
		if c.FilterID == filterID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCidRepo) Update(ctx context.Context, cid *models.Cid) error {
	m.updated = cid
	return nil
}

func (m *mockCidRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCidRepo) CountLocalOverlap(ctx context.Context, providerID, excludeFilterID int64, value string) (int64, error) {
	return m.localCounts[strings.ToLower(value)], nil
}

func (m *mockCidRepo) CountRemoteOverlap(ctx context.Context, providerID int64, value string) (int64, error) {
	return m.remoteCount, nil
}

type mockCidFilters struct {
	owned map[int64]int64 // filter id -> owner provider id
}

func (m *mockCidFilters) FindByID(ctx context.Context, id int64) (*models.Filter, error) {
	if owner, ok := m.owned[id]; ok {
		return &models.Filter{ID: id, ProviderID: owner}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCidFilters) FindOwned(ctx context.Context, id, providerID int64) (*models.Filter, error) {
	if owner, ok := m.owned[id]; ok && owner == providerID {
		return &models.Filter{ID: id, ProviderID: providerID}, nil
	}
	return nil, sql.ErrNoRows
}

func newCidFixture() (*CidService, *mockCidRepo, *mockCidFilters) {
	repo := &mockCidRepo{cids: make(map[int64]*models.Cid), localCounts: make(map[string]int64)}
	filters := &mockCidFilters{owned: map[int64]int64{42: 7, 43: 7, 50: 9}}
	svc := NewCidService(repo, filters, validator.New(), zap.NewNop())
	return svc, repo, filters
}

func TestCidServiceCreateRequiresOwnership(t *testing.T) {
	svc, _, _ := newCidFixture()

	_, err := svc.Create(context.Background(), 9, 42, models.CidInput{Cid: "QmAbc"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	cid, err := svc.Create(context.Background(), 7, 42, models.CidInput{Cid: "QmAbc"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), cid.FilterID)
}

func TestCidServiceCreateRejectsEmptyValue(t *testing.T) {
	svc, _, _ := newCidFixture()

	_, err := svc.Create(context.Background(), 7, 42, models.CidInput{Cid: "   "})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCidServiceAppendIdentifierBypassesOwnership(t *testing.T) {
	svc, repo, _ := newCidFixture()

	// filter 50 belongs to provider 9; the append hook has no acting provider
	cid, err := svc.AppendIdentifier(context.Background(), 50, "QmFlagged")
	require.NoError(t, err)
	assert.Equal(t, int64(50), cid.FilterID)
	assert.NotNil(t, repo.cids[cid.ID])

	_, err = svc.AppendIdentifier(context.Background(), 1000, "QmFlagged")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.AppendIdentifier(context.Background(), 50, "  ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCidServiceMoveBetweenOwnedFilters(t *testing.T) {
	svc, repo, _ := newCidFixture()
	repo.cids[5] = &models.Cid{ID: 5, Cid: "QmAbc", FilterID: 42}

	cid, err := svc.Move(context.Background(), 7, 5, 43)
	require.NoError(t, err)
	assert.Equal(t, int64(43), cid.FilterID)

	// destination owned by someone else
	_, err = svc.Move(context.Background(), 7, 5, 50)
	require.Error(t, err)
}

func TestCidServiceCheckConflictValidatesEachField(t *testing.T) {
	svc, _, _ := newCidFixture()

	_, err := svc.CheckConflict(context.Background(), 7, 0, "QmAbc")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "filterId")

	_, err = svc.CheckConflict(context.Background(), 0, 42, "QmAbc")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "providerId")

	_, err = svc.CheckConflict(context.Background(), 7, 42, " ")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "cid")
}

func TestCidServiceCheckConflictIsCaseInsensitive(t *testing.T) {
	svc, repo, _ := newCidFixture()
	repo.localCounts["qmabc"] = 2
	repo.remoteCount = 1

	lower, err := svc.CheckConflict(context.Background(), 7, 42, "qmabc")
	require.NoError(t, err)
	upper, err := svc.CheckConflict(context.Background(), 7, 42, "QMABC")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
	assert.Equal(t, int64(2), lower.Local)
	assert.Equal(t, int64(1), lower.Remote)
}

func TestCidServiceDelete(t *testing.T) {
	svc, repo, _ := newCidFixture()
	repo.cids[5] = &models.Cid{ID: 5, Cid: "QmAbc", FilterID: 42}

	require.NoError(t, svc.Delete(context.Background(), 7, 5))
	assert.Equal(t, []int64{5}, repo.deleted)

	err := svc.Delete(context.Background(), 9, 5)
	require.Error(t, err)
}
