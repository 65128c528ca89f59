package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterhub/filterhub-api/internal/models"
)

func newFilterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func filterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "override", "visibility", "share_id", "enabled", "provider_id", "created_at", "updated_at"})
}

func TestFilterRepositoryCreateInsertsOwnerSubscription(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO filters").
		WithArgs("bad-bits", "known abuse", false, models.VisibilityPublic, "a1b2c3d4", true, int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery("INSERT INTO cids").
		WithArgs("QmAbc", "https://example.com/report", int64(42), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO provider_filters").
		WithArgs(int64(7), int64(42), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	filter := &models.Filter{
		Name:        "bad-bits",
		Description: "known abuse",
		Visibility:  models.VisibilityPublic,
		ShareID:     "a1b2c3d4",
		Enabled:     true,
		ProviderID:  7,
	}
	cids := []models.Cid{{Cid: "QmAbc", RefURL: "https://example.com/report"}}

	err := repo.Create(context.Background(), filter, cids)
	require.NoError(t, err)
	assert.Equal(t, int64(42), filter.ID)
	assert.Equal(t, int64(42), cids[0].FilterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryCreateRollsBackOnCidFailure(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO filters").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery("INSERT INTO cids").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	filter := &models.Filter{Name: "bad-bits", ShareID: "a1b2c3d4", ProviderID: 7}
	err := repo.Create(context.Background(), filter, []models.Cid{{Cid: "QmAbc"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositorySearchPublic(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM filters f JOIN providers p`).
		WithArgs(models.VisibilityPublic, "%abuse%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "override", "visibility", "share_id", "enabled", "provider_id", "created_at", "updated_at", "business_name", "country", "cids_count", "subs_count", "is_imported"}).
		AddRow(42, "bad-bits", "known abuse", false, models.VisibilityPublic, "a1b2c3d4", true, 7, now, now, "Acme Storage", "DE", 3, 2, true)
	mock.ExpectQuery(`SELECT f\.id, f\.name,`).
		WithArgs(models.VisibilityPublic, "%abuse%", int64(9)).
		WillReturnRows(rows)

	results, total, err := repo.SearchPublic(context.Background(), models.PublicSearchParams{
		ProviderID: 9,
		Query:      "Abuse",
		Page:       0,
		PerPage:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsImported)
	assert.Equal(t, int64(3), results[0].CidsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositorySearchDashboardDefaultsToActiveFirst(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM provider_filters pf`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "override", "visibility", "share_id", "enabled", "provider_id", "created_at", "updated_at", "subscription_active", "notes", "cids_count", "subs_count"}).
		AddRow(42, "bad-bits", "", false, models.VisibilityPublic, "a1b2c3d4", true, 7, now, now, true, "enforced since june", 3, 2).
		AddRow(43, "phishing", "", false, models.VisibilityPrivate, "e5f6a7b8", true, 9, now, now, false, "", 1, 1)
	mock.ExpectQuery(`ORDER BY pf\.active DESC, f\.name ASC, f\.id ASC`).
		WithArgs(int64(9)).
		WillReturnRows(rows)

	results, total, err := repo.SearchDashboard(context.Background(), models.DashboardSearchParams{ProviderID: 9})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.True(t, results[0].SubscriptionActive)
	assert.False(t, results[1].SubscriptionActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryDeleteRemovesChildrenFirst(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cids WHERE filter_id").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM provider_filters WHERE filter_id").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM filters WHERE id").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryShareIDExists(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	mock.ExpectQuery("SELECT 1 FROM filters WHERE share_id").
		WithArgs("a1b2c3d4").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ShareIDExists(context.Background(), "a1b2c3d4")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterRepositoryFindByName(t *testing.T) {
	db, mock, cleanup := newFilterMock(t)
	defer cleanup()
	repo := NewFilterRepository(db)

	now := time.Now()
	mock.ExpectQuery(`WHERE LOWER\(f\.name\) = LOWER\(\$1\)`).
		WithArgs("Bad-Bits").
		WillReturnRows(filterRows().AddRow(42, "bad-bits", "", false, models.VisibilityPublic, "a1b2c3d4", true, 7, now, now))

	filter, err := repo.FindByName(context.Background(), "Bad-Bits")
	require.NoError(t, err)
	assert.Equal(t, "bad-bits", filter.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
