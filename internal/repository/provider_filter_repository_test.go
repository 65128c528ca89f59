package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterhub/filterhub-api/internal/models"
)

func newProviderFilterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProviderFilterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newProviderFilterMock(t)
	defer cleanup()
	repo := NewProviderFilterRepository(db)

	mock.ExpectQuery("INSERT INTO provider_filters").
		WithArgs(int64(9), int64(42), true, "watch closely", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	row := &models.ProviderFilter{ProviderID: 9, FilterID: 42, Active: true, Notes: "watch closely"}
	require.NoError(t, repo.Create(context.Background(), row))
	assert.Equal(t, int64(11), row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderFilterRepositorySetEnabledForAllCascades(t *testing.T) {
	db, mock, cleanup := newProviderFilterMock(t)
	defer cleanup()
	repo := NewProviderFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE filters SET enabled").
		WithArgs(int64(42), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE provider_filters SET active").
		WithArgs(int64(42), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.SetEnabledForAll(context.Background(), 42, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderFilterRepositoryUnsubscribeOwnerDisablesFilter(t *testing.T) {
	db, mock, cleanup := newProviderFilterMock(t)
	defer cleanup()
	repo := NewProviderFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM provider_filters WHERE provider_id").
		WithArgs(int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE provider_filters SET active = false").
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE filters SET enabled = false").
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UnsubscribeOwner(context.Background(), 7, 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderFilterRepositoryUnsubscribeOwnerRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newProviderFilterMock(t)
	defer cleanup()
	repo := NewProviderFilterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM provider_filters WHERE provider_id").
		WithArgs(int64(7), int64(42)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, repo.UnsubscribeOwner(context.Background(), 7, 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
