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

func newCidMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCidRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCidMock(t)
	defer cleanup()
	repo := NewCidRepository(db)

	mock.ExpectQuery("INSERT INTO cids").
		WithArgs("QmAbc", "https://example.com/report", int64(42), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	cid := &models.Cid{Cid: "QmAbc", RefURL: "https://example.com/report", FilterID: 42}
	require.NoError(t, repo.Create(context.Background(), cid))
	assert.Equal(t, int64(5), cid.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCidRepositoryCountLocalOverlapExcludesCandidateFilter(t *testing.T) {
	db, mock, cleanup := newCidMock(t)
	defer cleanup()
	repo := NewCidRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT f\.id\) FROM filters f`).
		WithArgs(int64(7), int64(42), "QmAbc").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountLocalOverlap(context.Background(), 7, 42, "QmAbc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCidRepositoryCountRemoteOverlap(t *testing.T) {
	db, mock, cleanup := newCidMock(t)
	defer cleanup()
	repo := NewCidRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT f\.id\) FROM provider_filters pf`).
		WithArgs(int64(7), "QmAbc").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountRemoteOverlap(context.Background(), 7, "QmAbc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCidRepositoryUpdateReparents(t *testing.T) {
	db, mock, cleanup := newCidMock(t)
	defer cleanup()
	repo := NewCidRepository(db)

	mock.ExpectExec("UPDATE cids SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cid := &models.Cid{ID: 5, Cid: "QmAbc", FilterID: 43, CreatedAt: time.Now()}
	require.NoError(t, repo.Update(context.Background(), cid))
	assert.NoError(t, mock.ExpectationsWereMet())
}
