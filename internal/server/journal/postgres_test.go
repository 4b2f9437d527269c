package journal

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+transfers\s*\(identity,\s*action,\s*name,\s*size\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	recentQ = `(?s)^SELECT\s+id,\s*identity,\s*action,\s*name,\s*size,\s*created_at\s+FROM\s+transfers\s+WHERE\s+identity\s*=\s*\$1\s+ORDER\s+BY\s+id\s+DESC\s+LIMIT\s+\$2\s*$`
)

func TestRecord_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "upload", "a.txt", int64(17)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), at))

	e := &Entry{Identity: "alice", Action: ActionUpload, Name: "a.txt", Size: 17}
	require.NoError(t, repo.Record(context.Background(), e))
	assert.Equal(t, int64(7), e.ID)
	assert.Equal(t, at, e.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Record(context.Background(), &Entry{Identity: "a", Action: ActionDelete, Name: "x"})
	require.ErrorContains(t, err, "db error: db down")
}

func TestRecent_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "identity", "action", "name", "size", "created_at"}).
		AddRow(int64(2), "bob", "delete", "b.txt", int64(0), at).
		AddRow(int64(1), "bob", "upload", "a.txt", int64(5), at)
	mock.ExpectQuery(recentQ).WithArgs("bob", 10).WillReturnRows(rows)

	got, err := repo.Recent(context.Background(), "bob", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &Entry{ID: 2, Identity: "bob", Action: ActionDelete, Name: "b.txt", CreatedAt: at}, got[0])
	assert.Equal(t, ActionUpload, got[1].Action)
	assert.Equal(t, int64(5), got[1].Size)
}

func TestRecent_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(recentQ).WithArgs("bob", 5).WillReturnError(errors.New("timeout"))

	_, err := repo.Recent(context.Background(), "bob", 5)
	require.ErrorContains(t, err, "db error: timeout")
}

func TestRecent_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "identity", "action", "name", "size", "created_at"}).
		AddRow("not-a-number", "bob", "delete", "b.txt", int64(0), time.Now())
	mock.ExpectQuery(recentQ).WithArgs("bob", 5).WillReturnRows(rows)

	_, err := repo.Recent(context.Background(), "bob", 5)
	require.ErrorContains(t, err, "db error")
}

func TestRecent_RowsError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "identity", "action", "name", "size", "created_at"}).
		AddRow(int64(1), "bob", "delete", "b.txt", int64(0), time.Now()).
		RowError(0, errors.New("broken row"))
	mock.ExpectQuery(recentQ).WithArgs("bob", 5).WillReturnRows(rows)

	_, err := repo.Recent(context.Background(), "bob", 5)
	require.ErrorContains(t, err, "broken row")
}

func TestPostgresRepository_CloseWithoutOwner(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()
	require.NoError(t, repo.Close())
}
