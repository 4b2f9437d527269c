package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db))
	return db
}

func TestSQLiteRepository_AddList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	at := time.Unix(1700000000, 0)
	for _, n := range []string{"a", "b", "c"} {
		e := &Entry{Server: "s:1", Action: "upload", Name: n, Size: 3, CreatedAt: at}
		require.NoError(t, r.Add(ctx, e))
		assert.NotZero(t, e.ID)
	}

	got, err := r.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, at.Unix(), got[0].CreatedAt.Unix())
	assert.Equal(t, "s:1", got[0].Server)
	assert.Equal(t, int64(3), got[0].Size)
}

func TestSQLiteRepository_Prune(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Add(ctx, &Entry{Server: "s", Action: "delete", Name: string(rune('a' + i)), CreatedAt: time.Now()}))
	}
	require.NoError(t, r.Prune(ctx, 2))

	got, err := r.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e", got[0].Name)
	assert.Equal(t, "d", got[1].Name)
}

func TestSQLiteRepository_ErrorsWithoutTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.ErrorContains(t, r.Add(ctx, &Entry{}), "failed to insert history")
	_, err = r.List(ctx, 1)
	require.ErrorContains(t, err, "error selecting history")
	require.ErrorContains(t, r.Prune(ctx, 1), "failed to prune history")
}

func TestEntry_String(t *testing.T) {
	e := &Entry{Server: "h:1", Action: "upload", Name: "a.txt", Size: 12, CreatedAt: time.Unix(0, 0)}
	s := e.String()
	assert.Contains(t, s, "upload a.txt (12 bytes) @ h:1")
}
