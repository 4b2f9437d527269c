package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/minsend/internal/client/migrations"
	"github.com/dmitrijs2005/minsend/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DefaultKeep bounds the number of stored entries.
const DefaultKeep = 500

// History owns the database handle.
type History struct {
	db   *sql.DB
	keep int
	now  func() time.Time
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migrations: %w", err)
	}

	return &History{db: db, keep: DefaultKeep, now: time.Now}, nil
}

// Record adds an entry and prunes old ones in one transaction.
func (h *History) Record(ctx context.Context, server, action, name string, size int64) error {
	e := &Entry{Server: server, Action: action, Name: name, Size: size, CreatedAt: h.now()}

	return dbx.WithTx(ctx, h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		if err := r.Add(ctx, e); err != nil {
			return err
		}
		return r.Prune(ctx, h.keep)
	})
}

func (h *History) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	return NewSQLiteRepository(h.db).List(ctx, limit)
}

func (h *History) Close() error {
	return h.db.Close()
}
