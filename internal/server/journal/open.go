package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/minsend/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var (
	sqlOpen        = sql.Open
	gooseUpContext = goose.UpContext
)

// Open returns a PostgreSQL journal for dsn after applying migrations, or an
// in-memory journal when dsn is empty.
func Open(ctx context.Context, dsn string) (Repository, error) {
	if dsn == "" {
		return NewInMemoryRepository(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	r := NewPostgresRepository(db)
	r.closer = db.Close

	return r, nil
}
