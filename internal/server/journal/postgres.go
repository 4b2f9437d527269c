package journal

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/minsend/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
	// closer is nil when the repository does not own the connection.
	closer func() error
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, e *Entry) error {
	query :=
		`INSERT INTO transfers (identity, action, name, size)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		e.Identity, string(e.Action), e.Name, e.Size).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, identity string, limit int) ([]*Entry, error) {
	query :=
		`SELECT id, identity, action, name, size, created_at FROM transfers
		 WHERE identity = $1
		 ORDER BY id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		var action string
		if err := rows.Scan(&e.ID, &e.Identity, &action, &e.Name, &e.Size, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

var _ Repository = (*PostgresRepository)(nil)
