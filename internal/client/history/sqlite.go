// Package history keeps the client's own record of transfers (uploads,
// deletes, shares and received files) in a local SQLite database.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/minsend/internal/dbx"
)

type Entry struct {
	ID        int64
	Server    string
	Action    string
	Name      string
	Size      int64
	CreatedAt time.Time
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %-6s %s (%d bytes) @ %s",
		e.CreatedAt.Local().Format(time.DateTime), e.Action, e.Name, e.Size, e.Server)
}

type Repository interface {
	Add(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]*Entry, error)
	Prune(ctx context.Context, keep int) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, e *Entry) error {
	query := `INSERT INTO history (server, action, name, size, created_at) VALUES (?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, e.Server, e.Action, e.Name, e.Size, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history id: %w", err)
	}
	e.ID = id

	return nil
}

// List returns up to limit entries, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `select id, server, action, name, size, created_at from history order by id desc limit ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error selecting history: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		var at int64
		if err := rows.Scan(&e.ID, &e.Server, &e.Action, &e.Name, &e.Size, &at); err != nil {
			return nil, fmt.Errorf("error scanning history: %w", err)
		}
		e.CreatedAt = time.Unix(at, 0)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}

	return out, nil
}

// Prune deletes everything but the newest keep entries.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) error {
	query := `delete from history where id not in (select id from history order by id desc limit ?)`

	if _, err := r.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}
