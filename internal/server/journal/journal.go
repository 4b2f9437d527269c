// Package journal records completed uploads and deletes.
package journal

import (
	"context"
	"fmt"
	"time"
)

type Action string

const (
	ActionUpload Action = "upload"
	ActionDelete Action = "delete"
)

type Entry struct {
	ID        int64
	Identity  string
	Action    Action
	Name      string
	Size      int64
	CreatedAt time.Time
}

// String renders an entry as one history line.
func (e *Entry) String() string {
	return fmt.Sprintf("%d %s %s %s %s %d",
		e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Identity, e.Action, e.Name, e.Size)
}

type Repository interface {
	// Record stores e and fills in its ID and CreatedAt.
	Record(ctx context.Context, e *Entry) error
	// Recent returns up to limit entries of identity, newest first.
	Recent(ctx context.Context, identity string, limit int) ([]*Entry, error)
	Close() error
}
