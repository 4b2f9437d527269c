package journal

import (
	"context"
	"sync"
	"time"
)

// DefaultKeep bounds the number of entries held in memory.
const DefaultKeep = 1000

// InMemoryRepository keeps the newest entries for the lifetime of the
// process.
type InMemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	keep    int
	nextID  int64
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{keep: DefaultKeep, now: time.Now}
}

func (r *InMemoryRepository) Record(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = r.now()

	if len(r.entries) >= r.keep {
		n := copy(r.entries, r.entries[len(r.entries)-r.keep+1:])
		r.entries = r.entries[:n]
	}
	r.entries = append(r.entries, *e)

	return nil
}

func (r *InMemoryRepository) Recent(_ context.Context, identity string, limit int) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		return nil, nil
	}

	var out []*Entry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].Identity != identity {
			continue
		}
		e := r.entries[i]
		out = append(out, &e)
	}

	return out, nil
}

// Len returns the number of entries held.
func (r *InMemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *InMemoryRepository) Close() error { return nil }
