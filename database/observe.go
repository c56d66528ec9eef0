package database

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
)

type subscription struct {
	tables map[string]struct{}
	// signal holds at most one pending invalidation; further ones collapse.
	signal chan struct{}
}

type invalidationTracker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

func newInvalidationTracker() *invalidationTracker {
	return &invalidationTracker{subs: make(map[int]*subscription)}
}

func (t *invalidationTracker) subscribe(tables []string) (int, <-chan struct{}) {
	sub := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subs[id] = sub
	return id, sub.signal
}

func (t *invalidationTracker) unsubscribe(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, id)
}

func (t *invalidationTracker) notify(tables []string) {
	if len(tables) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subs {
		for _, table := range tables {
			if _, ok := sub.tables[table]; !ok {
				continue
			}
			select {
			case sub.signal <- struct{}{}:
			default:
			}
			break
		}
	}
}

// observers reports the number of live subscriptions.
func (t *invalidationTracker) observers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

type queryFunc[T any] func(ctx context.Context, tx *sqlx.Tx) (T, bool, error)

// observe runs query now and again after every commit touching one of
// tables, sending each found result on the returned channel. The channel is
// closed once ctx is done.
func observe[T any](ctx context.Context, d *Database, name string, tables []string, query queryFunc[T]) <-chan T {
	out := make(chan T)
	// Subscribe before the first read so a commit racing with it is not lost.
	id, signal := d.tracker.subscribe(tables)
	logger := d.logger.WithField("query", name)

	go func() {
		defer close(out)
		defer d.tracker.unsubscribe(id)

		for {
			value, found, err := read(ctx, d, query)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				logger.Errorf("observed query failed: %v", err)
			case found:
				select {
				case out <- value:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-signal:
				logger.Trace("tables invalidated, re-running query")
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
