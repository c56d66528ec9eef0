package controller

import "sync"

// broadcaster fans values out to subscribers. Each subscriber holds at most
// the latest value; older undelivered ones are dropped.
type broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
}

func (b *broadcaster[T]) subscribe() (int, <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan T)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan T, 1)
	b.subs[id] = ch
	return id, ch
}

func (b *broadcaster[T]) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
