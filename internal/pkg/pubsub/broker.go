// Package pubsub is an in-process fan-out broker with per-subscriber
// buffering. Subscriptions are tied to a context: cancelling it removes the
// subscriber and closes its channel.
package pubsub

import (
	"context"
	"sync"
)

// Broker delivers every published value to each subscriber whose predicate
// accepts it. Publish never blocks: when a subscriber's buffer is full the
// oldest buffered value is dropped to make room.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription[T]
	nextID uint64
	buffer int
	closed bool
}

type subscription[T any] struct {
	ch    chan T
	match func(T) bool
}

// NewBroker creates a broker whose subscribers buffer up to buffer values.
func NewBroker[T any](buffer int) *Broker[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker[T]{
		subs:   make(map[uint64]*subscription[T]),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber. A nil match accepts everything. The
// returned channel is closed after ctx is done or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, match func(T) bool) <-chan T {
	sub := &subscription[T]{
		ch:    make(chan T, b.buffer),
		match: match,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()

	return sub.ch
}

// Publish delivers v and returns how many buffered values were dropped.
func (b *Broker[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for _, sub := range b.subs {
		if sub.match != nil && !sub.match(v) {
			continue
		}
		for {
			select {
			case sub.ch <- v:
			default:
				select {
				case <-sub.ch:
					dropped++
				default:
				}
				continue
			}
			break
		}
	}
	return dropped
}

// Len returns the number of live subscribers.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel and later publishes are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

func (b *Broker[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}
