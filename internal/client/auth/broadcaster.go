package auth

import (
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/spendtrack/internal/client/api"
)

// Broadcaster is the explicit observer-registration channel for invalidation
// signals. The coordinator owns it; the request gateway holds a reference to
// publish into it. It also issues the monotonically increasing transition
// sequence numbers the race guard relies on.
type Broadcaster struct {
	seq atomic.Uint64

	mu     sync.Mutex
	subs   map[int]func(api.InvalidationEvent)
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(api.InvalidationEvent))}
}

// NextSeq allocates a sequence number for a new transition attempt.
func (b *Broadcaster) NextSeq() uint64 {
	return b.seq.Add(1)
}

// CurrentSeq implements api.SequenceSource.
func (b *Broadcaster) CurrentSeq() uint64 {
	return b.seq.Load()
}

// Subscribe registers fn and returns its unsubscribe function. Subscribers
// must be idempotent: concurrent failing calls each broadcast independently.
func (b *Broadcaster) Subscribe(fn func(api.InvalidationEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// PublishInvalidation implements api.InvalidationPublisher. Delivery is
// synchronous; subscriber order is unspecified.
func (b *Broadcaster) PublishInvalidation(ev api.InvalidationEvent) {
	b.mu.Lock()
	fns := make([]func(api.InvalidationEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
