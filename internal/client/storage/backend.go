// Package storage implements the dual-tier key/value store backing the
// client session: a durable primary tier (SQLite) and an in-process
// ephemeral tier used when the primary provably fails.
package storage

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/spendtrack/internal/common"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
	"github.com/dmitrijs2005/spendtrack/internal/metrics"
)

// Listener receives change notifications. value is nil when the key was
// removed; Clear notifies once with the wildcard key "*".
type Listener func(key string, value *string)

// Backend is the storage surface the session layer depends on.
//
// Contract:
//   - Put returns true if either tier ends up holding the exact value.
//   - Get checks the primary tier first, then the ephemeral tier.
//   - Remove and Clear are best-effort and never report failure.
//   - Every successful mutation synchronously notifies subscribed listeners.
type Backend interface {
	Put(ctx context.Context, key, value string) bool
	Get(ctx context.Context, key string) (string, bool)
	Remove(ctx context.Context, key string)
	Clear(ctx context.Context)
	Subscribe(fn Listener) (unsubscribe func())
}

// Tier is a single storage tier. Put must verify the written value and
// return common.ErrWriteMismatch if the read-back does not compare equal.
type Tier interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// probeKey is written, read back and deleted once at construction to decide
// whether the primary tier is usable for this process lifetime.
const probeKey = "__storage_probe__"

// DualTier routes operations to the primary tier while it is healthy and
// falls back to the ephemeral tier per key when a write cannot be verified.
// There is no re-probing: a failed probe disables the primary tier until the
// process exits.
type DualTier struct {
	primary   Tier
	ephemeral Tier

	available bool // primary tier usable, decided once by the probe

	mu       sync.Mutex
	degraded map[string]struct{} // keys that fell back to the ephemeral tier

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int

	log     logging.Logger
	metrics *metrics.Metrics
}

// NewDualTier probes the primary tier and returns a ready backend. A probe
// failure is not an error for the caller: the backend degrades to the
// ephemeral tier and keeps working until reload.
func NewDualTier(ctx context.Context, primary, ephemeral Tier, log logging.Logger, m *metrics.Metrics) *DualTier {
	b := &DualTier{
		primary:   primary,
		ephemeral: ephemeral,
		degraded:  make(map[string]struct{}),
		listeners: make(map[int]Listener),
		log:       log,
		metrics:   m,
	}
	b.available = b.probe(ctx)
	if !b.available {
		b.log.Warn(ctx, "storage.unavailable", "tier", "primary")
	}
	return b
}

// probe writes a sentinel, reads it back, compares byte-for-byte and deletes
// it. Any failure marks the primary tier unavailable.
func (b *DualTier) probe(ctx context.Context) bool {
	if b.primary == nil {
		return false
	}

	sentinel, err := common.MakeRandHexString(16)
	if err != nil {
		return false
	}

	if err := b.primary.Put(ctx, probeKey, sentinel); err != nil {
		return false
	}
	got, ok, err := b.primary.Get(ctx, probeKey)
	if err != nil || !ok || got != sentinel {
		return false
	}
	if err := b.primary.Remove(ctx, probeKey); err != nil {
		return false
	}
	return true
}

// PrimaryAvailable reports the result of the startup probe.
func (b *DualTier) PrimaryAvailable() bool { return b.available }

// DegradedKeys lists keys whose last write fell back to the ephemeral tier.
// Diagnostics only.
func (b *DualTier) DegradedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.degraded))
	for k := range b.degraded {
		keys = append(keys, k)
	}
	return keys
}

func (b *DualTier) Put(ctx context.Context, key, value string) bool {
	if b.available {
		err := b.primary.Put(ctx, key, value)
		if err == nil {
			b.mu.Lock()
			delete(b.degraded, key)
			b.mu.Unlock()
			b.notify(key, &value)
			return true
		}
		b.log.Warn(ctx, "storage.write.fallback", "key", key, "error", err)
		b.metrics.StorageWriteFallback.Inc()
		b.mu.Lock()
		b.degraded[key] = struct{}{}
		b.mu.Unlock()
	}

	if err := b.ephemeral.Put(ctx, key, value); err != nil {
		b.log.Error(ctx, "storage.write.failed", "key", key, "error", err)
		return false
	}
	b.notify(key, &value)
	return true
}

func (b *DualTier) Get(ctx context.Context, key string) (string, bool) {
	if b.available {
		value, ok, err := b.primary.Get(ctx, key)
		if err == nil && ok {
			return value, true
		}
		if err != nil {
			b.log.Warn(ctx, "storage.read.failed", "key", key, "tier", "primary", "error", err)
		}
	}

	value, ok, err := b.ephemeral.Get(ctx, key)
	if err != nil || !ok {
		return "", false
	}
	return value, true
}

func (b *DualTier) Remove(ctx context.Context, key string) {
	if b.available {
		if err := b.primary.Remove(ctx, key); err != nil {
			b.log.Warn(ctx, "storage.remove.failed", "key", key, "tier", "primary", "error", err)
		}
	}
	_ = b.ephemeral.Remove(ctx, key)

	b.mu.Lock()
	delete(b.degraded, key)
	b.mu.Unlock()

	b.notify(key, nil)
}

func (b *DualTier) Clear(ctx context.Context) {
	if b.available {
		if err := b.primary.Clear(ctx); err != nil {
			b.log.Warn(ctx, "storage.clear.failed", "tier", "primary", "error", err)
		}
	}
	_ = b.ephemeral.Clear(ctx)

	b.mu.Lock()
	b.degraded = make(map[string]struct{})
	b.mu.Unlock()

	b.notify("*", nil)
}

// Subscribe registers fn for change notifications and returns a function that
// removes the registration. No invocation-order guarantee is made.
func (b *DualTier) Subscribe(fn Listener) func() {
	b.lmu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.lmu.Unlock()

	return func() {
		b.lmu.Lock()
		delete(b.listeners, id)
		b.lmu.Unlock()
	}
}

// notify invokes listeners synchronously. A panicking listener must not
// abort notification of the remaining ones.
func (b *DualTier) notify(key string, value *string) {
	b.lmu.Lock()
	fns := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.lmu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error(context.Background(), "storage.listener.panic", "key", key, "panic", r)
				}
			}()
			fn(key, value)
		}()
	}
}
