// Package asynchook moves hook delivery off the lookup path. Events are
// queued to a fixed pool of workers; when the queue is full they are dropped.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	store, _ := scorecache.NewStore(scorecache.Options[string]{
//	    Kind:  "nat",
//	    Codec: codec.String{},
//	    Hooks: hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ktevet1983-hub/scorecache"
)

type Hooks struct {
	inner   scorecache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ scorecache.Hooks = (*Hooks)(nil)

func New(inner scorecache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(kind, tier string)     { h.try(func() { h.inner.CacheHit(kind, tier) }) }
func (h *Hooks) CacheMiss(kind string)          { h.try(func() { h.inner.CacheMiss(kind) }) }
func (h *Hooks) PrefetchStarted(kind, g string) { h.try(func() { h.inner.PrefetchStarted(kind, g) }) }
func (h *Hooks) PrefetchDeduped(kind, g string) { h.try(func() { h.inner.PrefetchDeduped(kind, g) }) }
func (h *Hooks) FallbackStarted(kind, k string) { h.try(func() { h.inner.FallbackStarted(kind, k) }) }
func (h *Hooks) Deduplicated(kind, k string)    { h.try(func() { h.inner.Deduplicated(kind, k) }) }
func (h *Hooks) Aborted(kind, k string)         { h.try(func() { h.inner.Aborted(kind, k) }) }
func (h *Hooks) SelfHeal(k, r string)           { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) DurableWriteFailed(k string, err error) {
	h.try(func() { h.inner.DurableWriteFailed(k, err) })
}
func (h *Hooks) PrefetchDone(kind, g string, n int, d time.Duration, err error) {
	h.try(func() { h.inner.PrefetchDone(kind, g, n, d, err) })
}
func (h *Hooks) FallbackDone(kind, k string, d time.Duration, err error) {
	h.try(func() { h.inner.FallbackDone(kind, k, d, err) })
}
