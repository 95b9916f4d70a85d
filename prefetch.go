package scorecache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type prefetchCall struct {
	done  chan struct{}
	items int
	err   error
}

// prefetcher runs at most one bulk lookup per group key. Discovered items are
// committed to the store before waiters are released, so a waiter that
// rechecks the store after Wait sees them.
type prefetcher[V any] struct {
	store    *Store[V]
	isEmpty  func(V) bool
	onCommit func(Key, V)
	hooks    Hooks
	log      Logger

	mu      sync.Mutex
	flights map[string]*prefetchCall
}

func newPrefetcher[V any](store *Store[V], isEmpty func(V) bool, onCommit func(Key, V), hooks Hooks, log Logger) *prefetcher[V] {
	return &prefetcher[V]{
		store:    store,
		isEmpty:  isEmpty,
		onCommit: onCommit,
		hooks:    hooks,
		log:      log,
		flights:  make(map[string]*prefetchCall),
	}
}

// Prefetch starts producer for group unless a call for it is already in
// flight, and returns a channel closed when the call settles.
func (p *prefetcher[V]) Prefetch(ctx context.Context, group string, producer func(context.Context, string) (map[string]V, error)) <-chan struct{} {
	kind := p.store.Kind()

	p.mu.Lock()
	if call, ok := p.flights[group]; ok {
		p.mu.Unlock()
		p.hooks.PrefetchDeduped(kind, group)
		return call.done
	}
	call := &prefetchCall{done: make(chan struct{})}
	p.flights[group] = call
	p.mu.Unlock()

	p.hooks.PrefetchStarted(kind, group)
	go func() {
		start := time.Now()
		n, err := p.fetchAndCommit(ctx, group, producer)

		p.mu.Lock()
		delete(p.flights, group)
		call.items, call.err = n, err
		p.mu.Unlock()
		close(call.done)

		if err != nil && !IsAborted(err) {
			p.log.Debug("bulk prefetch failed; items will fall back", Fields{"kind": kind, "group": group, "err": err})
		}
		p.hooks.PrefetchDone(kind, group, n, time.Since(start), err)
	}()
	return call.done
}

// Wait blocks until the in-flight prefetch for group settles. It reports
// false when none was in flight or ctx ended first.
func (p *prefetcher[V]) Wait(ctx context.Context, group string) bool {
	p.mu.Lock()
	call, ok := p.flights[group]
	p.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-call.done:
		return true
	case <-ctx.Done():
		return false
	}
}

// InFlight reports whether a prefetch for group is running.
func (p *prefetcher[V]) InFlight(group string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.flights[group]
	return ok
}

func (p *prefetcher[V]) fetchAndCommit(ctx context.Context, group string, producer func(context.Context, string) (map[string]V, error)) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("scorecache: prefetch %q panicked: %v", group, r)
		}
	}()

	items, err := producer(ctx, group)
	if ctx.Err() != nil {
		return 0, abortError(ctx, "prefetch", group)
	}
	if err != nil {
		return 0, err
	}

	found := make(map[string]V, len(items))
	for id, v := range items {
		if id == "" || p.isEmpty(v) {
			continue
		}
		found[id] = v
	}
	if len(found) == 0 {
		return 0, nil
	}

	if err := p.store.PutGroup(ctx, Key{Group: group}, found, ProvenanceBulk); err != nil {
		if IsAborted(err) {
			return 0, err
		}
		p.log.Warn("bulk commit incomplete", Fields{"kind": p.store.Kind(), "group": group, "err": err})
	}
	for id, v := range found {
		p.onCommit(Key{ID: id, Group: group}, v)
	}
	return len(found), nil
}
