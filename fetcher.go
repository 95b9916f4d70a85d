package scorecache

import (
	"context"
	"errors"
)

// Fetcher serves primary lookups (squad, profile, stats, standings) through
// the same cache and request coordination as enrichment, but failures
// propagate to the caller.
type Fetcher[V any] struct {
	store *Store[V]
	coord *Coordinator[V]
	log   Logger
}

type FetcherOptions[V any] struct {
	Store  *Store[V] // required
	Logger Logger    // if nil, NopLogger is used
	Hooks  Hooks     // if nil, NopHooks is used
}

func NewFetcher[V any](opts FetcherOptions[V]) (*Fetcher[V], error) {
	if opts.Store == nil {
		return nil, errors.New("scorecache: FetcherOptions.Store is required")
	}
	var log Logger = NopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}
	var hooks Hooks = NopHooks{}
	if opts.Hooks != nil {
		hooks = opts.Hooks
	}
	return &Fetcher[V]{
		store: opts.Store,
		coord: NewCoordinator[V](opts.Store.Kind(), hooks),
		log:   log,
	}, nil
}

// Get returns the cached value for k or calls fetch once for all concurrent
// callers and caches its result. Errors match ErrNetwork, ErrParse,
// ErrNotFound or ErrAborted.
func (f *Fetcher[V]) Get(ctx context.Context, k Key, fetch func(context.Context) (V, error)) (V, error) {
	if ent, ok := f.store.Get(ctx, k); ok {
		return ent.Value, nil
	}
	sk := f.store.StorageKey(k)
	return f.coord.Request(ctx, sk, func(ctx context.Context) (V, error) {
		var zero V
		// a previous window may have committed while we were attaching
		if ent, ok := f.store.Get(ctx, k); ok {
			return ent.Value, nil
		}
		v, err := fetch(ctx)
		if ctx.Err() != nil {
			return zero, abortError(ctx, f.store.Kind(), sk)
		}
		if err != nil {
			return zero, err
		}
		if err := f.store.Put(ctx, k, v, ProvenancePrimary); err != nil {
			if IsAborted(err) {
				return zero, err
			}
			f.log.Warn("primary commit failed", Fields{"key": sk, "err": err})
		}
		return v, nil
	})
}

func (f *Fetcher[V]) Store() *Store[V] { return f.store }
