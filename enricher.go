package scorecache

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/ktevet1983-hub/scorecache/internal/workqueue"
)

// EnricherOptions configure an Enricher. Store and FetchItem are required.
type EnricherOptions[V any] struct {
	Store *Store[V]

	// FetchItem calls the per-item endpoint.
	FetchItem func(ctx context.Context, id string) (V, error)
	// FetchGroup calls the bulk endpoint and returns every item it describes.
	// nil disables PrefetchGroup.
	FetchGroup func(ctx context.Context, groupKey string) (map[string]V, error)

	// Placeholder is returned whenever a value cannot be resolved.
	Placeholder V
	// IsEmpty reports values that carry no information. They are never
	// cached. nil => the zero value is empty.
	IsEmpty func(V) bool

	// MaxConcurrency bounds concurrent per-item calls; 0 => 2.
	MaxConcurrency int

	// OnResolve is called after a value commits, from bulk or fallback.
	OnResolve func(id, groupKey string, v V)

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// FallbackStats is a point-in-time view of the per-item fallback queue.
type FallbackStats struct {
	Pending   int
	Active    int
	Completed uint64
}

// Enricher resolves secondary values (e.g. player nationality) for items that
// are already on screen. It never fails: on any error the caller gets the
// placeholder.
//
// Resolution order for one item: cache, then an in-flight bulk prefetch of
// its group, then a per-item call through a FIFO queue of bounded
// concurrency. Concurrent lookups of the same item share one call.
type Enricher[V any] struct {
	store       *Store[V]
	kind        string
	coord       *Coordinator[V]
	pf          *prefetcher[V]
	queue       *workqueue.Queue
	watch       watchers[V]
	fetchItem   func(context.Context, string) (V, error)
	fetchGroup  func(context.Context, string) (map[string]V, error)
	placeholder V
	isEmpty     func(V) bool
	onResolve   func(id, groupKey string, v V)
	log         Logger
	hooks       Hooks
}

func NewEnricher[V any](opts EnricherOptions[V]) (*Enricher[V], error) {
	if opts.Store == nil {
		return nil, errors.New("scorecache: EnricherOptions.Store is required")
	}
	if opts.FetchItem == nil {
		return nil, errors.New("scorecache: EnricherOptions.FetchItem is required")
	}
	var log Logger = NopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}
	var hooks Hooks = NopHooks{}
	if opts.Hooks != nil {
		hooks = opts.Hooks
	}
	isEmpty := opts.IsEmpty
	if isEmpty == nil {
		isEmpty = isZero[V]
	}

	e := &Enricher[V]{
		store:       opts.Store,
		kind:        opts.Store.Kind(),
		coord:       NewCoordinator[V](opts.Store.Kind(), hooks),
		queue:       workqueue.New(opts.MaxConcurrency),
		fetchItem:   opts.FetchItem,
		fetchGroup:  opts.FetchGroup,
		placeholder: opts.Placeholder,
		isEmpty:     isEmpty,
		onResolve:   opts.OnResolve,
		log:         log,
		hooks:       hooks,
	}
	e.pf = newPrefetcher(opts.Store, isEmpty, e.resolved, hooks, log)
	return e, nil
}

// GetOrFetch returns the value for id in groupKey ("" when the item has no
// group). Failures yield the placeholder and a nil error; an aborted epoch
// yields the placeholder and an error matching ErrAborted, which callers
// must not render.
func (e *Enricher[V]) GetOrFetch(ctx context.Context, id, groupKey string) (V, error) {
	k := Key{ID: id, Group: groupKey}
	if ent, ok := e.store.Get(ctx, k); ok {
		return ent.Value, nil
	}

	sk := e.store.StorageKey(k)
	v, err := e.coord.Request(ctx, sk, func(ctx context.Context) (V, error) {
		return e.resolve(ctx, k, sk)
	})
	switch {
	case err == nil:
		return v, nil
	case IsAborted(err):
		return e.placeholder, err
	default:
		e.log.Debug("enrichment unavailable", Fields{"kind": e.kind, "id": id, "group": groupKey, "err": err})
		return e.placeholder, nil
	}
}

// Peek returns the cached value for id without any backend call.
func (e *Enricher[V]) Peek(ctx context.Context, id, groupKey string) (V, bool) {
	ent, ok := e.store.Get(ctx, Key{ID: id, Group: groupKey})
	return ent.Value, ok
}

// Seed commits a value that a primary document already carries, so later
// lookups of id are answered without a backend call. Empty values are
// ignored.
func (e *Enricher[V]) Seed(ctx context.Context, id, groupKey string, v V) error {
	if e.isEmpty(v) {
		return nil
	}
	k := Key{ID: id, Group: groupKey}
	if err := e.store.Put(ctx, k, v, ProvenancePrimary); err != nil {
		return err
	}
	e.resolved(k, v)
	return nil
}

// PrefetchGroup starts one bulk lookup for groupKey without blocking. The
// returned channel is closed when it settles. A prefetch already in flight
// for the group is reused.
func (e *Enricher[V]) PrefetchGroup(ctx context.Context, groupKey string) <-chan struct{} {
	if e.fetchGroup == nil || ctx.Err() != nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return e.pf.Prefetch(ctx, groupKey, e.fetchGroup)
}

// Hydrate restores groupKey's values from the durable tier, e.g. after a
// reload, and returns how many were restored.
func (e *Enricher[V]) Hydrate(ctx context.Context, groupKey string) (int, error) {
	return e.store.Hydrate(ctx, Key{Group: groupKey})
}

// Watch returns a channel that receives the value for id once it commits and
// is then closed. If the value is already cached it is delivered at once.
// cancel releases the channel (closing it without a value).
func (e *Enricher[V]) Watch(id, groupKey string) (<-chan V, func()) {
	k := Key{ID: id, Group: groupKey}
	sk := e.store.StorageKey(k)
	ch, cancel := e.watch.add(sk)
	if ent, ok := e.store.Get(context.Background(), k); ok {
		e.watch.notify(sk, ent.Value)
	}
	return ch, cancel
}

func (e *Enricher[V]) FallbackStats() FallbackStats {
	st := e.queue.Stats()
	return FallbackStats{Pending: st.Pending, Active: st.Active, Completed: st.Completed}
}

// Close stops the fallback queue. Queued lookups resolve to the placeholder.
func (e *Enricher[V]) Close() { e.queue.Close() }

func (e *Enricher[V]) resolve(ctx context.Context, k Key, sk string) (V, error) {
	var zero V
	// an overlapping bulk prefetch of the group wins over a per-item call
	e.pf.Wait(ctx, k.GroupKey())
	if ctx.Err() != nil {
		return zero, abortError(ctx, e.kind, sk)
	}
	if ent, ok := e.store.Get(ctx, k); ok {
		return ent.Value, nil
	}
	return e.fallback(ctx, k, sk)
}

func (e *Enricher[V]) fallback(ctx context.Context, k Key, sk string) (V, error) {
	var zero, v V
	done := e.queue.Enqueue(ctx, func(ctx context.Context) error {
		if ctx.Err() != nil {
			return abortError(ctx, e.kind, sk)
		}
		e.hooks.FallbackStarted(e.kind, sk)
		start := time.Now()

		got, err := e.fetchItem(ctx, k.ID)
		switch {
		case ctx.Err() != nil:
			err = abortError(ctx, e.kind, sk)
		case err != nil:
		case e.isEmpty(got):
			err = &FetchError{Kind: ErrNotFound, Op: e.kind, Key: k.ID}
		default:
			if perr := e.store.Put(ctx, k, got, ProvenanceFallback); perr != nil {
				if IsAborted(perr) {
					err = perr
				} else {
					e.log.Warn("fallback commit failed", Fields{"key": sk, "err": perr})
				}
			}
		}
		e.hooks.FallbackDone(e.kind, sk, time.Since(start), err)
		if err != nil {
			return err
		}
		v = got
		e.resolved(k, got)
		return nil
	})

	select {
	case err := <-done:
		if err != nil {
			return zero, err
		}
		return v, nil
	case <-ctx.Done():
		return zero, abortError(ctx, e.kind, sk)
	}
}

func (e *Enricher[V]) resolved(k Key, v V) {
	e.watch.notify(e.store.StorageKey(k), v)
	if e.onResolve != nil {
		e.onResolve(k.ID, k.Group, v)
	}
}

func isZero[V any](v V) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}
