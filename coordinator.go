package scorecache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// reattach bounds how often a live caller rejoins a key whose in-flight call
// was aborted by an earlier epoch.
const reattach = 3

// Coordinator collapses concurrent requests for the same key into one
// producer call. Every caller attached to that call receives its result.
//
// A caller whose ctx ends stops waiting and gets an abort, but the shared call
// keeps running for the others. A caller with a live ctx that was attached to
// a call aborted by another epoch starts (or joins) a fresh call instead of
// inheriting the abort.
type Coordinator[V any] struct {
	kind  string
	g     singleflight.Group
	hooks Hooks
}

func NewCoordinator[V any](kind string, hooks Hooks) *Coordinator[V] {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Coordinator[V]{kind: kind, hooks: hooks}
}

// Request returns producer's value for key, running producer at most once
// per in-flight window. producer receives the ctx of the caller that started
// the window.
func (c *Coordinator[V]) Request(ctx context.Context, key string, producer func(context.Context) (V, error)) (V, error) {
	var zero V
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			c.hooks.Aborted(c.kind, key)
			return zero, abortError(ctx, c.kind, key)
		}

		leader := false
		ch := c.g.DoChan(key, func() (any, error) {
			leader = true
			return producer(ctx)
		})

		select {
		case <-ctx.Done():
			c.hooks.Aborted(c.kind, key)
			return zero, abortError(ctx, c.kind, key)
		case r := <-ch:
			// leader is written before the result is delivered on ch
			if !leader {
				c.hooks.Deduplicated(c.kind, key)
			}
			if r.Err != nil {
				if !leader && IsAborted(r.Err) && ctx.Err() == nil && attempt < reattach {
					continue
				}
				return zero, r.Err
			}
			v, _ := r.Val.(V)
			return v, nil
		}
	}
}

// Forget makes the next Request for key start a new call even if one is in
// flight.
func (c *Coordinator[V]) Forget(key string) { c.g.Forget(key) }
