package scorecache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// They are called on lookup paths.
type Hooks interface {
	// A lookup was served from cache. tier ∈ {"volatile", "durable"}
	CacheHit(kind, tier string)
	CacheMiss(kind string)

	// Bulk prefetch for a group started, or was skipped because one is in flight.
	PrefetchStarted(kind, group string)
	PrefetchDeduped(kind, group string)
	// items is the number of values committed; err is nil on success.
	PrefetchDone(kind, group string, items int, took time.Duration, err error)

	// A per-item fallback call left the queue and finished.
	FallbackStarted(kind, key string)
	FallbackDone(kind, key string, took time.Duration, err error)

	// A caller attached to an in-flight lookup instead of issuing its own.
	Deduplicated(kind, key string)

	// A lookup was abandoned because its epoch ended.
	Aborted(kind, key string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "version_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// The durable tier rejected or failed a write. The value stays in the volatile tier.
	DurableWriteFailed(storageKey string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string, string)                                {}
func (NopHooks) CacheMiss(string)                                       {}
func (NopHooks) PrefetchStarted(string, string)                         {}
func (NopHooks) PrefetchDeduped(string, string)                         {}
func (NopHooks) PrefetchDone(string, string, int, time.Duration, error) {}
func (NopHooks) FallbackStarted(string, string)                         {}
func (NopHooks) FallbackDone(string, string, time.Duration, error)      {}
func (NopHooks) Deduplicated(string, string)                            {}
func (NopHooks) Aborted(string, string)                                 {}
func (NopHooks) SelfHeal(string, string)                                {}
func (NopHooks) DurableWriteFailed(string, error)                       {}

// MultiHooks fans each event out to every element in order.
type MultiHooks []Hooks

func (m MultiHooks) CacheHit(kind, tier string) {
	for _, h := range m {
		h.CacheHit(kind, tier)
	}
}

func (m MultiHooks) CacheMiss(kind string) {
	for _, h := range m {
		h.CacheMiss(kind)
	}
}

func (m MultiHooks) PrefetchStarted(kind, group string) {
	for _, h := range m {
		h.PrefetchStarted(kind, group)
	}
}

func (m MultiHooks) PrefetchDeduped(kind, group string) {
	for _, h := range m {
		h.PrefetchDeduped(kind, group)
	}
}

func (m MultiHooks) PrefetchDone(kind, group string, items int, took time.Duration, err error) {
	for _, h := range m {
		h.PrefetchDone(kind, group, items, took, err)
	}
}

func (m MultiHooks) FallbackStarted(kind, key string) {
	for _, h := range m {
		h.FallbackStarted(kind, key)
	}
}

func (m MultiHooks) FallbackDone(kind, key string, took time.Duration, err error) {
	for _, h := range m {
		h.FallbackDone(kind, key, took, err)
	}
}

func (m MultiHooks) Deduplicated(kind, key string) {
	for _, h := range m {
		h.Deduplicated(kind, key)
	}
}

func (m MultiHooks) Aborted(kind, key string) {
	for _, h := range m {
		h.Aborted(kind, key)
	}
}

func (m MultiHooks) SelfHeal(storageKey, reason string) {
	for _, h := range m {
		h.SelfHeal(storageKey, reason)
	}
}

func (m MultiHooks) DurableWriteFailed(storageKey string, err error) {
	for _, h := range m {
		h.DurableWriteFailed(storageKey, err)
	}
}
