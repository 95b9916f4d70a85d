// Package stats counts cache events in memory and condenses them into a
// per-navigation load summary.
package stats

import (
	"sync/atomic"
	"time"

	"github.com/ktevet1983-hub/scorecache"
)

// Likely cause of a slow load, as reported by Summary.
const (
	CauseFallbackStorm   = "fallback_storm"       // per-item calls dominated
	CausePrefetchRepeats = "prefetch_not_deduped" // the same bulk call was issued repeatedly
	CauseNone            = "none"
)

// fallbackStormCalls is the number of per-item calls above which a load is
// considered dominated by fallbacks.
const fallbackStormCalls = 4

type Hooks struct {
	hits            atomic.Int64
	misses          atomic.Int64
	prefetchCalls   atomic.Int64
	prefetchDeduped atomic.Int64
	prefetchNanos   atomic.Int64
	fallbackCalls   atomic.Int64
	fallbackNanos   atomic.Int64
	deduplicated    atomic.Int64
	aborted         atomic.Int64
	selfHeals       atomic.Int64
	durableFailures atomic.Int64
}

var _ scorecache.Hooks = (*Hooks)(nil)

func New() *Hooks { return &Hooks{} }

func (h *Hooks) CacheHit(string, string)        { h.hits.Add(1) }
func (h *Hooks) CacheMiss(string)               { h.misses.Add(1) }
func (h *Hooks) PrefetchStarted(string, string) { h.prefetchCalls.Add(1) }
func (h *Hooks) PrefetchDeduped(string, string) { h.prefetchDeduped.Add(1) }
func (h *Hooks) FallbackStarted(string, string) { h.fallbackCalls.Add(1) }
func (h *Hooks) Deduplicated(string, string)    { h.deduplicated.Add(1) }
func (h *Hooks) Aborted(string, string)         { h.aborted.Add(1) }
func (h *Hooks) SelfHeal(string, string)        { h.selfHeals.Add(1) }
func (h *Hooks) DurableWriteFailed(string, error) {
	h.durableFailures.Add(1)
}

func (h *Hooks) PrefetchDone(_, _ string, _ int, took time.Duration, _ error) {
	h.prefetchNanos.Add(int64(took))
}

func (h *Hooks) FallbackDone(_, _ string, took time.Duration, _ error) {
	h.fallbackNanos.Add(int64(took))
}

// Summary describes one navigation's lookups.
type Summary struct {
	NavID            string
	Cause            string
	Hits             int64
	Misses           int64
	PrefetchCalls    int64
	PrefetchDeduped  int64
	PrefetchDuration time.Duration
	FallbackCalls    int64
	FallbackDuration time.Duration
	Deduplicated     int64
	Aborted          int64
	SelfHeals        int64
	DurableFailures  int64
	NetworkCalls     int64
	RequestsSaved    int64
}

// Summary snapshots the counters. Counters are read one by one, so a summary
// taken while lookups are running may be slightly inconsistent.
func (h *Hooks) Summary(navID string) Summary {
	s := Summary{
		NavID:            navID,
		Hits:             h.hits.Load(),
		Misses:           h.misses.Load(),
		PrefetchCalls:    h.prefetchCalls.Load(),
		PrefetchDeduped:  h.prefetchDeduped.Load(),
		PrefetchDuration: time.Duration(h.prefetchNanos.Load()),
		FallbackCalls:    h.fallbackCalls.Load(),
		FallbackDuration: time.Duration(h.fallbackNanos.Load()),
		Deduplicated:     h.deduplicated.Load(),
		Aborted:          h.aborted.Load(),
		SelfHeals:        h.selfHeals.Load(),
		DurableFailures:  h.durableFailures.Load(),
	}
	s.NetworkCalls = s.PrefetchCalls + s.FallbackCalls
	s.RequestsSaved = s.Hits + s.Deduplicated + s.PrefetchDeduped

	switch {
	case s.FallbackCalls > fallbackStormCalls || s.FallbackDuration > 2*s.PrefetchDuration:
		s.Cause = CauseFallbackStorm
	case s.PrefetchCalls > 1 && s.PrefetchDeduped == 0:
		s.Cause = CausePrefetchRepeats
	default:
		s.Cause = CauseNone
	}
	return s
}

// Fields renders the summary for a scorecache.Logger.
func (s Summary) Fields() scorecache.Fields {
	return scorecache.Fields{
		"nav_id":           s.NavID,
		"cause":            s.Cause,
		"hits":             s.Hits,
		"misses":           s.Misses,
		"prefetch_calls":   s.PrefetchCalls,
		"prefetch_deduped": s.PrefetchDeduped,
		"prefetch_ms":      s.PrefetchDuration.Milliseconds(),
		"fallback_calls":   s.FallbackCalls,
		"fallback_ms":      s.FallbackDuration.Milliseconds(),
		"deduplicated":     s.Deduplicated,
		"aborted":          s.Aborted,
		"self_heals":       s.SelfHeals,
		"durable_failures": s.DurableFailures,
		"network_calls":    s.NetworkCalls,
		"requests_saved":   s.RequestsSaved,
	}
}

// Reset zeroes every counter, e.g. at the start of a navigation.
func (h *Hooks) Reset() {
	for _, c := range []*atomic.Int64{
		&h.hits, &h.misses, &h.prefetchCalls, &h.prefetchDeduped, &h.prefetchNanos,
		&h.fallbackCalls, &h.fallbackNanos, &h.deduplicated, &h.aborted,
		&h.selfHeals, &h.durableFailures,
	} {
		c.Store(0)
	}
}
