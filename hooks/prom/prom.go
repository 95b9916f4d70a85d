// Package promhooks exports cache events as Prometheus metrics.
package promhooks

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ktevet1983-hub/scorecache"
)

// Hooks implements scorecache.Hooks on Prometheus collectors. All methods are
// nil-safe.
type Hooks struct {
	lookups        *prometheus.CounterVec   // kind, result
	prefetches     *prometheus.CounterVec   // kind, result
	prefetchItems  *prometheus.CounterVec   // kind
	prefetchTime   *prometheus.HistogramVec // kind
	fallbacks      *prometheus.CounterVec   // kind, result
	fallbackTime   *prometheus.HistogramVec // kind
	deduplicated   *prometheus.CounterVec   // kind, path
	aborted        *prometheus.CounterVec   // kind
	selfHeals      *prometheus.CounterVec   // reason
	durableFailure prometheus.Counter
}

var _ scorecache.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them with reg. If reg is nil they
// are created but not registered. Collectors already registered by an
// earlier Hooks are reused.
func New(reg prometheus.Registerer) *Hooks {
	const ns, sub = "scorecache", "lookup"
	buckets := []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "cache_total",
			Help: "Cache lookups by result (volatile, durable, miss)",
		}, []string{"kind", "result"}),
		prefetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "prefetch_total",
			Help: "Bulk prefetch calls by result (ok, error, aborted, deduped)",
		}, []string{"kind", "result"}),
		prefetchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "prefetch_items_total",
			Help: "Values committed by bulk prefetches",
		}, []string{"kind"}),
		prefetchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, Name: "prefetch_duration_seconds",
			Help: "Bulk prefetch latency", Buckets: buckets,
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "fallback_total",
			Help: "Per-item fallback calls by result (ok, error, not_found, aborted)",
		}, []string{"kind", "result"}),
		fallbackTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, Name: "fallback_duration_seconds",
			Help: "Per-item fallback latency", Buckets: buckets,
		}, []string{"kind"}),
		deduplicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "deduplicated_total",
			Help: "Lookups that joined an in-flight call instead of issuing one",
		}, []string{"kind"}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "aborted_total",
			Help: "Lookups abandoned because their navigation ended",
		}, []string{"kind"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "store", Name: "self_heal_total",
			Help: "Entries deleted on read",
		}, []string{"reason"}),
		durableFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "store", Name: "durable_write_failures_total",
			Help: "Durable tier writes that failed or were rejected",
		}),
	}
	if reg != nil {
		h.lookups = registerOrReuse(reg, h.lookups).(*prometheus.CounterVec)
		h.prefetches = registerOrReuse(reg, h.prefetches).(*prometheus.CounterVec)
		h.prefetchItems = registerOrReuse(reg, h.prefetchItems).(*prometheus.CounterVec)
		h.prefetchTime = registerOrReuse(reg, h.prefetchTime).(*prometheus.HistogramVec)
		h.fallbacks = registerOrReuse(reg, h.fallbacks).(*prometheus.CounterVec)
		h.fallbackTime = registerOrReuse(reg, h.fallbackTime).(*prometheus.HistogramVec)
		h.deduplicated = registerOrReuse(reg, h.deduplicated).(*prometheus.CounterVec)
		h.aborted = registerOrReuse(reg, h.aborted).(*prometheus.CounterVec)
		h.selfHeals = registerOrReuse(reg, h.selfHeals).(*prometheus.CounterVec)
		h.durableFailure = registerOrReuse(reg, h.durableFailure).(prometheus.Counter)
	}
	return h
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func result(err error) string {
	switch scorecache.Classify(err) {
	case nil:
		return "ok"
	case scorecache.ErrAborted:
		return "aborted"
	case scorecache.ErrNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (h *Hooks) CacheHit(kind, tier string) {
	if h == nil {
		return
	}
	h.lookups.WithLabelValues(kind, tier).Inc()
}

func (h *Hooks) CacheMiss(kind string) {
	if h == nil {
		return
	}
	h.lookups.WithLabelValues(kind, "miss").Inc()
}

// PrefetchStarted is counted when the call settles.
func (h *Hooks) PrefetchStarted(string, string) {}

func (h *Hooks) PrefetchDeduped(kind, _ string) {
	if h == nil {
		return
	}
	h.prefetches.WithLabelValues(kind, "deduped").Inc()
}

func (h *Hooks) PrefetchDone(kind, _ string, items int, took time.Duration, err error) {
	if h == nil {
		return
	}
	h.prefetches.WithLabelValues(kind, result(err)).Inc()
	h.prefetchItems.WithLabelValues(kind).Add(float64(items))
	h.prefetchTime.WithLabelValues(kind).Observe(took.Seconds())
}

// FallbackStarted is counted when the call settles.
func (h *Hooks) FallbackStarted(string, string) {}

func (h *Hooks) FallbackDone(kind, _ string, took time.Duration, err error) {
	if h == nil {
		return
	}
	h.fallbacks.WithLabelValues(kind, result(err)).Inc()
	h.fallbackTime.WithLabelValues(kind).Observe(took.Seconds())
}

func (h *Hooks) Deduplicated(kind, _ string) {
	if h == nil {
		return
	}
	h.deduplicated.WithLabelValues(kind).Inc()
}

func (h *Hooks) Aborted(kind, _ string) {
	if h == nil {
		return
	}
	h.aborted.WithLabelValues(kind).Inc()
}

func (h *Hooks) SelfHeal(_, reason string) {
	if h == nil {
		return
	}
	h.selfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) DurableWriteFailed(string, error) {
	if h == nil {
		return
	}
	h.durableFailure.Inc()
}
