// Package sloghooks logs cache events through log/slog. Keys are redacted
// (player ids end up in them) and the noisy events can be sampled.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ktevet1983-hub/scorecache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	DedupEvery    uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
	// LogHits enables a debug line per cache hit and miss.
	LogHits bool
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	dedupCtr    atomic.Uint64
}

var _ scorecache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(kind, tier string) {
	if h.l == nil || !h.opts.LogHits {
		return
	}
	h.l.Debug("scorecache.hit", "kind", kind, "tier", tier)
}

func (h *Hooks) CacheMiss(kind string) {
	if h.l == nil || !h.opts.LogHits {
		return
	}
	h.l.Debug("scorecache.miss", "kind", kind)
}

func (h *Hooks) PrefetchStarted(kind, group string) {
	if h.l == nil {
		return
	}
	h.l.Debug("scorecache.prefetch_started", "kind", kind, "group", group)
}

func (h *Hooks) PrefetchDeduped(kind, group string) {
	if h.l == nil {
		return
	}
	h.l.Debug("scorecache.prefetch_deduped", "kind", kind, "group", group)
}

func (h *Hooks) PrefetchDone(kind, group string, items int, took time.Duration, err error) {
	if h.l == nil {
		return
	}
	if err != nil && !scorecache.IsAborted(err) {
		h.l.Info("scorecache.prefetch_failed",
			"kind", kind,
			"group", group,
			"took", took,
			"err", err)
		return
	}
	h.l.Debug("scorecache.prefetch_done",
		"kind", kind,
		"group", group,
		"items", items,
		"took", took,
		"aborted", err != nil)
}

func (h *Hooks) FallbackStarted(kind, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("scorecache.fallback_started", "kind", kind, "key", h.redact(key))
}

func (h *Hooks) FallbackDone(kind, key string, took time.Duration, err error) {
	if h.l == nil {
		return
	}
	h.l.Debug("scorecache.fallback_done",
		"kind", kind,
		"key", h.redact(key),
		"took", took,
		"err", err)
}

func (h *Hooks) Deduplicated(kind, key string) {
	if h.l == nil || !sample(h.opts.DedupEvery, &h.dedupCtr) {
		return
	}
	h.l.Debug("scorecache.deduplicated", "kind", kind, "key", h.redact(key))
}

func (h *Hooks) Aborted(kind, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("scorecache.aborted", "kind", kind, "key", h.redact(key))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("scorecache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) DurableWriteFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("scorecache.durable_write_failed",
		"key", h.redact(storageKey),
		"err", err)
}
