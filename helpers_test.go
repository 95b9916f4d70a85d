package scorecache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	c "github.com/ktevet1983-hub/scorecache/codec"
	pr "github.com/ktevet1983-hub/scorecache/provider"
	"github.com/ktevet1983-hub/scorecache/provider/memory"
)

// recHooks records events as "Name kind|key|reason".
type recHooks struct {
	NopHooks
	mu     sync.Mutex
	events []string
}

func (h *recHooks) add(format string, args ...any) {
	h.mu.Lock()
	h.events = append(h.events, fmt.Sprintf(format, args...))
	h.mu.Unlock()
}

func (h *recHooks) count(prefix string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (h *recHooks) CacheHit(kind, tier string)     { h.add("CacheHit %s %s", kind, tier) }
func (h *recHooks) SelfHeal(key, reason string)    { h.add("SelfHeal %s %s", key, reason) }
func (h *recHooks) Deduplicated(kind, key string)  { h.add("Deduplicated %s %s", kind, key) }
func (h *recHooks) Aborted(kind, key string)       { h.add("Aborted %s %s", kind, key) }
func (h *recHooks) PrefetchStarted(kind, g string) { h.add("PrefetchStarted %s %s", kind, g) }
func (h *recHooks) PrefetchDeduped(kind, g string) { h.add("PrefetchDeduped %s %s", kind, g) }
func (h *recHooks) FallbackStarted(kind, k string) { h.add("FallbackStarted %s %s", kind, k) }
func (h *recHooks) DurableWriteFailed(key string, err error) {
	h.add("DurableWriteFailed %s %v", key, err)
}

// rejectingProvider refuses every write like a full storage quota.
type rejectingProvider struct {
	*memory.Provider
	err error // returned from Set when non-nil, otherwise ok=false
}

func (p rejectingProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return false, p.err
}

var _ pr.Provider = rejectingProvider{}

type tiers struct {
	volatile *memory.Provider
	durable  *memory.Provider
}

func newTiers() tiers {
	return tiers{volatile: memory.New(memory.Config{}), durable: memory.New(memory.Config{})}
}

func newNatStore(t *testing.T, tt tiers, opt func(*Options[string])) *Store[string] {
	t.Helper()
	opts := Options[string]{
		Kind:     "nat",
		Codec:    c.String{},
		Volatile: tt.volatile,
		Durable:  tt.durable,
	}
	if opt != nil {
		opt(&opts)
	}
	s, err := NewStore(opts)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}
