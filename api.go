package scorecache

import (
	"time"

	c "github.com/ktevet1983-hub/scorecache/codec"
	"github.com/ktevet1983-hub/scorecache/internal/util"
	pr "github.com/ktevet1983-hub/scorecache/provider"
)

// DefaultSchemaVersion tags durable entries when Options leave it empty.
const DefaultSchemaVersion = "v1"

// Provenance records which path produced a cached value.
type Provenance uint8

const (
	ProvenanceFallback Provenance = iota // per-item endpoint
	ProvenanceBulk                       // group endpoint
	ProvenancePrimary                    // primary content lookup
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceFallback:
		return "fallback"
	case ProvenanceBulk:
		return "bulk"
	case ProvenancePrimary:
		return "primary"
	default:
		return "unknown"
	}
}

// Key identifies one cached value. Version defaults to the store's schema
// version; an entry written under another version is never returned.
type Key struct {
	ID      string
	Group   string // optional batch, e.g. "10:2024" (team:season)
	Season  string
	Version string
}

// GroupKey is the batch an item is stored and prefetched under.
func (k Key) GroupKey() string { return util.GroupKey(k.ID, k.Group, k.Season) }

// Entry is a cached value with its provenance and commit time.
type Entry[V any] struct {
	Value      V
	Provenance Provenance
	At         time.Time
}

// Options configure a Store. Only Kind and Codec are required.
type Options[V any] struct {
	// Required
	Kind  string // lookup kind and key namespace, e.g. "nat", "profile", "stats"
	Codec c.Codec[V]

	SchemaVersion string        // "" => DefaultSchemaVersion
	Volatile      pr.Provider   // nil => in-process memory provider
	Durable       pr.Provider   // nil => in-process memory provider
	DurableCodec  c.Codec[V]    // nil => Codec
	SessionTTL    time.Duration // durable entry lifetime; 0 => 12h
	VolatileTTL   time.Duration // 0 => no expiry (lives as long as the page)

	// DisableDurable keeps values in the volatile tier only.
	DisableDurable bool

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
	Now    func() time.Time
}
