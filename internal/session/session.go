// Package session assembles the cache stack for one dashboard session from
// configuration: providers, stores, the primary fetchers, the nationality
// enricher, hooks and the navigation controller. The squad, player, standings
// and comparison loaders build on it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/backend"
	"github.com/ktevet1983-hub/scorecache/codec"
	asynchook "github.com/ktevet1983-hub/scorecache/hooks/async"
	promhooks "github.com/ktevet1983-hub/scorecache/hooks/prom"
	sloghooks "github.com/ktevet1983-hub/scorecache/hooks/slog"
	"github.com/ktevet1983-hub/scorecache/hooks/stats"
	"github.com/ktevet1983-hub/scorecache/internal/config"
	logruslog "github.com/ktevet1983-hub/scorecache/log/logrus"
	sloglog "github.com/ktevet1983-hub/scorecache/log/slog"
	zaplog "github.com/ktevet1983-hub/scorecache/log/zap"
	"github.com/ktevet1983-hub/scorecache/nav"
	pr "github.com/ktevet1983-hub/scorecache/provider"
	badgerp "github.com/ktevet1983-hub/scorecache/provider/badger"
	bigcachep "github.com/ktevet1983-hub/scorecache/provider/bigcache"
	"github.com/ktevet1983-hub/scorecache/provider/memory"
	redisp "github.com/ktevet1983-hub/scorecache/provider/redis"
	ristrettop "github.com/ktevet1983-hub/scorecache/provider/ristretto"
)

// Lookup kinds. Each gets its own store and key namespace.
const (
	KindSquad       = "squad"
	KindProfile     = "profile"
	KindStats       = "stats"
	KindStandings   = "standings"
	KindComparison  = "comparison"
	KindNationality = "nat"
)

// Placeholder is shown for a nationality that could not be resolved.
const Placeholder = "-"

// maxEntryBytes bounds a decoded cache entry; it matches the backend's body
// limit.
const maxEntryBytes = 8 << 20

type Options struct {
	// LogWriter receives logrus and slog output; nil => os.Stderr.
	LogWriter io.Writer
	// Registerer receives the Prometheus collectors when metrics are
	// enabled; nil => prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Backend overrides the client built from cfg.Backend, mainly for tests.
	Backend *backend.Client
}

type Session struct {
	ID      string
	Log     scorecache.Logger
	Stats   *stats.Hooks
	Nav     *nav.Controller
	Backend *backend.Client

	Squads      *scorecache.Fetcher[*structpb.Struct]
	Profiles    *scorecache.Fetcher[*structpb.Struct]
	PlayerStats *scorecache.Fetcher[*structpb.Struct]
	Standings   *scorecache.Fetcher[*structpb.Struct]
	Comparisons *scorecache.Fetcher[*structpb.Struct]
	Nationality *scorecache.Enricher[string]

	hooks   scorecache.Hooks
	cfg     *config.Config
	redis   goredis.UniversalClient
	closers []func(context.Context) error
}

// New builds a session. parent bounds every navigation epoch.
func New(parent context.Context, cfg *config.Config, opts Options) (s *Session, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s = &Session{ID: uuid.NewString(), cfg: cfg, Stats: stats.New()}
	defer func() {
		if err != nil {
			_ = s.Close(context.Background())
		}
	}()

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	if s.Log, err = newLogger(w, cfg.Log); err != nil {
		return nil, err
	}
	s.hooks = s.buildHooks(opts.Registerer)

	s.Backend = opts.Backend
	if s.Backend == nil {
		s.Backend, err = backend.New(backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
			Logger:  s.Log,
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Cache.Durable == config.ProviderRedis {
		s.redis = goredis.NewClient(&goredis.Options{Addr: cfg.Cache.RedisAddr})
		s.closers = append(s.closers, func(context.Context) error { return s.redis.Close() })
	}

	doc := codec.NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })
	if s.Squads, err = newFetcher(s, KindSquad, doc); err != nil {
		return nil, err
	}
	if s.Profiles, err = newFetcher(s, KindProfile, doc); err != nil {
		return nil, err
	}
	if s.PlayerStats, err = newFetcher(s, KindStats, doc); err != nil {
		return nil, err
	}
	if s.Standings, err = newFetcher(s, KindStandings, doc); err != nil {
		return nil, err
	}
	if s.Comparisons, err = newFetcher(s, KindComparison, doc); err != nil {
		return nil, err
	}

	natCodec, err := codec.ByName[string](cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}
	natStore, err := newStore(s, KindNationality, natCodec)
	if err != nil {
		return nil, err
	}
	s.Nationality, err = scorecache.NewEnricher(scorecache.EnricherOptions[string]{
		Store:          natStore,
		FetchItem:      s.Backend.Nationality,
		FetchGroup:     s.Backend.GroupNationalities,
		Placeholder:    Placeholder,
		IsEmpty:        func(v string) bool { return strings.TrimSpace(v) == "" },
		MaxConcurrency: cfg.Fallback.MaxConcurrency,
		Logger:         s.Log,
		Hooks:          s.hooks,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { s.Nationality.Close(); return nil })

	s.Nav = nav.NewController(parent, nav.WithOnAbort(func(ep *nav.Epoch, cause error) {
		s.Log.Debug("navigation aborted", scorecache.Fields{
			"nav_id": ep.NavID(), "seq": ep.Seq(), "cause": cause.Error(),
		})
	}))
	return s, nil
}

// Begin starts a navigation and resets the per-navigation counters.
func (s *Session) Begin() *nav.Epoch {
	s.Stats.Reset()
	return s.Nav.Begin()
}

// Summary logs and returns the load summary of ep.
func (s *Session) Summary(ep *nav.Epoch) stats.Summary {
	sum := s.Stats.Summary(ep.NavID())
	s.Log.Info("navigation summary", sum.Fields())
	return sum
}

// Close aborts the current navigation and releases every store, queue and
// client, in reverse order of creation.
func (s *Session) Close(ctx context.Context) error {
	if s.Nav != nil {
		s.Nav.Unload()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}

func newLogger(w io.Writer, lc config.LogConfig) (scorecache.Logger, error) {
	switch lc.Backend {
	case "zap":
		format := "console"
		if lc.Format == "json" {
			format = "json"
		}
		return zaplog.New(lc.Level, format)
	case "slog":
		return sloglog.New(w, lc.Level, lc.Format)
	default:
		return logruslog.New(w, lc.Level, lc.Format)
	}
}

// buildHooks always records stats. Prometheus is added when metrics are
// enabled; sampled event logging is added at debug level with the slog
// backend.
func (s *Session) buildHooks(reg prometheus.Registerer) scorecache.Hooks {
	hs := scorecache.MultiHooks{s.Stats}
	if s.cfg.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		hs = append(hs, promhooks.New(reg))
	}
	if sl, ok := s.Log.(sloglog.Logger); ok && s.cfg.Log.Level == "debug" {
		async := asynchook.New(sloghooks.New(sl.L, sloghooks.Options{
			SelfHealEvery: 10,
			DedupEvery:    10,
			LogHits:       true,
		}), 1, 1024)
		s.closers = append(s.closers, func(context.Context) error { async.Close(); return nil })
		hs = append(hs, async)
	}
	return hs
}

func newFetcher(s *Session, kind string, cd codec.Codec[*structpb.Struct]) (*scorecache.Fetcher[*structpb.Struct], error) {
	st, err := newStore(s, kind, cd)
	if err != nil {
		return nil, err
	}
	return scorecache.NewFetcher(scorecache.FetcherOptions[*structpb.Struct]{
		Store:  st,
		Logger: s.Log,
		Hooks:  s.hooks,
	})
}

// newStore gives every kind its own providers; a store closes the providers
// it owns.
func newStore[V any](s *Session, kind string, cd codec.Codec[V]) (*scorecache.Store[V], error) {
	volatile, err := s.volatile()
	if err != nil {
		return nil, fmt.Errorf("%s volatile provider: %w", kind, err)
	}
	durable, err := s.durable(kind)
	if err != nil {
		_ = volatile.Close(context.Background())
		return nil, fmt.Errorf("%s durable provider: %w", kind, err)
	}
	st, err := scorecache.NewStore(scorecache.Options[V]{
		Kind:           kind,
		Codec:          codec.Limit[V]{Inner: cd, MaxDecode: maxEntryBytes},
		SchemaVersion:  s.cfg.Cache.SchemaVersion,
		Volatile:       volatile,
		Durable:        durable,
		DisableDurable: durable == nil,
		SessionTTL:     s.cfg.Cache.SessionTTL,
		Logger:         s.Log,
		Hooks:          s.hooks,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, st.Close)
	return st, nil
}

func (s *Session) volatile() (pr.Provider, error) {
	maxBytes := s.cfg.Cache.VolatileMaxBytes
	switch s.cfg.Cache.Volatile {
	case config.ProviderRistretto:
		return ristrettop.New(ristrettop.Config{
			NumCounters: 1e5,
			MaxCost:     maxBytes,
			BufferItems: 64,
		})
	case config.ProviderBigcache:
		return bigcachep.New(bigcachep.Config{
			LifeWindow:         s.cfg.Cache.SessionTTL,
			MaxEntriesInWindow: 10_000,
			MaxEntrySize:       4 << 10,
			HardMaxCacheSizeMB: int(maxBytes >> 20),
		})
	default:
		return memory.New(memory.Config{MaxBytes: int(maxBytes)}), nil
	}
}

// durable returns nil when the durable tier is disabled.
func (s *Session) durable(kind string) (pr.Provider, error) {
	switch s.cfg.Cache.Durable {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderRedis:
		return redisp.New(redisp.Config{
			Client: s.redis,
			Prefix: s.cfg.Cache.RedisPrefix + s.ID + ":",
		})
	case config.ProviderBadger:
		if s.cfg.Cache.BadgerDir == "" {
			return badgerp.New(badgerp.Config{InMemory: true})
		}
		return badgerp.New(badgerp.Config{Dir: filepath.Join(s.cfg.Cache.BadgerDir, kind)})
	default:
		return memory.New(memory.Config{}), nil
	}
}
