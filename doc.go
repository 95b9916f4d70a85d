// Package scorecache orchestrates the dashboard's backend lookups: a two-tier
// cache, single-flight request coordination, a bulk enrichment prefetcher
// racing bounded per-item fallbacks, all bound to a navigation epoch.
//
// Components:
//   - Store[V]: volatile tier (process memory, ristretto, bigcache) backed by a
//     durable, schema-versioned tier (memory, redis, badger) that survives
//     reloads within a session.
//   - Coordinator[V]: exactly one backend call per key per coordinated window.
//   - Enricher[V]: enrichment lookups (e.g. nationality). Bulk prefetch per
//     group, FIFO fallback queue with bounded concurrency, placeholder on any
//     failure, resolution watchers for already-rendered placeholders.
//   - Fetcher[V]: primary lookups (squad, profile, stats, standings). Same
//     cache and coordination, failures propagate.
//
// Keys:
//
//	<kind>:<groupKey>:<id>:<schemaVersion>  - volatile entries
//	<kind>:<groupKey>:<schemaVersion>       - durable group snapshots (id -> entry)
//
// Typical page flow:
//
//	ep := navigation.Begin()                 // aborts the previous page's work
//	ctx := ep.Context()
//	enricher.PrefetchGroup(ctx, "10:2024")   // warm the whole squad in one call
//	nat, _ := enricher.GetOrFetch(ctx, "1", "10:2024")
package scorecache
