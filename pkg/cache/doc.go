// Package cache implements the two-tier caching layer used by the
// healthcare-education services: a best-effort Redis tier backed by a
// bounded in-process tier, with named per-domain strategies (TTL,
// compression, warm-on-startup, key normalization, synonym fallback)
// layered on top.
//
// The package is organized bottom-up:
//
//   - RemoteStore / LocalStore: the raw tiers
//   - TieredCache: tier composition plus the sync/async bridge; the sync
//     entry points never touch the network
//   - MemoizeSync / MemoizeAsync: function-result memoization
//   - Registry: named strategies, query normalization, similarity fallback
//   - Warmer: startup pre-population from per-strategy seed queries
//   - Manager: owns the lifecycle of all of the above
//
// A Redis outage is a degraded mode, never an error surfaced to callers:
// reads fall back to the local tier and writes keep succeeding locally.
// The only error a caller can provoke is requesting an unregistered
// strategy, which is a programming bug and is returned as
// ErrStrategyNotFound.
package cache
