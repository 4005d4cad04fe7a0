// Package session holds the client-side credential store: the current identity,
// access credential, expiry, and menu authorization data of one browser tab (or any
// process that plays that role).
//
// # Persistence
//
// The store is the only state that survives a reload. Snapshots are written as a
// versioned JSON envelope through a tab-scoped [Storage]; [MemoryStorage],
// [RedisStorage] and [BoltStorage] are provided. Decoding rejects unknown schema
// versions instead of guessing.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Snapshot] model. It does NOT perform
// network I/O, decide when a credential must be renewed beyond the lead-time query,
// or make navigation decisions; those belong to the refresh, interceptor and
// navigation packages.
//
// # What this package must NOT do
//
//   - Import goSession, refresh, interceptor or navigation (no upward imports).
//   - Partially apply menu data from two different payloads.
//   - Clear SessionChecked anywhere except [Store.Reset].
package session
