// Package store provides a SQLite-backed word store.
//
// The store keeps two tables:
//   - Words: crushed lexicon entries, stored as JSON and reconstituted
//     against the category hierarchy on lookup
//   - Analyses: an append-only log of analysis results
//
// A Store implements lexicon.Lexicon, so an engine can run directly against
// it. Reconstituted words are kept in an LRU cache; the cache holds the
// same *lexicon.Word the engine records onto, so callers write a word back
// with PutWord once an analysis has changed it. A word evicted before that
// write is pinned until PutWord, so its changes are never lost to a rebuild.
//
// # Ordering
//
// Analyses are ordered by seq (the engine's analysis counter), then id:
// ORDER BY seq ASC, id COLLATE BINARY ASC. Wall time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
