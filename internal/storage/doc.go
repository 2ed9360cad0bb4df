// Package storage persists the console session between runs.
//
// # Overview
//
// The session store keeps exactly two keys, "token" and "user". Storage is the
// small key-value contract it needs, with three backends:
//
//   - FileStorage: one 0600 JSON document in a 0700 directory (default)
//   - SQLiteStorage: a session_kv table in a local database (modernc.org/sqlite)
//   - RedisStorage: prefixed keys on a Redis server, for shared sessions
//
// Memory is an in-process backend for tests.
//
// # Semantics
//
// Get returns ErrNotFound for missing keys. Set writes a batch of entries as one
// unit: a single rename of the document, one SQLite transaction, or one Redis
// MULTI/EXEC. A failed Set leaves the previous values in place. Delete ignores keys that
// are already absent, which keeps logout idempotent.
package storage
