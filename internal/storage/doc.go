// Package storage defines the Backend interface replicas use to hold keyed
// values, and provides the in-memory implementation used everywhere this
// repository runs (see SPEC_FULL.md's Non-goals: no durable storage).
//
// # Architecture
//
//	┌────────────────────┐
//	│   internal/replica │
//	└──────────┬─────────┘
//	           ▼
//	┌────────────────────┐
//	│       Backend       │   Insert(Key, Value), Get(Key) (Value, bool)
//	└──────────┬─────────┘
//	           ▼
//	┌────────────────────┐
//	│    MemoryBackend    │   sync.Mutex-guarded map keyed by flattened wire.Key
//	└────────────────────┘
//
// # Concurrency
//
// MemoryBackend serializes all access behind a single sync.Mutex: reads and
// writes alike, since a replica's request rate is gated by its listener's
// accept loop, not by storage throughput, and the interface's two
// operations are cheap enough that read/write lock splitting isn't worth
// the complexity.
//
// # Non-goals
//
// No persistence, no eviction, no secondary indexes, no range scans. A
// replica that restarts loses all data, exactly as SPEC_FULL.md specifies.
package storage
