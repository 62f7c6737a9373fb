// Package replica implements the storage node half of the system: a TCP
// server that owns exactly one shard index and answers InternodeRequest
// messages from a handler.
//
// # Architecture
//
//	┌────────────┐   InternodeRequest    ┌──────────────┐
//	│   handler   │ ─────────────────────▶│    Replica    │
//	│ (any shard) │◀───────────────────── │  (one shard)  │
//	└────────────┘   InternodeResponse    └──────┬───────┘
//	                                              ▼
//	                                      storage.Backend
//
// # Shard ownership
//
// A Replica is configured with its own shard index and the total shard
// count. Every request's key is re-partitioned with internal/partition and
// compared against the configured index; a mismatch is rejected rather than
// silently served, since serving it would mean two replicas of different
// shards disagreeing about who owns a key.
//
// # Conflict resolution
//
// A Replica never compares timestamps on write: it stores exactly the
// Value it's given, unconditionally. Last-writer-wins ordering is the
// handler's responsibility (it stamps every write with a single
// request-wide timestamp before fanning out); see SPEC_FULL.md section 4
// (invariant 1) for the documented consequence this has under reordered
// delivery.
package replica
