// Package handler implements the stateless front end clients talk to.
//
// # Architecture
//
//	┌────────┐   Request    ┌─────────────┐   InternodeRequest   ┌─────────┐
//	│ client │ ────────────▶│   Handler   │ ────────────────────▶│ replica │
//	│        │◀──────────── │ (stateless) │◀──────────────────── │ (shard) │
//	└────────┘ ResponseMsg  └──────┬──────┘   InternodeResponse   └─────────┘
//	                               │ fans out to every replica of one shard
//	                               ▼
//	                          ShardTable (static, immutable after load)
//
// # Statelessness
//
// A Handler holds no client session state and no mutable routing state: its
// ShardTable is loaded once at startup from YAML (see internal/handler's
// LoadConfig) and never mutated, per SPEC_FULL.md's Non-goals (no dynamic
// membership, no re-sharding). Multiple Handler processes can run
// concurrently against the same replicas with no coordination between them.
//
// # Consistency
//
// Read honors the client's requested Consistency (One or Latest); Write and
// Delete always require a write quorum (strict majority of replicas)
// regardless of the requested Consistency - this matches the system this
// was distilled from, which echoes the requested consistency on the
// response without changing write behavior. See SPEC_FULL.md §9 for the
// full rationale.
package handler
