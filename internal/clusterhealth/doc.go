// Package clusterhealth periodically probes replica addresses and tracks
// consecutive-failure counts for observability only.
//
// This is deliberately NOT a failure detector that feeds back into routing:
// dynamic membership changes and re-sharding are out of scope for this
// system (see SPEC_FULL.md §1 Non-goals). A Monitor never removes a
// replica from a handler's ShardTable and never reassigns shards; it only
// reports state transitions to a callback (cmd/handler logs them) and
// exposes a read-only snapshot so an operator can see which replicas are
// currently reachable.
package clusterhealth
