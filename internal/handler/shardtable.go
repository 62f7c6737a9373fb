package handler

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/dreamware/shardkv/internal/partition"
)

// ErrNoShards is returned by NewShardTable when given an empty shard list.
var ErrNoShards = errors.New("handler: shard table must have at least one shard")

// ShardTable is the handler's routing table: for each shard index, the
// ordered list of replica addresses that hold that shard. It is built once
// at startup and never mutated afterward - there is deliberately no
// AssignShard/RemoveShard here, since dynamic membership and re-sharding
// are out of scope for this system (see SPEC_FULL.md §1 Non-goals). Reads
// of a ShardTable need no locking because nothing ever writes to it after
// construction.
type ShardTable struct {
	shards [][]string
}

// NewShardTable validates and wraps a static shard assignment. shards[i] is
// the list of replica addresses serving shard i; every shard must have at
// least one replica, and no address may appear under more than one shard -
// a single replica process owns exactly one shard in this design.
func NewShardTable(shards [][]string) (*ShardTable, error) {
	if len(shards) == 0 {
		return nil, ErrNoShards
	}
	var seen []string
	for i, replicas := range shards {
		if len(replicas) == 0 {
			return nil, fmt.Errorf("handler: shard %d has no replicas", i)
		}
		for _, addr := range replicas {
			if slices.Contains(seen, addr) {
				return nil, fmt.Errorf("handler: replica address %q assigned to more than one shard", addr)
			}
			seen = append(seen, addr)
		}
	}
	// Copy so the caller can't mutate the table out from under us.
	cp := make([][]string, len(shards))
	for i, replicas := range shards {
		cp[i] = append([]string(nil), replicas...)
	}
	return &ShardTable{shards: cp}, nil
}

// ShardCount returns the total number of shards.
func (t *ShardTable) ShardCount() int {
	return len(t.shards)
}

// ReplicasForShard returns the replica addresses serving shard idx. The
// returned slice is owned by the caller; mutating it has no effect on the
// table.
func (t *ShardTable) ReplicasForShard(idx int) ([]string, error) {
	if idx < 0 || idx >= len(t.shards) {
		return nil, fmt.Errorf("handler: shard index %d out of range [0,%d)", idx, len(t.shards))
	}
	return append([]string(nil), t.shards[idx]...), nil
}

// ShardForKey returns the shard index that owns pkey, using the same
// partition function every replica uses to decide ownership.
func (t *ShardTable) ShardForKey(pkey []byte) (int, error) {
	return partition.ShardOf(pkey, len(t.shards))
}

// ReplicasForKey returns the replica addresses serving the shard that owns
// pkey.
func (t *ShardTable) ReplicasForKey(pkey []byte) ([]string, error) {
	idx, err := t.ShardForKey(pkey)
	if err != nil {
		return nil, err
	}
	return t.ReplicasForShard(idx)
}
