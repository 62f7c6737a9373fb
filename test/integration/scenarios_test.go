// Package integration exercises the literal end-to-end scenarios this
// system's design notes describe, driving an in-process handler.Handler
// (via its Serve method) against real replica.Server instances over
// loopback TCP - no mocks standing in for the internode wire protocol.
package integration

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardkv/internal/clock"
	"github.com/dreamware/shardkv/internal/handler"
	"github.com/dreamware/shardkv/internal/partition"
	"github.com/dreamware/shardkv/internal/replica"
	"github.com/dreamware/shardkv/internal/storage"
	"github.com/dreamware/shardkv/internal/wire"
)

const testTimeout = 200 * time.Millisecond

type testReplica struct {
	addr    string
	backend *storage.MemoryBackend
	srv     *replica.Server
}

func startLiveReplica(t *testing.T, shardIndex, shardCount int) testReplica {
	t.Helper()
	backend := storage.NewMemoryBackend()
	rep := replica.New(shardIndex, shardCount, backend)
	srv, err := replica.Listen("127.0.0.1:0", rep, nil)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return testReplica{addr: srv.Addr().String(), backend: backend, srv: srv}
}

// startDeadStub returns an address that accepts TCP connections but closes
// them immediately without ever replying - a "dead but accepting" replica,
// distinct from an address nothing listens on at all.
func startDeadStub(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

// buildCluster starts shardCount shards of replicasPerShard real replicas
// each, and returns a handler wired to all of them plus the started
// replicas, grouped by shard, for tests that need to pre-seed a specific
// replica directly.
func buildCluster(t *testing.T, shardCount, replicasPerShard int, clk clock.Clock) (*handler.Handler, [][]testReplica) {
	t.Helper()
	shards := make([][]testReplica, shardCount)
	addrs := make([][]string, shardCount)
	for s := 0; s < shardCount; s++ {
		for r := 0; r < replicasPerShard; r++ {
			tr := startLiveReplica(t, s, shardCount)
			shards[s] = append(shards[s], tr)
			addrs[s] = append(addrs[s], tr.addr)
		}
	}
	table, err := handler.NewShardTable(addrs)
	require.NoError(t, err)
	h := handler.New(table, clk, nil, testTimeout)
	return h, shards
}

// A. Read-your-write.
func TestScenarioReadYourWrite(t *testing.T) {
	h, _ := buildCluster(t, 3, 3, clock.System{})
	key := wire.Key{Dataset: []byte{1, 2, 3}, Pkey: []byte{4, 5, 6}, Lkey: []byte{7, 8, 9}}

	writeResp := h.Serve(wire.Request{Op: wire.OpWrite, Key: key, Content: []byte{1}, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespWriteAck, writeResp.Status)
	require.Greater(t, writeResp.Timestamp, uint64(0))

	readResp := h.Serve(wire.Request{Op: wire.OpRead, Key: key, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespValue, readResp.Status)
	assert.Equal(t, wire.ValueLive, readResp.Value.Kind)
	assert.Equal(t, []byte{1}, readResp.Value.Content)
	assert.Equal(t, writeResp.Timestamp, readResp.Value.Timestamp)
}

// B. Delete-then-read.
func TestScenarioDeleteThenRead(t *testing.T) {
	h, _ := buildCluster(t, 3, 3, clock.NewFixed(1, 1))
	key := wire.Key{Dataset: []byte{1, 2, 3}, Pkey: []byte{4, 5, 6}, Lkey: []byte{7, 8, 9}}

	writeResp := h.Serve(wire.Request{Op: wire.OpWrite, Key: key, Content: []byte{1}, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespWriteAck, writeResp.Status)

	deleteResp := h.Serve(wire.Request{Op: wire.OpDelete, Key: key, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespWriteAck, deleteResp.Status)
	require.Greater(t, deleteResp.Timestamp, writeResp.Timestamp)

	readResp := h.Serve(wire.Request{Op: wire.OpRead, Key: key, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespValue, readResp.Status)
	assert.Equal(t, wire.ValueTombstone, readResp.Value.Kind)
	assert.Equal(t, deleteResp.Timestamp, readResp.Value.Timestamp)
}

// C. Read One with one alive replica.
func TestScenarioReadOneWithOneAliveReplica(t *testing.T) {
	h, shards := buildCluster(t, 3, 3, clock.System{})

	key := findKeyForShard(t, shards, 0)
	seed := []byte("seed")
	shards[0][0].backend.Insert(key, wire.Value{Kind: wire.ValueLive, Content: seed, Timestamp: 100000})
	// shards[0][1] and shards[0][2] are live but never seeded - they'll
	// answer with Value{None}, which is a perfectly valid "first response"
	// under One, so this scenario also documents that One isn't guaranteed
	// to return the seeded value. To match the literal scenario (seeded
	// replica is the one and only one with data, and it answers first in
	// replica order), the seeded replica is index 0, tried first.

	resp := h.Serve(wire.Request{Op: wire.OpRead, Key: key, Consistency: wire.ConsistencyOne})
	require.Equal(t, wire.RespValue, resp.Status)
	assert.Equal(t, wire.ValueLive, resp.Value.Kind)
	assert.Equal(t, seed, resp.Value.Content)
	assert.Equal(t, uint64(100000), resp.Value.Timestamp)
}

// D. Read Latest with only one reachable replica.
func TestScenarioReadLatestWithOnlyOneReachableReplica(t *testing.T) {
	shardCount := 3
	liveA := startLiveReplica(t, 0, shardCount)
	deadB := startDeadStub(t)
	deadC := startDeadStub(t)

	table, err := handler.NewShardTable([][]string{
		{liveA.addr, deadB, deadC},
		{startLiveReplica(t, 1, shardCount).addr},
		{startLiveReplica(t, 2, shardCount).addr},
	})
	require.NoError(t, err)
	h := handler.New(table, clock.System{}, nil, testTimeout)

	key := findKeyForTable(t, table, 0)
	liveA.backend.Insert(key, wire.Value{Kind: wire.ValueLive, Content: []byte("x"), Timestamp: 100000})

	resp := h.Serve(wire.Request{Op: wire.OpRead, Key: key, Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespError, resp.Status)
	assert.Equal(t, "Not enough storage nodes succeeded to give a response", resp.ErrorText)
}

// E. Write Latest quorum with one dead node per shard.
func TestScenarioWriteLatestQuorumWithOneDeadNodePerShard(t *testing.T) {
	shardCount := 3
	var addrs [][]string
	for s := 0; s < shardCount; s++ {
		live1 := startLiveReplica(t, s, shardCount)
		live2 := startLiveReplica(t, s, shardCount)
		dead := startDeadStub(t)
		addrs = append(addrs, []string{live1.addr, live2.addr, dead})
	}
	table, err := handler.NewShardTable(addrs)
	require.NoError(t, err)
	h := handler.New(table, clock.System{}, nil, testTimeout)

	key := findKeyForTable(t, table, 0)
	resp := h.Serve(wire.Request{Op: wire.OpWrite, Key: key, Content: []byte("v"), Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespWriteAck, resp.Status)
	assert.Greater(t, resp.Timestamp, uint64(0))
}

// F. Write Latest with only one live replica per shard.
func TestScenarioWriteLatestWithOnlyOneLiveReplicaPerShard(t *testing.T) {
	shardCount := 3
	var addrs [][]string
	for s := 0; s < shardCount; s++ {
		live := startLiveReplica(t, s, shardCount)
		dead1 := startDeadStub(t)
		dead2 := startDeadStub(t)
		addrs = append(addrs, []string{live.addr, dead1, dead2})
	}
	table, err := handler.NewShardTable(addrs)
	require.NoError(t, err)
	h := handler.New(table, clock.System{}, nil, testTimeout)

	key := findKeyForTable(t, table, 0)
	resp := h.Serve(wire.Request{Op: wire.OpWrite, Key: key, Content: []byte("v"), Consistency: wire.ConsistencyLatest})
	require.Equal(t, wire.RespError, resp.Status)
	assert.Equal(t, "Quorum write could not be accomplished.", resp.ErrorText)
}

// G. Partition stability.
func TestScenarioPartitionStability(t *testing.T) {
	pkey := []byte("fixed-pkey")
	first, err := partition.ShardOf(pkey, 16)
	require.NoError(t, err)

	// dataset and lkey never factor into ShardOf's signature at all, so
	// varying them - as the literal scenario does - cannot change the
	// result by construction; this loop instead confirms the hash is
	// stable across repeated calls, which is the property that matters.
	for i := 0; i < 10000; i++ {
		got, err := partition.ShardOf(pkey, 16)
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}

// findKeyForShard searches for a pkey that hashes to shard index idx given
// the cluster's shard count, so tests can target a specific shard's
// replicas deterministically.
func findKeyForShard(t *testing.T, shards [][]testReplica, idx int) wire.Key {
	t.Helper()
	shardCount := len(shards)
	for i := 0; i < 100000; i++ {
		pkey := []byte{byte(i), byte(i >> 8), byte(i >> 16)}
		got, err := partition.ShardOf(pkey, shardCount)
		require.NoError(t, err)
		if got == idx {
			return wire.Key{Pkey: pkey}
		}
	}
	t.Fatalf("could not find a pkey hashing to shard %d", idx)
	return wire.Key{}
}

func findKeyForTable(t *testing.T, table *handler.ShardTable, idx int) wire.Key {
	t.Helper()
	for i := 0; i < 100000; i++ {
		pkey := []byte{byte(i), byte(i >> 8), byte(i >> 16)}
		got, err := table.ShardForKey(pkey)
		require.NoError(t, err)
		if got == idx {
			return wire.Key{Pkey: pkey}
		}
	}
	t.Fatalf("could not find a pkey hashing to shard %d", idx)
	return wire.Key{}
}
