package replica

import (
	"fmt"
	"sync/atomic"

	"github.com/dreamware/shardkv/internal/partition"
	"github.com/dreamware/shardkv/internal/storage"
	"github.com/dreamware/shardkv/internal/wire"
)

// OperationStats tracks per-operation counts for observability. Counters
// are updated atomically so Handle can be called from many connection
// goroutines concurrently without a lock.
type OperationStats struct {
	Reads        uint64
	Writes       uint64
	Rejected     uint64 // requests rejected for not owning the key's shard
}

// Replica owns a single shard index and answers InternodeRequest messages
// against a storage.Backend.
type Replica struct {
	ShardIndex int
	ShardCount int
	Backend    storage.Backend

	stats OperationStats
}

// New returns a Replica responsible for shardIndex out of shardCount total
// shards, serving reads and writes through backend.
func New(shardIndex, shardCount int, backend storage.Backend) *Replica {
	return &Replica{ShardIndex: shardIndex, ShardCount: shardCount, Backend: backend}
}

// Stats returns a snapshot of this replica's operation counters.
func (r *Replica) Stats() OperationStats {
	return OperationStats{
		Reads:    atomic.LoadUint64(&r.stats.Reads),
		Writes:   atomic.LoadUint64(&r.stats.Writes),
		Rejected: atomic.LoadUint64(&r.stats.Rejected),
	}
}

// ownsKey reports whether key's shard matches this replica's configured
// shard index.
func (r *Replica) ownsKey(key wire.Key) (bool, error) {
	shard, err := partition.ShardOf(key.Pkey, r.ShardCount)
	if err != nil {
		return false, err
	}
	return shard == r.ShardIndex, nil
}

// Handle dispatches a single InternodeRequest and returns the response to
// send back to the handler. It never returns a Go error for ordinary
// request outcomes (shard mismatch, rejected write) - those are expressed
// as InternodeError responses, matching spec.md's error taxonomy, which
// treats such conditions as data, not transport failures.
func (r *Replica) Handle(req wire.InternodeRequest) wire.InternodeResponse {
	owns, err := r.ownsKey(req.Key)
	if err != nil {
		return errorResponse(err.Error())
	}
	if !owns {
		atomic.AddUint64(&r.stats.Rejected, 1)
		return errorResponse(fmt.Sprintf("replica does not own shard for this key (shard %d, have %d)", r.ShardIndex, r.ShardCount))
	}

	switch req.Op {
	case wire.InternodeRead:
		return r.handleRead(req.Key)
	case wire.InternodeWrite:
		return r.handleWrite(req.Key, req.Value)
	default:
		return errorResponse(fmt.Sprintf("unknown internode op %d", req.Op))
	}
}

func (r *Replica) handleRead(key wire.Key) wire.InternodeResponse {
	atomic.AddUint64(&r.stats.Reads, 1)
	value, ok := r.Backend.Get(key)
	if !ok {
		return wire.InternodeResponse{Status: wire.InternodeValue, Value: wire.Value{Kind: wire.ValueNone}}
	}
	return wire.InternodeResponse{Status: wire.InternodeValue, Value: value}
}

func (r *Replica) handleWrite(key wire.Key, value wire.Value) wire.InternodeResponse {
	if value.Kind == wire.ValueNone {
		return errorResponse("cannot write a None value")
	}
	atomic.AddUint64(&r.stats.Writes, 1)
	r.Backend.Insert(key, value)
	return wire.InternodeResponse{Status: wire.InternodeWriteAck, Timestamp: value.Timestamp}
}

func errorResponse(text string) wire.InternodeResponse {
	return wire.InternodeResponse{Status: wire.InternodeError, ErrorText: text}
}
