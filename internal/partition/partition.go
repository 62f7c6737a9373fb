package partition

import (
	"errors"
	"fmt"

	"github.com/dchest/siphash"
)

// ErrInvalidShardCount is returned by ShardOf when shardCount is not positive.
var ErrInvalidShardCount = errors.New("partition: shard count must be positive")

// HashPkey returns the frozen 64-bit SipHash-2-4 digest of pkey, keyed with
// an all-zero 128-bit key. This is the only hash this package ever computes
// for partitioning purposes and must never change.
func HashPkey(pkey []byte) uint64 {
	return siphash.Hash(0, 0, pkey)
}

// ShardOf returns the index, in [0, shardCount), of the shard that owns
// pkey. It depends only on pkey and shardCount, never on dataset or lkey,
// so that handler and replica - each configured with the same shardCount -
// always agree without exchanging any state.
func ShardOf(pkey []byte, shardCount int) (int, error) {
	if shardCount <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidShardCount, shardCount)
	}
	return int(HashPkey(pkey) % uint64(shardCount)), nil
}
