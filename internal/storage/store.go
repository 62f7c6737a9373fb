package storage

import (
	"sync"

	"github.com/dreamware/shardkv/internal/wire"
)

// Backend is the minimal storage contract a replica drives. It intentionally
// exposes only the two operations the replica's request handling needs:
// retrieval and unconditional overwrite. Last-writer-wins conflict
// resolution happens above this interface, in internal/handler - Insert
// never compares timestamps, it simply stores what it's given.
type Backend interface {
	// Insert stores value under key, overwriting any prior value
	// unconditionally. value.Kind is always ValueLive or ValueTombstone;
	// callers must never insert a ValueNone.
	Insert(key wire.Key, value wire.Value)

	// Get retrieves the value stored under key. The second return value is
	// false if the key has never been inserted, in which case the caller
	// should treat the logical value as wire.Value{Kind: wire.ValueNone}.
	Get(key wire.Key) (wire.Value, bool)
}

// MemoryBackend implements Backend with an in-memory map guarded by a
// single mutex. Keys are converted to a comparable string form since
// wire.Key holds byte slices and cannot be used directly as a Go map key.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]entry
}

type entry struct {
	key   wire.Key
	value wire.Value
}

// NewMemoryBackend returns an empty, ready-to-use MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]entry)}
}

func mapKey(k wire.Key) string {
	// Length-prefixing each component avoids ambiguous concatenation
	// (e.g. dataset="ab",pkey="c" colliding with dataset="a",pkey="bc").
	buf := make([]byte, 0, len(k.Dataset)+len(k.Pkey)+len(k.Lkey)+24)
	buf = appendLenPrefixed(buf, k.Dataset)
	buf = appendLenPrefixed(buf, k.Pkey)
	buf = appendLenPrefixed(buf, k.Lkey)
	return string(buf)
}

func appendLenPrefixed(buf, field []byte) []byte {
	var lenBytes [8]byte
	n := len(field)
	for i := 0; i < 8; i++ {
		lenBytes[i] = byte(n >> (56 - 8*i))
	}
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, field...)
	return buf
}

// Insert implements Backend.
func (m *MemoryBackend) Insert(key wire.Key, value wire.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[mapKey(key)] = entry{key: key, value: value}
}

// Get implements Backend.
func (m *MemoryBackend) Get(key wire.Key) (wire.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[mapKey(key)]
	if !ok {
		return wire.Value{}, false
	}
	return e.value, true
}

// Len returns the number of distinct keys currently stored. Used by
// cmd/replica for observability only.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
