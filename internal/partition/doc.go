// Package partition computes the shard a key belongs to.
//
// Sharding is a pure function of a key's primary component (Pkey): the
// 64-bit SipHash-2-4 digest of Pkey, keyed with an all-zero 128-bit key,
// reduced modulo the configured shard count. The hash is frozen and must
// never change, since handler and replica must agree on shard ownership
// without coordination.
package partition
