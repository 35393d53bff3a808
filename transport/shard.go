package transport

import "math/bits"

// ShardInfo describes a Scylla node's sharding parameters, as advertised in
// its SUPPORTED response (SCYLLA_NR_SHARDS / SCYLLA_SHARDING_IGNORE_MSB).
type ShardInfo struct {
	NrShards  uint16
	MSBIgnore uint8
}

// Shard derives the shard owning token on a node with this ShardInfo: the
// high 64 bits of ((token biased to unsigned) << MSBIgnore) * NrShards,
// computed as a 128-bit product (Scylla's sharding.hh compute_shard_for_token).
func (si ShardInfo) Shard(token Token) uint16 {
	if si.NrShards <= 1 {
		return 0
	}

	biased := uint64(token) ^ (uint64(1) << 63)
	shifted := biased << si.MSBIgnore
	hi, _ := bits.Mul64(shifted, uint64(si.NrShards))
	return uint16(hi)
}

const (
	minPort = 0x4000
	maxPort = 0xFFFF
)

// ShardPortIterator returns a function that yields successive candidate
// local ports mapping to shard 0 of si, cycling through the client port
// range (§3 Shard: local_port % NrShards selects the shard on outbound
// connections, the Scylla side of shard-aware routing).
func ShardPortIterator(si ShardInfo) func() uint16 {
	nr := uint32(si.NrShards)
	if nr == 0 {
		nr = 1
	}

	next := uint32(minPort)
	// Align the first candidate to shard 0 so the allocation order is
	// deterministic and cheap to reason about.
	if rem := next % nr; rem != 0 {
		next += nr - rem
	}

	return func() uint16 {
		port := next
		next += nr
		if next > maxPort {
			next = minPort + (next - maxPort - 1)
		}
		return uint16(port)
	}
}
