package response

import (
	"strconv"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

var _ frame.Response = (*Supported)(nil)

// Scylla-specific SUPPORTED keys advertising per-node sharding parameters,
// see §3 Node Info / Shard derivation.
const (
	ScyllaNrShardsKey       = "SCYLLA_NR_SHARDS"
	ScyllaShardingIgnoreMSB = "SCYLLA_SHARDING_IGNORE_MSB"
	ScyllaShardAwarePortKey = "SCYLLA_SHARD_AWARE_PORT"
	ScyllaPartitioner       = "SCYLLA_PARTITIONER"
)

// Supported spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Sent in response to OPTIONS. Body: [string multimap] of supported
// option names to their possible values.
type Supported struct {
	Options map[string][]string
}

func (*Supported) OpCode() frame.OpCode { return frame.OpSupported }

func ParseSupported(b *frame.Buffer) *Supported {
	return &Supported{Options: b.ReadStringMultiMap()}
}

func firstOf(vs []string) (string, bool) {
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// NrShards returns the node's shard count, defaulting to 1 when absent
// (§3: "absence means one shard").
func (s *Supported) NrShards() uint16 {
	if v, ok := firstOf(s.Options[ScyllaNrShardsKey]); ok {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil && n > 0 {
			return uint16(n)
		}
	}
	return 1
}

// ShardingIgnoreMSB returns the number of most-significant bits ignored
// by the sharding hash, defaulting to 0.
func (s *Supported) ShardingIgnoreMSB() uint8 {
	if v, ok := firstOf(s.Options[ScyllaShardingIgnoreMSB]); ok {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			return uint8(n)
		}
	}
	return 0
}

// ShardAwarePort returns the Scylla shard-aware port, or 0 if not
// advertised.
func (s *Supported) ShardAwarePort() uint16 {
	if v, ok := firstOf(s.Options[ScyllaShardAwarePortKey]); ok {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			return uint16(n)
		}
	}
	return 0
}

// IsScyllaShardAware reports whether the node advertised shard counts at
// all, as opposed to being a plain Cassandra node.
func (s *Supported) IsScyllaShardAware() bool {
	_, ok := s.Options[ScyllaNrShardsKey]
	return ok
}
