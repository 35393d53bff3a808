package transport

import "testing"

func TestShardInfoShardNoSharding(t *testing.T) {
	t.Parallel()

	si := ShardInfo{NrShards: 1}
	for _, tok := range []Token{0, 1, -1, 1 << 40} {
		if got := si.Shard(tok); got != 0 {
			t.Fatalf("Shard(%d) = %d, want 0", tok, got)
		}
	}
}

func TestShardInfoShardInRange(t *testing.T) {
	t.Parallel()

	si := ShardInfo{NrShards: 16, MSBIgnore: 12}
	tokens := []Token{0, 1, -1, 1 << 62, -(1 << 62), 1234567890123}
	for _, tok := range tokens {
		shard := si.Shard(tok)
		if shard >= si.NrShards {
			t.Fatalf("Shard(%d) = %d, out of range [0, %d)", tok, shard, si.NrShards)
		}
	}
}

func TestShardInfoShardIsDeterministic(t *testing.T) {
	t.Parallel()

	si := ShardInfo{NrShards: 8, MSBIgnore: 12}
	tok := Token(987654321)
	first := si.Shard(tok)
	for i := 0; i < 10; i++ {
		if got := si.Shard(tok); got != first {
			t.Fatalf("Shard(%d) is not deterministic: got %d, want %d", tok, got, first)
		}
	}
}

func TestShardPortIteratorStaysInRange(t *testing.T) {
	t.Parallel()

	si := ShardInfo{NrShards: 4}
	next := ShardPortIterator(si)
	for i := 0; i < 1000; i++ {
		port := next()
		if port < minPort || port > maxPort {
			t.Fatalf("port %d out of range [%d, %d]", port, minPort, maxPort)
		}
	}
}

func TestShardPortIteratorAdvancesByShardCount(t *testing.T) {
	t.Parallel()

	si := ShardInfo{NrShards: 5}
	next := ShardPortIterator(si)
	a := next()
	b := next()
	if int(b)-int(a) != int(si.NrShards) && !(b < a) {
		t.Fatalf("successive ports %d, %d do not advance by NrShards=%d (or wrap)", a, b, si.NrShards)
	}
}
