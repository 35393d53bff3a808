package transport

import (
	"testing"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

func newTestNode(addr, dc string) *Node {
	return NewNode(frame.UUID{}, addr, dc, "rack1")
}

func TestBuildRingSimpleStrategyLookup(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc1")
	n3 := newTestNode("n3", "dc1")

	tokens := map[*Node][]Token{
		n1: {0},
		n2: {100},
		n3: {200},
	}

	ring := BuildRing([]*Node{n1, n2, n3}, tokens, SimpleStrategy{RF: 2}, "dc1")
	if len(ring) != 3 {
		t.Fatalf("len(ring) = %d, want 3", len(ring))
	}

	local, remote := ring.Lookup(50)
	if len(remote) != 0 {
		t.Fatalf("remote = %v, want empty (single DC)", remote)
	}
	if len(local) != 2 {
		t.Fatalf("len(local) = %d, want 2 (RF=2)", len(local))
	}
	if local[0] != n2 {
		t.Fatalf("local[0] = %v, want n2 (first node clockwise from token 50)", local[0])
	}
}

func TestBuildRingLookupWrapsAround(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc1")

	tokens := map[*Node][]Token{
		n1: {10},
		n2: {20},
	}

	ring := BuildRing([]*Node{n1, n2}, tokens, SimpleStrategy{RF: 1}, "dc1")

	// A token larger than every ring token wraps around to the first entry.
	local, _ := ring.Lookup(1000)
	if len(local) != 1 || local[0] != n1 {
		t.Fatalf("Lookup(1000) local = %v, want [n1] (wrap-around)", local)
	}
}

func TestBuildRingNetworkTopologyStrategySplitsLocalRemote(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc2")
	n3 := newTestNode("n3", "dc1")
	n4 := newTestNode("n4", "dc2")

	tokens := map[*Node][]Token{
		n1: {0},
		n2: {10},
		n3: {20},
		n4: {30},
	}

	strategy := NetworkTopologyStrategy{DCRf: map[string]int{"dc1": 1, "dc2": 1}}
	ring := BuildRing([]*Node{n1, n2, n3, n4}, tokens, strategy, "dc1")

	local, remote := ring.Lookup(5)
	if len(local) != 1 || local[0].datacenter != "dc1" {
		t.Fatalf("local = %v, want exactly one dc1 node", local)
	}
	if len(remote) != 1 || remote[0].datacenter != "dc2" {
		t.Fatalf("remote = %v, want exactly one dc2 node", remote)
	}
}

func TestBuildRingNetworkTopologyStrategyHonorsPerDCReplicationFactor(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc1")
	n3 := newTestNode("n3", "dc1")
	n4 := newTestNode("n4", "dc1")

	tokens := map[*Node][]Token{
		n1: {0},
		n2: {10},
		n3: {20},
		n4: {30},
	}

	strategy := NetworkTopologyStrategy{DCRf: map[string]int{"dc1": 3}}
	ring := BuildRing([]*Node{n1, n2, n3, n4}, tokens, strategy, "dc1")

	local, remote := ring.Lookup(5)
	if len(remote) != 0 {
		t.Fatalf("remote = %v, want empty (single DC)", remote)
	}
	if len(local) != 3 {
		t.Fatalf("len(local) = %d, want 3 (RF=3), got %v", len(local), local)
	}
}

func TestRingLookupEmpty(t *testing.T) {
	t.Parallel()

	var ring Ring
	local, remote := ring.Lookup(42)
	if local != nil || remote != nil {
		t.Fatalf("Lookup on empty ring = (%v, %v), want (nil, nil)", local, remote)
	}
}
