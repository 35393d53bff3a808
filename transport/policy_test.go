package transport

import (
	"testing"
)

func TestRoundRobinPolicyCyclesAllNodes(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc1")
	n3 := newTestNode("n3", "dc1")

	p := NewRoundRobinPolicy()
	p.setTopology([]*Node{n1, n2, n3}, nil)

	seen := make(map[*Node]int)
	for i := 0; i < 30; i++ {
		n := p.Node(QueryInfo{}, 0)
		if n == nil {
			t.Fatalf("Node returned nil at iteration %d", i)
		}
		seen[n]++
	}

	for _, n := range []*Node{n1, n2, n3} {
		if seen[n] == 0 {
			t.Fatalf("node %v was never selected across 30 picks", n)
		}
	}
}

func TestRoundRobinPolicyEmpty(t *testing.T) {
	t.Parallel()

	p := NewRoundRobinPolicy()
	if n := p.Node(QueryInfo{}, 0); n != nil {
		t.Fatalf("Node() on empty policy = %v, want nil", n)
	}
}

func TestSimpleTokenAwarePolicyPrefersReplicas(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	n2 := newTestNode("n2", "dc1")
	n3 := newTestNode("n3", "dc1")

	tokens := map[*Node][]Token{
		n1: {0},
		n2: {100},
		n3: {200},
	}
	ring := BuildRing([]*Node{n1, n2, n3}, tokens, SimpleStrategy{RF: 1}, "dc1")

	fallback := NewRoundRobinPolicy()
	p := NewSimpleTokenAwarePolicy(fallback, 1)
	p.setTopology([]*Node{n1, n2, n3}, ring)

	qi := QueryInfo{tokenAware: true, token: 50}
	if got := p.Node(qi, 0); got != n2 {
		t.Fatalf("Node(qi, 0) = %v, want n2 (owner of token 50)", got)
	}

	// Beyond the replica set, falls back to the round-robin policy.
	if got := p.Node(qi, 1); got == nil {
		t.Fatalf("Node(qi, 1) = nil, want a fallback node")
	}
}

func TestSimpleTokenAwarePolicyNonTokenAwareFallsBackImmediately(t *testing.T) {
	t.Parallel()

	n1 := newTestNode("n1", "dc1")
	fallback := NewRoundRobinPolicy()
	p := NewSimpleTokenAwarePolicy(fallback, 3)
	p.setTopology([]*Node{n1}, nil)

	if got := p.Node(QueryInfo{}, 0); got != n1 {
		t.Fatalf("Node(non-token-aware, 0) = %v, want n1 via fallback", got)
	}
}

func TestDCAwareRoundRobinPrefersLocalDC(t *testing.T) {
	t.Parallel()

	local1 := newTestNode("l1", "dc1")
	local2 := newTestNode("l2", "dc1")
	remote := newTestNode("r1", "dc2")

	p := NewDCAwareRoundRobin("dc1")
	p.setTopology([]*Node{local1, local2, remote}, nil)

	for i := 0; i < 10; i++ {
		n := p.Node(QueryInfo{}, 0)
		if n.datacenter != "dc1" {
			t.Fatalf("Node(_, 0) = %v, want a dc1 node while local nodes remain", n)
		}
	}

	if got := p.Node(QueryInfo{}, 2); got != remote {
		t.Fatalf("Node(_, 2) = %v, want remote node once local set is exhausted", got)
	}
}
