package transport

import "go.uber.org/atomic"

// QueryInfo is everything a HostSelectionPolicy needs to pick a node for
// one request: whether it carries a routing token, and the keyspace it
// targets. No policy in this package reads the keyspace; replicas come from
// the ring built with the Cluster's single ReplicationStrategy.
type QueryInfo struct {
	tokenAware bool
	token      Token
	keyspace   string
}

// HostSelectionPolicy orders candidate nodes for a query. Node(qi, 0) is
// tried first; Node(qi, 1), Node(qi, 2), ... are consulted in order as
// earlier picks fail, until Node returns nil.
type HostSelectionPolicy interface {
	Node(qi QueryInfo, idx int) *Node
	// setTopology is called by Cluster whenever the node list or ring is
	// rebuilt, so policies can refresh whatever view they cache.
	setTopology(nodes []*Node, ring Ring)
}

// RoundRobinPolicy cycles through all known nodes in round-robin order,
// ignoring tokens.
type RoundRobinPolicy struct {
	offset atomic.Uint64
	nodes  atomic.Value // []*Node
}

func NewRoundRobinPolicy() *RoundRobinPolicy {
	p := &RoundRobinPolicy{}
	p.nodes.Store([]*Node{})
	return p
}

func (p *RoundRobinPolicy) setTopology(nodes []*Node, _ Ring) {
	cp := make([]*Node, len(nodes))
	copy(cp, nodes)
	p.nodes.Store(cp)
}

func (p *RoundRobinPolicy) Node(_ QueryInfo, idx int) *Node {
	nodes := p.nodes.Load().([]*Node)
	if len(nodes) == 0 || idx >= len(nodes) {
		return nil
	}
	start := p.offset.Add(1)
	return nodes[(int(start)+idx)%len(nodes)]
}

// tokenAwarePolicy is shared by SimpleTokenAwarePolicy and
// NetworkTopologyTokenAwarePolicy: try the token's replicas first, then
// fall back to fallback's ordering for anything beyond that, or for
// queries with no routing token at all.
type tokenAwarePolicy struct {
	fallback HostSelectionPolicy
	ring     atomic.Value // Ring
}

func (p *tokenAwarePolicy) setTopology(nodes []*Node, ring Ring) {
	p.ring.Store(ring)
	p.fallback.setTopology(nodes, ring)
}

func (p *tokenAwarePolicy) replicas(qi QueryInfo) []*Node {
	ring, _ := p.ring.Load().(Ring)
	if !qi.tokenAware || len(ring) == 0 {
		return nil
	}
	local, remote := ring.Lookup(qi.token)
	return append(append([]*Node(nil), local...), remote...)
}

func (p *tokenAwarePolicy) node(qi QueryInfo, idx int) *Node {
	reps := p.replicas(qi)
	if idx < len(reps) {
		return reps[idx]
	}
	return p.fallback.Node(qi, idx-len(reps))
}

// SimpleTokenAwarePolicy routes to a token's replicas before falling back
// to fallback's ordering. The replicas are the ones precomputed in the ring
// passed to setTopology (built with the Cluster's ReplicationStrategy); RF
// is stored but not used to compute them.
type SimpleTokenAwarePolicy struct {
	tokenAwarePolicy
	RF int
}

func NewSimpleTokenAwarePolicy(fallback HostSelectionPolicy, rf int) *SimpleTokenAwarePolicy {
	p := &SimpleTokenAwarePolicy{RF: rf}
	p.fallback = fallback
	return p
}

func (p *SimpleTokenAwarePolicy) Node(qi QueryInfo, idx int) *Node {
	return p.node(qi, idx)
}

// NetworkTopologyTokenAwarePolicy routes to a token's replicas before
// falling back. As with SimpleTokenAwarePolicy, the replicas come from the
// ring passed to setTopology; DCRf is stored but not used to compute them.
type NetworkTopologyTokenAwarePolicy struct {
	tokenAwarePolicy
	DCRf map[string]int
}

func NewNetworkTopologyTokenAwarePolicy(fallback HostSelectionPolicy, dcRf map[string]int) *NetworkTopologyTokenAwarePolicy {
	p := &NetworkTopologyTokenAwarePolicy{DCRf: dcRf}
	p.fallback = fallback
	return p
}

func (p *NetworkTopologyTokenAwarePolicy) Node(qi QueryInfo, idx int) *Node {
	return p.node(qi, idx)
}

// DCAwareRoundRobin prefers nodes in localDC, round-robin among them, and
// only offers remote-DC nodes once the local set is exhausted.
type DCAwareRoundRobin struct {
	localDC string
	offset  atomic.Uint64
	local   atomic.Value // []*Node
	remote  atomic.Value // []*Node
}

func NewDCAwareRoundRobin(localDC string) *DCAwareRoundRobin {
	p := &DCAwareRoundRobin{localDC: localDC}
	p.local.Store([]*Node{})
	p.remote.Store([]*Node{})
	return p
}

func (p *DCAwareRoundRobin) setTopology(nodes []*Node, _ Ring) {
	var local, remote []*Node
	for _, n := range nodes {
		if n.datacenter == p.localDC {
			local = append(local, n)
		} else {
			remote = append(remote, n)
		}
	}
	p.local.Store(local)
	p.remote.Store(remote)
}

func (p *DCAwareRoundRobin) Node(_ QueryInfo, idx int) *Node {
	local := p.local.Load().([]*Node)
	if idx < len(local) {
		start := p.offset.Add(1)
		return local[(int(start)+idx)%len(local)]
	}

	remote := p.remote.Load().([]*Node)
	ridx := idx - len(local)
	if ridx >= len(remote) {
		return nil
	}
	return remote[ridx]
}
