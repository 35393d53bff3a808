package transport

import "sort"

// ReplicationStrategy computes, for a ring position, which nodes replicate
// the data owned by that token, split into those in localDC and the rest
// (§4.5 Ring: SimpleStrategy and NetworkTopologyStrategy replica placement).
type ReplicationStrategy interface {
	Replicas(ring Ring, pos int, localDC string) (local, remote []*Node)
}

// SimpleStrategy replicates to the next RF-1 distinct nodes walking the
// ring clockwise from the owning token, regardless of datacenter.
type SimpleStrategy struct {
	RF int
}

func (s SimpleStrategy) Replicas(ring Ring, pos int, localDC string) (local, remote []*Node) {
	rf := s.RF
	if rf <= 0 {
		rf = 1
	}

	it := replicaIter{ring: ring, offset: pos}
	seen := make(map[*Node]struct{}, rf)
	for len(seen) < rf {
		n := it.Next()
		if n == nil {
			break
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if n.datacenter == localDC {
			local = append(local, n)
		} else {
			remote = append(remote, n)
		}
	}
	return local, remote
}

// NetworkTopologyStrategy replicates to RF[dc] distinct nodes per
// datacenter, walking the ring clockwise independently for each DC.
type NetworkTopologyStrategy struct {
	DCRf map[string]int
}

func (s NetworkTopologyStrategy) Replicas(ring Ring, pos int, localDC string) (local, remote []*Node) {
	want := make(map[string]int, len(s.DCRf))
	for dc, rf := range s.DCRf {
		if rf > 0 {
			want[dc] = rf
		}
	}

	needTotal := 0
	for _, rf := range want {
		needTotal += rf
	}

	it := replicaIter{ring: ring, offset: pos}
	seen := make(map[*Node]struct{})
	got := make(map[string]int, len(want))
	gotTotal := 0
	for gotTotal < needTotal {
		n := it.Next()
		if n == nil {
			break
		}
		if _, ok := seen[n]; ok {
			continue
		}
		need, ok := want[n.datacenter]
		if !ok || got[n.datacenter] >= need {
			seen[n] = struct{}{}
			continue
		}
		seen[n] = struct{}{}
		got[n.datacenter]++
		gotTotal++
		if n.datacenter == localDC {
			local = append(local, n)
		} else {
			remote = append(remote, n)
		}
	}
	return local, remote
}

// BuildRing sorts nodes by their tokens and, for every ring position,
// precomputes the local/remote replica set so a lookup is a single binary
// search followed by a slice read (§8 S1: ring rebuilds must not block
// concurrent routing).
func BuildRing(nodes []*Node, tokens map[*Node][]Token, strategy ReplicationStrategy, localDC string) Ring {
	var ring Ring
	for _, n := range nodes {
		for _, t := range tokens[n] {
			ring = append(ring, RingEntry{node: n, token: t})
		}
	}

	sort.Sort(ring)

	for i := range ring {
		ring[i].localReplicas, ring[i].remoteReplicas = strategy.Replicas(ring, i, localDC)
	}

	return ring
}

// Lookup returns the local and remote replicas owning token.
func (r Ring) Lookup(token Token) (local, remote []*Node) {
	if len(r) == 0 {
		return nil, nil
	}
	pos := r.tokenLowerBound(token)
	return r[pos].localReplicas, r[pos].remoteReplicas
}
