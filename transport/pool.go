package transport

import (
	"context"
	"fmt"
	"sync"
)

// ConnPool holds the connections a Node keeps open to one address: one
// per shard when the node advertises Scylla sharding, a single
// general-purpose connection otherwise.
type ConnPool struct {
	addr      string
	shardInfo ShardInfo

	mu    sync.RWMutex
	conns []*Conn // indexed by shard; len 1 when not shard-aware
}

// NewConnPool opens an initial connection to addr to discover its sharding
// parameters from SUPPORTED, then opens one additional connection per
// remaining shard via OpenShardConn.
func NewConnPool(ctx context.Context, addr string, cfg ConnConfig) (*ConnPool, error) {
	first, err := OpenConn(ctx, addr, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening initial connection to %s: %w", addr, err)
	}

	si := ShardInfo{NrShards: 1}
	if first.supported != nil && first.supported.IsScyllaShardAware() {
		si = ShardInfo{
			NrShards:  first.supported.NrShards(),
			MSBIgnore: first.supported.ShardingIgnoreMSB(),
		}
	}

	p := &ConnPool{
		addr:      addr,
		shardInfo: si,
		conns:     make([]*Conn, si.NrShards),
	}
	// first's shard is whatever the ephemeral local port happened to hash
	// to; it is parked in slot 0 regardless, and the dials below fill slots
	// 1..NrShards-1. Slot 0 is never redialled.
	p.conns[0] = first

	for shard := uint16(1); shard < si.NrShards; shard++ {
		conn, err := OpenShardConn(ctx, addr, si, cfg)
		if err != nil {
			// Degrade gracefully: leave the slot nil, LeastBusyConn skips it.
			continue
		}
		p.conns[shard] = conn
	}

	return p, nil
}

// LeastBusyConn returns the open connection with the fewest in-flight
// requests.
func (p *ConnPool) LeastBusyConn() (*Conn, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var best *Conn
	bestInUse := -1
	for _, c := range p.conns {
		if c == nil {
			continue
		}
		if n := c.InUse(); best == nil || n < bestInUse {
			best, bestInUse = c, n
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no open connections to %s", p.addr)
	}
	return best, nil
}

// Conn returns the connection owning token's shard, falling back to the
// least busy connection when that shard has no open connection.
func (p *ConnPool) Conn(token Token) (*Conn, error) {
	shard := p.shardInfo.Shard(token)

	p.mu.RLock()
	var c *Conn
	if int(shard) < len(p.conns) {
		c = p.conns[shard]
	}
	p.mu.RUnlock()

	if c != nil {
		return c, nil
	}
	return p.LeastBusyConn()
}

// Close tears down every connection in the pool.
func (p *ConnPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		if c != nil {
			c.Close()
		}
	}
}
