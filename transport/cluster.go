package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/frame/response"
)

// Cluster discovers the ring from one or more seed hosts, keeps a
// HostSelectionPolicy's view of it current, and owns the control
// connection used to REGISTER for topology/status/schema events.
//
// Replication is resolved with a single cluster-wide ReplicationStrategy
// rather than introspected per-keyspace from system_schema.keyspaces:
// schema introspection beyond wire-protocol concerns is out of scope, so
// the strategy is supplied by the caller (SetStrategy) and defaults to
// SimpleStrategy{RF: 3}.
type Cluster struct {
	cfg      ConnConfig
	policy   HostSelectionPolicy
	events   []string
	strategy ReplicationStrategy

	mu    sync.RWMutex
	nodes []*Node
	ring  Ring

	control *Conn
	done    chan struct{}
}

func NewCluster(cfg ConnConfig, policy HostSelectionPolicy, events []string, hosts ...string) (*Cluster, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("cluster: no hosts given")
	}

	c := &Cluster{
		cfg:      cfg,
		policy:   policy,
		events:   events,
		strategy: SimpleStrategy{RF: 3},
		done:     make(chan struct{}),
	}

	ctx := context.Background()
	if err := c.refresh(ctx, hosts); err != nil {
		return nil, err
	}

	if len(events) > 0 {
		control, err := OpenConn(ctx, hosts[0], nil, cfg)
		if err == nil {
			if err := control.Register(ctx, events); err == nil {
				c.control = control
				go c.eventLoop(hosts)
			} else {
				control.Close()
			}
		}
	}

	return c, nil
}

// SetStrategy overrides the replication strategy used for subsequent ring
// rebuilds; it does not trigger an immediate rebuild.
func (c *Cluster) SetStrategy(s ReplicationStrategy) {
	c.mu.Lock()
	c.strategy = s
	c.mu.Unlock()
}

func (c *Cluster) Policy() HostSelectionPolicy {
	return c.policy
}

func (c *Cluster) NewQueryInfo() QueryInfo {
	return QueryInfo{}
}

func (c *Cluster) NewTokenAwareQueryInfo(token Token, keyspace string) (QueryInfo, error) {
	return QueryInfo{tokenAware: true, token: token, keyspace: keyspace}, nil
}

func (c *Cluster) Close() {
	close(c.done)
	if c.control != nil {
		c.control.Close()
	}

	c.mu.RLock()
	nodes := c.nodes
	c.mu.RUnlock()
	for _, n := range nodes {
		n.Close()
	}
}

// eventLoop rebuilds the ring whenever a topology- or status-changing
// event arrives. Schema change events are observed but otherwise ignored,
// since schema introspection is out of scope.
func (c *Cluster) eventLoop(hosts []string) {
	events := c.control.Events()
	for {
		select {
		case resp, ok := <-events:
			if !ok || resp.Err != nil {
				return
			}
			if ev, ok := resp.Response.(*response.Event); ok {
				switch ev.Type {
				case "TOPOLOGY_CHANGE", "STATUS_CHANGE":
					_ = c.refresh(context.Background(), hosts)
				}
			}
		case <-c.done:
			return
		}
	}
}

func (c *Cluster) refresh(ctx context.Context, hosts []string) error {
	var bootstrap *Conn
	var bootstrapAddr string
	var lastErr error
	for _, h := range hosts {
		conn, err := OpenConn(ctx, h, nil, c.cfg)
		if err == nil {
			bootstrap = conn
			bootstrapAddr = h
			break
		}
		lastErr = err
	}
	if bootstrap == nil {
		return fmt.Errorf("cluster: could not reach any seed host: %w", lastErr)
	}
	defer bootstrap.Close()

	_, portStr, err := net.SplitHostPort(bootstrapAddr)
	if err != nil {
		portStr = "9042"
	}

	localRes, err := bootstrap.Query(ctx, Statement{
		Content:     "SELECT host_id, data_center, rack, tokens FROM system.local",
		Consistency: frame.ONE,
	}, nil)
	if err != nil {
		return fmt.Errorf("cluster: querying system.local: %w", err)
	}
	if len(localRes.Rows) == 0 {
		return fmt.Errorf("cluster: system.local returned no rows")
	}

	local, localTokens, err := parseNodeRow(localRes.Rows[0], bootstrapAddr)
	if err != nil {
		return fmt.Errorf("cluster: parsing system.local: %w", err)
	}

	peersRes, err := bootstrap.Query(ctx, Statement{
		Content:     "SELECT peer, host_id, data_center, rack, tokens FROM system.peers",
		Consistency: frame.ONE,
	}, nil)
	if err != nil {
		return fmt.Errorf("cluster: querying system.peers: %w", err)
	}

	nodes := []*Node{local}
	tokens := map[*Node][]Token{local: localTokens}

	for _, row := range peersRes.Rows {
		if len(row) < 1 || row[0].IsNull() {
			continue
		}
		ip, err := frame.DecodeInet(row[0].Bytes)
		if err != nil {
			continue
		}
		addr := net.JoinHostPort(ip.String(), portStr)

		n, tk, err := parseNodeRow(row[1:], addr)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
		tokens[n] = tk
	}

	for _, n := range nodes {
		n.Init(ctx, c.cfg)
	}

	c.mu.Lock()
	strategy := c.strategy
	c.mu.Unlock()

	ring := BuildRing(nodes, tokens, strategy, local.datacenter)

	c.mu.Lock()
	c.nodes = nodes
	c.ring = ring
	c.mu.Unlock()

	c.policy.setTopology(nodes, ring)

	return nil
}

// parseNodeRow decodes a (host_id, data_center, rack, tokens) row as
// produced by both system.local and system.peers (minus peer's leading
// address column, already consumed by the caller).
func parseNodeRow(row frame.Row, addr string) (*Node, []Token, error) {
	if len(row) < 4 {
		return nil, nil, fmt.Errorf("expected 4 columns, got %d", len(row))
	}

	var hostID frame.UUID
	if !row[0].IsNull() {
		id, err := frame.DecodeUUID(row[0].Bytes)
		if err != nil {
			return nil, nil, fmt.Errorf("host_id: %w", err)
		}
		hostID = id
	}

	dc, _ := frame.DecodeText(row[1].Bytes)
	rack, _ := frame.DecodeText(row[2].Bytes)

	tokenStrs, err := decodeTextSet(row[3].Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens: %w", err)
	}

	tokens := make([]Token, 0, len(tokenStrs))
	for _, s := range tokenStrs {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		tokens = append(tokens, Token(v))
	}

	return NewNode(hostID, addr, dc, rack), tokens, nil
}

// decodeTextSet decodes a CQL set<text>/list<text> collection body: an
// [int] element count followed by that many [bytes] elements (native
// protocol v4 collection encoding).
func decodeTextSet(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	var b frame.Buffer
	b.Write(raw)
	n := b.ReadInt()
	out := make([]string, n)
	for i := range out {
		out[i] = string(b.ReadBytes())
	}
	if err := b.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
