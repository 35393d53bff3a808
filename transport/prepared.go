package transport

import (
	"sync"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

// PreparedEntry is one process-wide record of a prepared statement: its
// original text, the bind-variable metadata the server returned, the
// partition-key positions derived from it, and the set of node addresses
// known to already hold it prepared.
type PreparedEntry struct {
	Statement string
	Metadata  *frame.ResultMetadata
	PkIndexes []uint16

	mu    sync.Mutex
	nodes map[string]struct{}
}

// KnowsNode reports whether addr has previously confirmed this statement
// prepared.
func (e *PreparedEntry) KnowsNode(addr string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.nodes[addr]
	return ok
}

func (e *PreparedEntry) markNode(addr string) {
	e.mu.Lock()
	if e.nodes == nil {
		e.nodes = make(map[string]struct{})
	}
	e.nodes[addr] = struct{}{}
	e.mu.Unlock()
}

// PreparedStatementRegistry is the process-wide MD5(statement)->metadata
// map every Conn consults to recover a statement's text after an
// Unprepared error names only its id.
type PreparedStatementRegistry struct {
	mu      sync.RWMutex
	entries map[string]*PreparedEntry
}

func NewPreparedStatementRegistry() *PreparedStatementRegistry {
	return &PreparedStatementRegistry{entries: make(map[string]*PreparedEntry)}
}

// Insert records that addr has prepared statement under id, caching its
// metadata and partition-key indexes the first time this id is seen.
func (r *PreparedStatementRegistry) Insert(id []byte, statement string, meta *frame.ResultMetadata, pkIndexes []uint16, addr string) {
	key := string(id)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &PreparedEntry{Statement: statement, Metadata: meta, PkIndexes: pkIndexes}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.markNode(addr)
}

// Lookup returns the registered entry for id, if any.
func (r *PreparedStatementRegistry) Lookup(id []byte) (*PreparedEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[string(id)]
	return e, ok
}
