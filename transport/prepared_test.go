package transport

import (
	"sync"
	"testing"
)

func TestPreparedStatementRegistryInsertAndLookup(t *testing.T) {
	t.Parallel()

	r := NewPreparedStatementRegistry()
	id := []byte{0xde, 0xad, 0xbe, 0xef}

	r.Insert(id, "SELECT * FROM ks.t WHERE k = ?", nil, []uint16{0}, "10.0.0.1:19042")

	e, ok := r.Lookup(id)
	if !ok {
		t.Fatal("Lookup() after Insert() = false, want true")
	}
	if e.Statement != "SELECT * FROM ks.t WHERE k = ?" {
		t.Fatalf("Statement = %q", e.Statement)
	}
	if !e.KnowsNode("10.0.0.1:19042") {
		t.Fatal("KnowsNode(10.0.0.1:19042) = false, want true")
	}
	if e.KnowsNode("10.0.0.2:19042") {
		t.Fatal("KnowsNode(10.0.0.2:19042) = true, want false")
	}
}

func TestPreparedStatementRegistryLookupMiss(t *testing.T) {
	t.Parallel()

	r := NewPreparedStatementRegistry()
	if _, ok := r.Lookup([]byte{1, 2, 3}); ok {
		t.Fatal("Lookup() on an empty registry = true, want false")
	}
}

func TestPreparedStatementRegistryAccumulatesNodes(t *testing.T) {
	t.Parallel()

	r := NewPreparedStatementRegistry()
	id := []byte{0xaa, 0xbb}

	var wg sync.WaitGroup
	addrs := []string{"n1:9042", "n2:9042", "n3:9042"}
	for _, addr := range addrs {
		addr := addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Insert(id, "SELECT 1", nil, nil, addr)
		}()
	}
	wg.Wait()

	e, ok := r.Lookup(id)
	if !ok {
		t.Fatal("Lookup() after concurrent Insert() = false, want true")
	}
	for _, addr := range addrs {
		if !e.KnowsNode(addr) {
			t.Fatalf("KnowsNode(%s) = false, want true", addr)
		}
	}
}
