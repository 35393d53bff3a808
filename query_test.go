package scylla

import (
	"testing"

	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/transport"
)

func TestQueryTokenSingleKey(t *testing.T) {
	t.Parallel()

	val := frame.Value{N: 4, Bytes: []byte{0, 0, 0, 42}}
	q := Query{
		stmt: transport.Statement{
			Values:    []frame.Value{val},
			PkIndexes: []uint16{0},
			PkCnt:     1,
		},
	}

	tok, ok := q.token()
	if !ok {
		t.Fatal("token() returned ok=false for a statement with one pk index")
	}
	if want := transport.MurmurToken(val.Bytes); tok != want {
		t.Fatalf("token() = %d, want %d (MurmurToken of the raw pk bytes)", tok, want)
	}
}

func TestQueryTokenNoPrimaryKey(t *testing.T) {
	t.Parallel()

	q := Query{stmt: transport.Statement{PkCnt: 0}}
	if _, ok := q.token(); ok {
		t.Fatal("token() returned ok=true for a statement with PkCnt=0")
	}
}

func TestQueryTokenCompositeKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	v1 := frame.Value{N: 4, Bytes: []byte{0, 0, 0, 1}}
	v2 := frame.Value{N: 4, Bytes: []byte{0, 0, 0, 2}}
	q := Query{
		stmt: transport.Statement{
			Values:    []frame.Value{v1, v2},
			PkIndexes: []uint16{0, 1},
			PkCnt:     2,
		},
	}

	first, ok := q.token()
	if !ok {
		t.Fatal("token() returned ok=false")
	}
	second, _ := q.token()
	if first != second {
		t.Fatalf("token() is not stable across calls: %d != %d", first, second)
	}
}

func TestSessionConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultSessionConfig("ks")
	if err := cfg.Validate(); err != ErrNoHosts {
		t.Fatalf("Validate() with no hosts = %v, want ErrNoHosts", err)
	}

	cfg = DefaultSessionConfig("ks", "127.0.0.1:9042")
	cfg.Events = []EventType{"BOGUS_EVENT"}
	if err := cfg.Validate(); err != ErrEventType {
		t.Fatalf("Validate() with bogus event = %v, want ErrEventType", err)
	}

	cfg = DefaultSessionConfig("ks", "127.0.0.1:9042")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on a well-formed config = %v, want nil", err)
	}
}
