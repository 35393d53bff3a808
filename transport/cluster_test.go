package transport

import (
	"reflect"
	"testing"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

func encodeTextSet(vals ...string) []byte {
	var b frame.Buffer
	b.WriteInt(int32(len(vals)))
	for _, v := range vals {
		b.WriteBytes([]byte(v))
	}
	return b.Bytes()
}

func TestDecodeTextSetRoundTrip(t *testing.T) {
	t.Parallel()

	raw := encodeTextSet("-9223372036854775808", "0", "4611686018427387903")
	got, err := decodeTextSet(raw)
	if err != nil {
		t.Fatalf("decodeTextSet() = %v", err)
	}
	want := []string{"-9223372036854775808", "0", "4611686018427387903"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decodeTextSet() = %v, want %v", got, want)
	}
}

func TestDecodeTextSetEmpty(t *testing.T) {
	t.Parallel()

	got, err := decodeTextSet(encodeTextSet())
	if err != nil {
		t.Fatalf("decodeTextSet() = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("decodeTextSet() = %v, want empty", got)
	}
}

func TestDecodeTextSetNilInput(t *testing.T) {
	t.Parallel()

	got, err := decodeTextSet(nil)
	if err != nil {
		t.Fatalf("decodeTextSet(nil) = %v", err)
	}
	if got != nil {
		t.Fatalf("decodeTextSet(nil) = %v, want nil", got)
	}
}

func TestParseNodeRowDecodesTokens(t *testing.T) {
	t.Parallel()

	row := frame.Row{
		{Bytes: nil, N: -1},
		{Bytes: []byte("dc1")},
		{Bytes: []byte("rack1")},
		{Bytes: encodeTextSet("100", "200", "not-a-number", "300")},
	}

	node, tokens, err := parseNodeRow(row, "10.0.0.1:19042")
	if err != nil {
		t.Fatalf("parseNodeRow() = %v", err)
	}
	if node.Datacenter() != "dc1" || node.Rack() != "rack1" {
		t.Fatalf("node = %+v", node)
	}
	want := []Token{100, 200, 300}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v (malformed entries skipped)", tokens, want)
	}
}

func TestParseNodeRowRejectsShortRow(t *testing.T) {
	t.Parallel()

	_, _, err := parseNodeRow(frame.Row{{Bytes: []byte("dc1")}}, "10.0.0.1:19042")
	if err == nil {
		t.Fatal("parseNodeRow() with 1 column = nil error, want error")
	}
}
