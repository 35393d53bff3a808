package response

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Response = (*Ready)(nil)

// Ready spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Sent by the server in response to a STARTUP, when no authentication is
// required. Body is empty.
type Ready struct{}

func (*Ready) OpCode() frame.OpCode { return frame.OpReady }

func ParseReady(b *frame.Buffer) *Ready {
	_ = b
	return &Ready{}
}
