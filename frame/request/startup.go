package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Startup)(nil)

// Startup spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Initializes the connection, negotiating CQL_VERSION and, optionally,
// COMPRESSION. Must be the first message on a new connection unless the
// server first sends AUTHENTICATE after OPTIONS/SUPPORTED.
type Startup struct {
	Options frame.StartupOptions
}

func (s *Startup) WriteTo(b *frame.Buffer) {
	b.WriteStringMap(s.Options)
}

func (*Startup) OpCode() frame.OpCode {
	return frame.OpStartup
}
