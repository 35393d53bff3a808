package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Prepare)(nil)

// Prepare spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: [long string] statement to prepare.
type Prepare struct {
	Statement string
}

func (p *Prepare) WriteTo(b *frame.Buffer) {
	b.WriteLongString(p.Statement)
}

func (*Prepare) OpCode() frame.OpCode {
	return frame.OpPrepare
}
