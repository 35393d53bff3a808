package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Query)(nil)

// Query spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: [long string] statement + <query_parameters>.
type Query struct {
	Content string
	Params  QueryParams
}

func (q *Query) WriteTo(b *frame.Buffer) {
	b.WriteLongString(q.Content)
	q.Params.WriteTo(b)
}

func (*Query) OpCode() frame.OpCode {
	return frame.OpQuery
}
