package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Execute)(nil)

// Execute spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: [short bytes] prepared id + <query_parameters>. The id MUST be the
// MD5(statement-bytes) computed client-side; the server's Prepared RESULT
// confirms it matches its own cache key.
type Execute struct {
	ID     []byte
	Params QueryParams
}

func (e *Execute) WriteTo(b *frame.Buffer) {
	b.WriteShortBytes(e.ID)
	e.Params.WriteTo(b)
}

func (*Execute) OpCode() frame.OpCode {
	return frame.OpExecute
}
