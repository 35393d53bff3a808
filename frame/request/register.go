package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Register)(nil)

// Register spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Subscribes the connection to server-pushed EVENT frames for the given
// event types (TOPOLOGY_CHANGE, STATUS_CHANGE, SCHEMA_CHANGE).
type Register struct {
	EventTypes frame.StringList
}

func (r *Register) WriteTo(b *frame.Buffer) {
	b.WriteStringList(r.EventTypes)
}

func (*Register) OpCode() frame.OpCode {
	return frame.OpRegister
}
