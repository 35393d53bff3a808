package response

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Response = (*Event)(nil)

// Event spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// A server-pushed notification for a connection that REGISTERed for it.
// Body: [string] event type, followed by a type-specific payload.
type Event struct {
	Type string

	TopologyChange *TopologyChangeEvent
	StatusChange   *StatusChangeEvent
	SchemaChange   *SchemaChangeResult
}

type TopologyChangeEvent struct {
	ChangeType string
	Address    string
	Port       int32
}

type StatusChangeEvent struct {
	ChangeType string
	Address    string
	Port       int32
}

func (*Event) OpCode() frame.OpCode { return frame.OpEvent }

func parseInet(b *frame.Buffer) (string, int32) {
	n := b.ReadByte()
	addr := b.ReadBytesFixed(int(n))
	port := b.ReadInt()
	ip, err := frame.DecodeInet(addr)
	if err != nil {
		b.Fail(err)
		return "", port
	}
	return ip.String(), port
}

func ParseEvent(b *frame.Buffer) *Event {
	e := &Event{Type: b.ReadString()}
	switch e.Type {
	case "TOPOLOGY_CHANGE":
		ct := b.ReadString()
		addr, port := parseInet(b)
		e.TopologyChange = &TopologyChangeEvent{ChangeType: ct, Address: addr, Port: port}
	case "STATUS_CHANGE":
		ct := b.ReadString()
		addr, port := parseInet(b)
		e.StatusChange = &StatusChangeEvent{ChangeType: ct, Address: addr, Port: port}
	case "SCHEMA_CHANGE":
		e.SchemaChange = parseSchemaChange(b)
	default:
		b.Fail(frame.NewProtocolViolation("unknown event type %q", e.Type))
	}
	return e
}
