package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*Batch)(nil)

// BatchEntryKind distinguishes a statement given as CQL text from one
// given as a prepared-statement id within a BATCH body.
type BatchEntryKind uint8

const (
	BatchEntryString BatchEntryKind = 0
	BatchEntryID     BatchEntryKind = 1
)

// BatchEntry is one statement of a BATCH request: kind u8 (0=string,
// 1=id) + statement (long string or short bytes) + values.
type BatchEntry struct {
	Kind      BatchEntryKind
	Statement string // valid when Kind == BatchEntryString
	ID        []byte // valid when Kind == BatchEntryID
	Values    []frame.Value
	Names     []string
}

func (e BatchEntry) writeTo(b *frame.Buffer) {
	b.WriteByte(byte(e.Kind))
	switch e.Kind {
	case BatchEntryString:
		b.WriteLongString(e.Statement)
	case BatchEntryID:
		b.WriteShortBytes(e.ID)
	}

	withNames := len(e.Names) > 0
	b.WriteShort(uint16(len(e.Values)))
	for i, v := range e.Values {
		if withNames {
			b.WriteString(e.Names[i])
		}
		b.WriteValue(v)
	}
}

// Batch spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: kind u8 {0=Logged,1=Unlogged,2=Counter}; n u16; n entries;
// consistency; flags; optional serial consistency; optional timestamp.
type Batch struct {
	Kind              frame.BatchKind
	Entries           []BatchEntry
	Consistency       frame.Consistency
	SerialConsistency frame.Consistency
	HasSerialConsist  bool
	Timestamp         int64
	HasTimestamp      bool
	WithNamesForVals  bool
}

func (bt *Batch) flags() byte {
	var f byte
	if bt.HasSerialConsist {
		f |= frame.FlagWithSerialConsist
	}
	if bt.HasTimestamp {
		f |= frame.FlagWithDefaultTimeout
	}
	if bt.WithNamesForVals {
		f |= frame.FlagWithNamesForValues
	}
	return f
}

func (bt *Batch) WriteTo(b *frame.Buffer) {
	b.WriteByte(byte(bt.Kind))
	b.WriteShort(uint16(len(bt.Entries)))
	for _, e := range bt.Entries {
		e.writeTo(b)
	}
	b.WriteConsistency(bt.Consistency)
	b.WriteByte(bt.flags())
	if bt.HasSerialConsist {
		b.WriteConsistency(bt.SerialConsistency)
	}
	if bt.HasTimestamp {
		b.WriteLong(bt.Timestamp)
	}
}

func (*Batch) OpCode() frame.OpCode {
	return frame.OpBatch
}
