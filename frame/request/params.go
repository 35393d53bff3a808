package request

import "github.com/shardkeeper/scylla-go-driver/frame"

// QueryParams is the <query_parameters> structure shared by QUERY, EXECUTE
// and, per-statement, BATCH. Flag bits, per §4.1:
//
//	0x01 Values             0x08 WithPagingState        0x40 WithNamesForValues
//	0x02 SkipMetadata        0x10 WithSerialConsistency
//	0x04 PageSize            0x20 WithDefaultTimestamp
type QueryParams struct {
	Consistency       frame.Consistency
	Values            []frame.Value
	Names             []string // parallel to Values, only if FlagWithNamesForValues
	SkipMetadata      bool
	PageSize          int32
	HasPageSize       bool
	PagingState       []byte
	SerialConsistency frame.Consistency
	HasSerialConsist  bool
	Timestamp         int64
	HasTimestamp      bool
	Keyspace          string
	HasKeyspace       bool
}

func (p QueryParams) flags() byte {
	var f byte
	if len(p.Values) > 0 {
		f |= frame.FlagValues
	}
	if p.SkipMetadata {
		f |= frame.FlagSkipMetadata
	}
	if p.HasPageSize {
		f |= frame.FlagPageSize
	}
	if p.PagingState != nil {
		f |= frame.FlagWithPagingState
	}
	if p.HasSerialConsist {
		f |= frame.FlagWithSerialConsist
	}
	if p.HasTimestamp {
		f |= frame.FlagWithDefaultTimeout
	}
	if len(p.Names) > 0 {
		f |= frame.FlagWithNamesForValues
	}
	return f
}

func (p QueryParams) WriteTo(b *frame.Buffer) {
	b.WriteConsistency(p.Consistency)
	b.WriteByte(p.flags())
	if len(p.Values) > 0 {
		b.WriteShort(uint16(len(p.Values)))
		for i, v := range p.Values {
			if len(p.Names) > 0 {
				b.WriteString(p.Names[i])
			}
			b.WriteValue(v)
		}
	}
	if p.HasPageSize {
		b.WriteInt(p.PageSize)
	}
	if p.PagingState != nil {
		b.WriteBytes(p.PagingState)
	}
	if p.HasSerialConsist {
		b.WriteConsistency(p.SerialConsistency)
	}
	if p.HasTimestamp {
		b.WriteLong(p.Timestamp)
	}
	// Keyspace (protocol v5) intentionally unsupported: out of scope (§1, non-v4 versions).
}
