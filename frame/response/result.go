package response

import (
	"github.com/shardkeeper/scylla-go-driver/frame"
)

var _ frame.Response = (*Result)(nil)

const (
	metaFlagGlobalTableSpec int32 = 0x0001
	metaFlagHasMorePages    int32 = 0x0002
	metaFlagNoMetadata      int32 = 0x0004
	metaFlagPkIndices       int32 = 0x0008 // not read: v4 prepared <metadata> always carries pk_count
)

// Result spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body starts with a kind u32 discriminant: 1 Void, 2 Rows, 3 SetKeyspace,
// 4 Prepared, 5 SchemaChange.
type Result struct {
	Kind frame.ResultKind

	Rows         *RowsResult
	SetKeyspace  string
	Prepared     *PreparedResult
	SchemaChange *SchemaChangeResult
}

func (*Result) OpCode() frame.OpCode { return frame.OpResult }

type RowsResult struct {
	Metadata frame.ResultMetadata
	Rows     []frame.Row
}

type PreparedResult struct {
	ID             []byte
	ResultMetaID   []byte // Scylla/v5 result_metadata_id, empty under v4
	Metadata       frame.ResultMetadata
	PkIndexes      []uint16
	ResultMetadata frame.ResultMetadata
}

type SchemaChangeResult struct {
	ChangeType string
	Target     string
	Keyspace   string
	Object     string
	Arguments  []string
}

func parseResultMetadata(b *frame.Buffer, allowPkIndices bool) (frame.ResultMetadata, []uint16) {
	var m frame.ResultMetadata
	m.Flags = b.ReadInt()
	m.ColumnsCount = b.ReadInt()

	var pkIndexes []uint16
	if allowPkIndices {
		n := b.ReadInt()
		pkIndexes = make([]uint16, n)
		for i := range pkIndexes {
			pkIndexes[i] = b.ReadShort()
		}
	}

	if m.Flags&metaFlagHasMorePages != 0 {
		m.PagingState = b.ReadBytes()
	}

	if m.Flags&metaFlagNoMetadata != 0 {
		return m, pkIndexes
	}

	global := m.Flags&metaFlagGlobalTableSpec != 0
	m.GlobalTableSpec = global
	if global {
		m.GlobalKeyspace = b.ReadString()
		m.GlobalTable = b.ReadString()
	}

	m.Columns = make([]frame.ColumnSpec, m.ColumnsCount)
	for i := range m.Columns {
		var cs frame.ColumnSpec
		if !global {
			cs.Keyspace = b.ReadString()
			cs.Table = b.ReadString()
		} else {
			cs.Keyspace = m.GlobalKeyspace
			cs.Table = m.GlobalTable
		}
		cs.Name = b.ReadString()
		cs.Type = frame.ReadOption(b)
		m.Columns[i] = cs
	}

	return m, pkIndexes
}

func parseRows(b *frame.Buffer) *RowsResult {
	meta, _ := parseResultMetadata(b, false)
	rowCount := b.ReadInt()

	rows := make([]frame.Row, rowCount)
	for i := range rows {
		row := make(frame.Row, meta.ColumnsCount)
		for c := range row {
			row[c] = b.ReadValue()
		}
		rows[i] = row
	}

	return &RowsResult{Metadata: meta, Rows: rows}
}

func parsePrepared(b *frame.Buffer) *PreparedResult {
	id := b.ReadShortBytes()
	meta, pkIdx := parseResultMetadata(b, true)
	resultMeta, _ := parseResultMetadata(b, false)
	return &PreparedResult{
		ID:             id,
		Metadata:       meta,
		PkIndexes:      pkIdx,
		ResultMetadata: resultMeta,
	}
}

func parseSchemaChange(b *frame.Buffer) *SchemaChangeResult {
	sc := &SchemaChangeResult{
		ChangeType: b.ReadString(),
		Target:     b.ReadString(),
	}
	switch sc.Target {
	case "KEYSPACE":
		sc.Keyspace = b.ReadString()
	case "TABLE", "TYPE":
		sc.Keyspace = b.ReadString()
		sc.Object = b.ReadString()
	case "FUNCTION", "AGGREGATE":
		sc.Keyspace = b.ReadString()
		sc.Object = b.ReadString()
		sc.Arguments = b.ReadStringList()
	default:
		// unknown target: tolerated, forward-compatible field
	}
	return sc
}

func ParseResult(b *frame.Buffer) *Result {
	kind := frame.ResultKind(b.ReadInt())
	r := &Result{Kind: kind}

	switch kind {
	case frame.ResultVoid:
	case frame.ResultRows:
		r.Rows = parseRows(b)
	case frame.ResultSetKeyspace:
		r.SetKeyspace = b.ReadString()
	case frame.ResultPrepared:
		r.Prepared = parsePrepared(b)
	case frame.ResultSchemaChange:
		r.SchemaChange = parseSchemaChange(b)
	default:
		b.Fail(frame.NewProtocolViolation("unknown RESULT kind %d", kind))
	}

	return r
}
