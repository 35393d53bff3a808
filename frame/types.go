package frame

// Request is implemented by every request-frame body (STARTUP, OPTIONS,
// QUERY, PREPARE, EXECUTE, BATCH, AUTH_RESPONSE, REGISTER).
type Request interface {
	WriteTo(b *Buffer)
	OpCode() OpCode
}

// Response is implemented by every response-frame body (ERROR, READY,
// AUTHENTICATE, SUPPORTED, RESULT, EVENT, AUTH_CHALLENGE, AUTH_SUCCESS).
type Response interface {
	OpCode() OpCode
}

// Bytes is a plain byte slice, used where the spec calls for [bytes]
// without the NULL/UNSET distinction that Value preserves.
type Bytes = []byte

// Short is a CQL [short], exposed for callers that build frame bodies
// outside the Buffer helpers (e.g. Query.token's composite-key encoding).
type Short = uint16

// Value is a length-prefixed CQL value. N >= 0 is a normal value of that
// many bytes, N == -1 is NULL, N == -2 is UNSET (requests only, protocol
// v4+).
type Value struct {
	N     int32
	Bytes []byte
	// Type is populated when the value's column type is known (e.g. from
	// prepared-statement metadata), and consulted by Query.Bind to validate
	// serialization against the destination CQL type.
	Type *Option
}

const (
	ValueIsNull   int32 = -1
	ValueIsUnset  int32 = -2
)

func (v Value) IsNull() bool  { return v.N == ValueIsNull }
func (v Value) IsUnset() bool { return v.N == ValueIsUnset }

// UUID is a 16-byte CQL uuid/timeuuid.
type UUID [16]byte

// StringList is a CQL [string list].
type StringList = []string

// StartupOptions carries the [string map] body of a STARTUP request, e.g.
// CQL_VERSION and COMPRESSION.
type StartupOptions = map[string]string

// Option recursively describes a CQL column type (§4.1 RESULT metadata).
type Option struct {
	ID OptionID

	// Custom, when ID == CustomID, names the custom type class.
	Custom string

	// List/Set carry a single element type.
	List *Option
	Set  *Option

	// Map carries key and value types.
	Map *MapOption

	// Tuple carries its component types in order.
	Tuple []Option

	// UDT describes a user-defined type.
	UDT *UDTOption
}

type MapOption struct {
	Key   Option
	Value Option
}

type UDTOption struct {
	Keyspace   string
	Name       string
	FieldNames []string
	FieldTypes []Option
}

// ColumnSpec describes one column of a result set or bound statement.
type ColumnSpec struct {
	Keyspace string
	Table    string
	Name     string
	Type     Option
}

// ResultMetadata precedes the row data of a Rows result and, identically
// shaped, the bound-variable metadata of a Prepared result.
type ResultMetadata struct {
	Flags          int32
	ColumnsCount   int32
	PagingState    []byte
	GlobalTableSpec bool
	Columns        []ColumnSpec
	// GlobalKeyspace/GlobalTable are set when GlobalTableSpec is true, so
	// per-column Keyspace/Table may be left empty.
	GlobalKeyspace string
	GlobalTable    string
}

const (
	resultFlagGlobalTablesSpec int32 = 0x0001
	resultFlagHasMorePages     int32 = 0x0002
	resultFlagNoMetadata       int32 = 0x0004
)

func (m ResultMetadata) HasMorePages() bool {
	return m.Flags&resultFlagHasMorePages != 0
}

// Row is one decoded row: one Value per column, in column order.
type Row []Value
