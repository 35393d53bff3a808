package frame

// CQL native protocol v4. See
// https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
const (
	CQLv4 = 0x04

	directionMask = 0x80
	versionMask   = 0x7F
)

// HeaderSize is the size in bytes of every frame header.
const HeaderSize = 9

// StreamID correlates a request with its response on one connection.
// Values in [0, MaxStreamID] are client-initiated; -1 is reserved for
// server-pushed EVENT frames.
type StreamID = int16

// MaxStreams is the number of concurrent in-flight requests a single
// connection can multiplex (2^15, ids 0..MaxStreamID inclusive).
const MaxStreams = 1 << 15

// MaxStreamID is the largest valid client stream id.
const MaxStreamID = MaxStreams - 1

// EventStreamID is the reserved stream id server-pushed EVENT frames
// arrive on, outside the client's stream allocator.
const EventStreamID StreamID = -1

// OpCode identifies the kind of a frame body. The opcode set is closed;
// any other byte on decode is a ProtocolViolation.
type OpCode uint8

const (
	OpError         OpCode = 0x00
	OpStartup       OpCode = 0x01
	OpReady         OpCode = 0x02
	OpAuthenticate  OpCode = 0x03
	OpOptions       OpCode = 0x05
	OpSupported     OpCode = 0x06
	OpQuery         OpCode = 0x07
	OpResult        OpCode = 0x08
	OpPrepare       OpCode = 0x09
	OpExecute       OpCode = 0x0A
	OpRegister      OpCode = 0x0B
	OpEvent         OpCode = 0x0C
	OpBatch         OpCode = 0x0D
	OpAuthChallenge OpCode = 0x0E
	OpAuthResponse  OpCode = 0x0F
	OpAuthSuccess   OpCode = 0x10
)

func (op OpCode) Valid() bool {
	switch op {
	case OpError, OpStartup, OpReady, OpAuthenticate, OpOptions, OpSupported,
		OpQuery, OpResult, OpPrepare, OpExecute, OpRegister, OpEvent, OpBatch,
		OpAuthChallenge, OpAuthResponse, OpAuthSuccess:
		return true
	default:
		return false
	}
}

func (op OpCode) String() string {
	switch op {
	case OpError:
		return "ERROR"
	case OpStartup:
		return "STARTUP"
	case OpReady:
		return "READY"
	case OpAuthenticate:
		return "AUTHENTICATE"
	case OpOptions:
		return "OPTIONS"
	case OpSupported:
		return "SUPPORTED"
	case OpQuery:
		return "QUERY"
	case OpResult:
		return "RESULT"
	case OpPrepare:
		return "PREPARE"
	case OpExecute:
		return "EXECUTE"
	case OpRegister:
		return "REGISTER"
	case OpEvent:
		return "EVENT"
	case OpBatch:
		return "BATCH"
	case OpAuthChallenge:
		return "AUTH_CHALLENGE"
	case OpAuthResponse:
		return "AUTH_RESPONSE"
	case OpAuthSuccess:
		return "AUTH_SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// Header flags, see frame.Header.
const (
	FlagCompression byte = 0x01
	FlagTracing     byte = 0x02
	FlagCustom      byte = 0x04
	FlagWarning     byte = 0x08
)

// Consistency is the CQL consistency level, sent as an unsigned short.
type Consistency = uint16

const (
	ANY         Consistency = 0x0000
	ONE         Consistency = 0x0001
	TWO         Consistency = 0x0002
	THREE       Consistency = 0x0003
	QUORUM      Consistency = 0x0004
	ALL         Consistency = 0x0005
	LOCALQUORUM Consistency = 0x0006
	EACHQUORUM  Consistency = 0x0007
	SERIAL      Consistency = 0x0008
	LOCALSERIAL Consistency = 0x0009
	LOCALONE    Consistency = 0x000A
)

// QUERY / EXECUTE / BATCH query_parameters flag bits.
const (
	FlagValues              byte = 0x01
	FlagSkipMetadata        byte = 0x02
	FlagPageSize            byte = 0x04
	FlagWithPagingState     byte = 0x08
	FlagWithSerialConsist   byte = 0x10
	FlagWithDefaultTimeout  byte = 0x20 // WithDefaultTimestamp (name kept short to match neighbours)
	FlagWithNamesForValues  byte = 0x40
)

// BatchKind distinguishes BATCH statement grouping semantics.
type BatchKind uint8

const (
	BatchLogged   BatchKind = 0
	BatchUnlogged BatchKind = 1
	BatchCounter  BatchKind = 2
)

// ErrorCode is the server-assigned CQL error code, see response.Error.
type ErrorCode uint32

const (
	ErrServerError     ErrorCode = 0x0000
	ErrProtocolError   ErrorCode = 0x000A
	ErrAuthError       ErrorCode = 0x0100
	ErrUnavailable     ErrorCode = 0x1000
	ErrOverloaded      ErrorCode = 0x1001
	ErrIsBootstrapping ErrorCode = 0x1002
	ErrTruncateError   ErrorCode = 0x1003
	ErrWriteTimeout    ErrorCode = 0x1100
	ErrReadTimeout     ErrorCode = 0x1200
	ErrReadFailure     ErrorCode = 0x1300
	ErrFunctionFailure ErrorCode = 0x1400
	ErrWriteFailure    ErrorCode = 0x1500
	ErrSyntaxError     ErrorCode = 0x2000
	ErrUnauthorized    ErrorCode = 0x2100
	ErrInvalid         ErrorCode = 0x2200
	ErrConfigError     ErrorCode = 0x2300
	ErrAlreadyExists   ErrorCode = 0x2400
	ErrUnprepared      ErrorCode = 0x2500
)

// ResultKind is the RESULT body discriminant.
type ResultKind uint32

const (
	ResultVoid         ResultKind = 1
	ResultRows         ResultKind = 2
	ResultSetKeyspace  ResultKind = 3
	ResultPrepared     ResultKind = 4
	ResultSchemaChange ResultKind = 5
)

// Option IDs for CQL column types, see frame.Option.
type OptionID uint16

const (
	CustomID    OptionID = 0x0000
	AsciiID     OptionID = 0x0001
	BigIntID    OptionID = 0x0002
	BlobID      OptionID = 0x0003
	BooleanID   OptionID = 0x0004
	CounterID   OptionID = 0x0005
	DecimalID   OptionID = 0x0006
	DoubleID    OptionID = 0x0007
	FloatID     OptionID = 0x0008
	IntID       OptionID = 0x0009
	TimestampID OptionID = 0x000B
	UUIDID      OptionID = 0x000C
	VarcharID   OptionID = 0x000D
	VarintID    OptionID = 0x000E
	TimeUUIDID  OptionID = 0x000F
	InetID      OptionID = 0x0010
	DateID      OptionID = 0x0011
	TimeID      OptionID = 0x0012
	SmallIntID  OptionID = 0x0013
	TinyIntID   OptionID = 0x0014
	DurationID  OptionID = 0x0015
	ListID      OptionID = 0x0020
	MapID       OptionID = 0x0021
	SetID       OptionID = 0x0022
	UDTID       OptionID = 0x0030
	TupleID     OptionID = 0x0031
)
