package response

import (
	"fmt"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

// CodedError is implemented by every parsed ERROR body, letting callers
// (notably transport's retry decider) branch on the server-assigned code
// without a type switch per error kind.
type CodedError interface {
	error
	Code() frame.ErrorCode
}

var (
	_ frame.Response = (*Error)(nil)
	_ CodedError      = (*Error)(nil)
)

// Error spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: code u32 + message [string] + code-specific payload (§4.1).
type Error struct {
	ErrCode ErrorCode
	Message string

	Unavailable     *UnavailableInfo
	WriteTimeout    *WriteTimeoutInfo
	ReadTimeout     *ReadTimeoutInfo
	ReadFailure     *ReadFailureInfo
	WriteFailure    *WriteFailureInfo
	FunctionFailure *FunctionFailureInfo
	AlreadyExists   *AlreadyExistsInfo
	Unprepared      *UnpreparedInfo
}

type ErrorCode = frame.ErrorCode

type UnavailableInfo struct {
	Consistency frame.Consistency
	Required    int32
	Alive       int32
}

type WriteTimeoutInfo struct {
	Consistency frame.Consistency
	Received    int32
	BlockFor    int32
	WriteType   string
}

type ReadTimeoutInfo struct {
	Consistency frame.Consistency
	Received    int32
	BlockFor    int32
	DataPresent bool
}

type ReadFailureInfo struct {
	Consistency frame.Consistency
	Received    int32
	BlockFor    int32
	NumFailures int32
	DataPresent bool
}

type WriteFailureInfo struct {
	Consistency frame.Consistency
	Received    int32
	BlockFor    int32
	NumFailures int32
	WriteType   string
}

type FunctionFailureInfo struct {
	Keyspace string
	Function string
	ArgTypes []string
}

type AlreadyExistsInfo struct {
	Keyspace string
	Table    string
}

type UnpreparedInfo struct {
	ID []byte
}

func (e *Error) OpCode() frame.OpCode    { return frame.OpError }
func (e *Error) Code() frame.ErrorCode   { return e.ErrCode }
func (e *Error) Error() string {
	return fmt.Sprintf("cql error %#06x: %s", uint32(e.ErrCode), e.Message)
}

func ParseError(b *frame.Buffer) *Error {
	e := &Error{
		ErrCode: frame.ErrorCode(b.ReadInt()),
		Message: b.ReadString(),
	}

	switch e.ErrCode {
	case frame.ErrUnavailable:
		e.Unavailable = &UnavailableInfo{
			Consistency: b.ReadConsistency(),
			Required:    b.ReadInt(),
			Alive:       b.ReadInt(),
		}
	case frame.ErrWriteTimeout:
		e.WriteTimeout = &WriteTimeoutInfo{
			Consistency: b.ReadConsistency(),
			Received:    b.ReadInt(),
			BlockFor:    b.ReadInt(),
			WriteType:   b.ReadString(),
		}
	case frame.ErrReadTimeout:
		e.ReadTimeout = &ReadTimeoutInfo{
			Consistency: b.ReadConsistency(),
			Received:    b.ReadInt(),
			BlockFor:    b.ReadInt(),
			DataPresent: b.ReadByte() != 0,
		}
	case frame.ErrReadFailure:
		e.ReadFailure = &ReadFailureInfo{
			Consistency: b.ReadConsistency(),
			Received:    b.ReadInt(),
			BlockFor:    b.ReadInt(),
			NumFailures: b.ReadInt(),
			DataPresent: b.ReadByte() != 0,
		}
	case frame.ErrWriteFailure:
		e.WriteFailure = &WriteFailureInfo{
			Consistency: b.ReadConsistency(),
			Received:    b.ReadInt(),
			BlockFor:    b.ReadInt(),
			NumFailures: b.ReadInt(),
			WriteType:   b.ReadString(),
		}
	case frame.ErrFunctionFailure:
		e.FunctionFailure = &FunctionFailureInfo{
			Keyspace: b.ReadString(),
			Function: b.ReadString(),
			ArgTypes: b.ReadStringList(),
		}
	case frame.ErrAlreadyExists:
		e.AlreadyExists = &AlreadyExistsInfo{
			Keyspace: b.ReadString(),
			Table:    b.ReadString(),
		}
	case frame.ErrUnprepared:
		e.Unprepared = &UnpreparedInfo{ID: b.ReadShortBytes()}
	default:
		// ServerError, ProtocolError, AuthError, Overloaded, IsBootstrapping,
		// TruncateError, SyntaxError, Unauthorized, Invalid, ConfigError carry
		// no payload beyond code + message.
	}

	return e
}
