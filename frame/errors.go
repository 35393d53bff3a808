package frame

import "fmt"

// ProtocolViolation marks malformed wire content: unknown opcodes, short
// bodies, or anything else that breaks the byte-exact contract of §4.1.
// It is never retried by the worker protocol.
type ProtocolViolation struct {
	msg string
}

func (e *ProtocolViolation) Error() string { return "protocol violation: " + e.msg }

func errProtocolViolationf(format string, args ...interface{}) error {
	return &ProtocolViolation{msg: fmt.Sprintf(format, args...)}
}

// NewProtocolViolation is exported so opcode-specific parsers elsewhere in
// the module can raise the same error kind.
func NewProtocolViolation(format string, args ...interface{}) error {
	return errProtocolViolationf(format, args...)
}
