package frame

// Header is the fixed 9-byte frame header. Invariant: Length equals the
// number of body bytes actually written/read for this frame.
type Header struct {
	Version  uint8
	Flags    byte
	StreamID StreamID
	OpCode   OpCode
	Length   uint32
}

// ResponseVersion is the version byte a server sends back (direction bit set).
func ResponseVersion(v uint8) uint8 {
	return v | directionMask
}

// IsResponse reports whether the version byte marks a response frame.
func (h Header) IsResponse() bool {
	return h.Version&directionMask != 0
}

// ProtocolVersion strips the direction bit, yielding the protocol version.
func (h Header) ProtocolVersion() uint8 {
	return h.Version & versionMask
}

// WriteTo encodes the header fields as given; the connection writer always
// sets Version to CQLv4 with the direction bit clear (a request).
func (h Header) WriteTo(b *Buffer) {
	b.WriteByte(h.Version)
	b.WriteByte(h.Flags)
	b.WriteShort(uint16(h.StreamID))
	b.WriteByte(byte(h.OpCode))
	b.WriteInt(int32(h.Length))
}

// ParseHeader decodes the 9-byte header at the buffer's current position.
// The caller is expected to have already appended exactly HeaderSize bytes.
func ParseHeader(b *Buffer) Header {
	var h Header
	h.Version = b.ReadByte()
	h.Flags = b.ReadByte()
	h.StreamID = int16(b.ReadShort())
	op := OpCode(b.ReadByte())
	if !op.Valid() {
		b.fail(errProtocolViolationf("unknown opcode %#x", byte(op)))
	}
	h.OpCode = op
	h.Length = uint32(b.ReadInt())
	return h
}
