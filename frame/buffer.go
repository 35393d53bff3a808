package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Buffer is a growable byte buffer with a read cursor, used for both
// encoding outgoing frames and decoding incoming ones. A single failed
// read sets a sticky error instead of panicking, so a parser can run to
// completion and be checked once via Error().
type Buffer struct {
	buf []byte
	pos int
	err error
}

// Reset clears the buffer for reuse without releasing its backing array.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.pos = 0
	b.err = nil
}

// Bytes returns the buffer's full written content.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Error returns the first error encountered while reading, if any.
func (b *Buffer) Error() error {
	return b.err
}

func (b *Buffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Fail records a parse-level error (e.g. an unrecognized discriminant)
// without needing a short read to trigger it. Only the first call sticks.
func (b *Buffer) Fail(err error) {
	b.fail(err)
}

// Write appends raw bytes.
func (b *Buffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

func (b *Buffer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

// WriteShort writes a [short]: unsigned 16-bit big-endian.
func (b *Buffer) WriteShort(v uint16) {
	b.buf = append(b.buf, byte(v>>8), byte(v))
}

// WriteInt writes an [int]: signed 32-bit big-endian.
func (b *Buffer) WriteInt(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
}

// WriteLong writes an [long]: signed 64-bit big-endian.
func (b *Buffer) WriteLong(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	b.buf = append(b.buf, tmp[:]...)
}

// WriteString writes a [string]: [short] length prefix + UTF-8 bytes.
func (b *Buffer) WriteString(s string) {
	b.WriteShort(uint16(len(s)))
	b.buf = append(b.buf, s...)
}

// WriteLongString writes a [long string]: [int] length prefix + UTF-8 bytes.
func (b *Buffer) WriteLongString(s string) {
	b.WriteInt(int32(len(s)))
	b.buf = append(b.buf, s...)
}

// WriteShortBytes writes a [short bytes]: [short] length + bytes.
func (b *Buffer) WriteShortBytes(p []byte) {
	b.WriteShort(uint16(len(p)))
	b.buf = append(b.buf, p...)
}

// WriteBytes writes a [bytes]: [int] length + bytes, -1 encodes nil.
func (b *Buffer) WriteBytes(p []byte) {
	if p == nil {
		b.WriteInt(-1)
		return
	}
	b.WriteInt(int32(len(p)))
	b.buf = append(b.buf, p...)
}

// WriteValue writes a [value]: [int] N followed by N bytes (N>=0), or the
// special lengths -1 (NULL) and -2 (UNSET, requests only).
func (b *Buffer) WriteValue(v Value) {
	b.WriteInt(v.N)
	if v.N > 0 {
		b.buf = append(b.buf, v.Bytes...)
	}
}

// WriteStringList writes a [string list].
func (b *Buffer) WriteStringList(l []string) {
	b.WriteShort(uint16(len(l)))
	for _, s := range l {
		b.WriteString(s)
	}
}

// WriteStringMap writes a [string map].
func (b *Buffer) WriteStringMap(m map[string]string) {
	b.WriteShort(uint16(len(m)))
	for k, v := range m {
		b.WriteString(k)
		b.WriteString(v)
	}
}

func (b *Buffer) WriteUUID(u UUID) {
	b.buf = append(b.buf, u[:]...)
}

func (b *Buffer) WriteConsistency(c Consistency) {
	b.WriteShort(c)
}

// Read cursor side.

func (b *Buffer) remaining() []byte {
	if b.pos > len(b.buf) {
		return nil
	}
	return b.buf[b.pos:]
}

func (b *Buffer) need(n int) []byte {
	r := b.remaining()
	if len(r) < n {
		b.fail(fmt.Errorf("short read: need %d bytes, have %d", n, len(r)))
		return nil
	}
	b.pos += n
	return r[:n]
}

func (b *Buffer) ReadByte() byte {
	p := b.need(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (b *Buffer) ReadShort() uint16 {
	p := b.need(2)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint16(p)
}

func (b *Buffer) ReadInt() int32 {
	p := b.need(4)
	if p == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(p))
}

func (b *Buffer) ReadLong() int64 {
	p := b.need(8)
	if p == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(p))
}

func (b *Buffer) ReadString() string {
	n := b.ReadShort()
	p := b.need(int(n))
	if p == nil {
		return ""
	}
	return string(p)
}

func (b *Buffer) ReadLongString() string {
	n := b.ReadInt()
	if n < 0 {
		b.fail(fmt.Errorf("negative long string length %d", n))
		return ""
	}
	p := b.need(int(n))
	if p == nil {
		return ""
	}
	return string(p)
}

func (b *Buffer) ReadShortBytes() []byte {
	n := b.ReadShort()
	p := b.need(int(n))
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

// ReadBytes reads a [bytes]: nil is returned for length -1.
func (b *Buffer) ReadBytes() []byte {
	n := b.ReadInt()
	if n < 0 {
		return nil
	}
	p := b.need(int(n))
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

// ReadValue reads a [value], preserving the N/-1/-2 distinction.
func (b *Buffer) ReadValue() Value {
	n := b.ReadInt()
	if n <= 0 {
		return Value{N: n}
	}
	p := b.need(int(n))
	if p == nil {
		return Value{N: n}
	}
	out := make([]byte, len(p))
	copy(out, p)
	return Value{N: n, Bytes: out}
}

// ReadBytesFixed reads exactly n raw bytes (used for [inet], which is not
// length-prefixed the way [bytes] is — its length byte is read
// separately by the caller).
func (b *Buffer) ReadBytesFixed(n int) []byte {
	p := b.need(n)
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

func (b *Buffer) ReadStringList() []string {
	n := b.ReadShort()
	out := make([]string, n)
	for i := range out {
		out[i] = b.ReadString()
	}
	return out
}

func (b *Buffer) ReadStringMap() map[string]string {
	n := b.ReadShort()
	out := make(map[string]string, n)
	for i := uint16(0); i < n; i++ {
		k := b.ReadString()
		v := b.ReadString()
		out[k] = v
	}
	return out
}

func (b *Buffer) ReadStringMultiMap() map[string][]string {
	n := b.ReadShort()
	out := make(map[string][]string, n)
	for i := uint16(0); i < n; i++ {
		k := b.ReadString()
		v := b.ReadStringList()
		out[k] = v
	}
	return out
}

func (b *Buffer) ReadUUID() UUID {
	var u UUID
	p := b.need(16)
	if p == nil {
		return u
	}
	copy(u[:], p)
	return u
}

func (b *Buffer) ReadConsistency() Consistency {
	return b.ReadShort()
}

// CopyBuffer writes a Buffer's content to w, used by the connection writer
// to flush one framed request in a single syscall-friendly call.
func CopyBuffer(b *Buffer, w io.Writer) (int, error) {
	n, err := w.Write(b.Bytes())
	return n, err
}

// BufferWriter adapts a Buffer as an io.Writer so io.CopyN can append
// directly into it while reading off the wire.
func BufferWriter(b *Buffer) io.Writer {
	return bufferWriter{b}
}

type bufferWriter struct{ b *Buffer }

func (w bufferWriter) Write(p []byte) (int, error) {
	w.b.buf = append(w.b.buf, p...)
	return len(p), nil
}
