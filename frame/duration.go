package frame

import "fmt"

// Duration is the CQL DURATION type: months, days and nanoseconds kept
// separate since months/days are calendar-relative and cannot be folded
// into a fixed nanosecond count.
type Duration struct {
	Months      int32
	Days        int32
	Nanoseconds int64
}

// EncodeDuration writes the three components as zigzag-encoded vints, the
// wire representation Cassandra/Scylla use for the DURATION type.
func EncodeDuration(d Duration) []byte {
	var buf Buffer
	writeVint(&buf, zigzag64(int64(d.Months)))
	writeVint(&buf, zigzag64(int64(d.Days)))
	writeVint(&buf, zigzag64(d.Nanoseconds))
	return buf.Bytes()
}

func DecodeDuration(b []byte) (Duration, error) {
	pos := 0
	months, n, err := readVint(b[pos:])
	if err != nil {
		return Duration{}, fmt.Errorf("duration months: %w", err)
	}
	pos += n
	days, n, err := readVint(b[pos:])
	if err != nil {
		return Duration{}, fmt.Errorf("duration days: %w", err)
	}
	pos += n
	nanos, _, err := readVint(b[pos:])
	if err != nil {
		return Duration{}, fmt.Errorf("duration nanos: %w", err)
	}
	return Duration{
		Months:      int32(unzigzag64(months)),
		Days:        int32(unzigzag64(days)),
		Nanoseconds: unzigzag64(nanos),
	}, nil
}

func zigzag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// writeVint appends a variable-length unsigned integer in the
// Cassandra/Scylla "vint" format: the number of leading 1-bits in the
// first byte encodes how many extra bytes follow, big-endian.
func writeVint(buf *Buffer, v uint64) {
	extraBytes := vintExtraBytes(v)
	if extraBytes == 0 {
		buf.WriteByte(byte(v))
		return
	}
	firstByteMask := byte(0xFF << uint(8-extraBytes))
	firstByte := firstByteMask | byte(v>>uint(extraBytes*8))
	buf.WriteByte(firstByte)
	for i := extraBytes - 1; i >= 0; i-- {
		buf.WriteByte(byte(v >> uint(i*8)))
	}
}

func vintExtraBytes(v uint64) int {
	magnitude := 64 - leadingZeros64(v)
	for n := 0; n <= 8; n++ {
		// n extra bytes give 8-n-1 free bits in the first byte plus 8n bits.
		bits := (8 - n - 1) + n*8
		if n == 8 {
			bits = 64
		}
		if magnitude <= bits {
			return n
		}
	}
	return 8
}

func leadingZeros64(v uint64) int {
	n := 0
	for i := 63; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func readVint(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("vint: empty input")
	}
	first := b[0]
	extraBytes := leadingOnes(first)
	if 1+extraBytes > len(b) {
		return 0, 0, fmt.Errorf("vint: need %d bytes, have %d", 1+extraBytes, len(b))
	}
	var v uint64
	if extraBytes == 0 {
		v = uint64(first)
	} else {
		v = uint64(first) & (0xFF >> uint(extraBytes+1))
		for i := 0; i < extraBytes; i++ {
			v = v<<8 | uint64(b[1+i])
		}
	}
	return v, 1 + extraBytes, nil
}

func leadingOnes(b byte) int {
	n := 0
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) == 0 {
			break
		}
		n++
	}
	return n
}
