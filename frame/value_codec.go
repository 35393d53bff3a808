package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"net"

	"gopkg.in/inf.v0"
)

// This file implements the typed encoders/decoders for every CQL primitive
// named in §3: fixed-width numerics, text, boolean, uuid, inet, blob,
// decimal, varint, timestamp, date, time and duration. Collections, tuples
// and UDTs have no encoder here: a caller composes them from these building
// blocks, since their shape depends on a recursive Option rather than a
// single primitive.

func EncodeInt(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func DecodeInt(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("int: expected 4 bytes, got %d", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func EncodeBigInt(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b[:]
}

func DecodeBigInt(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("bigint: expected 8 bytes, got %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func EncodeSmallInt(v int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return b[:]
}

func DecodeSmallInt(b []byte) (int16, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("smallint: expected 2 bytes, got %d", len(b))
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func EncodeTinyInt(v int8) []byte { return []byte{byte(v)} }

func DecodeTinyInt(b []byte) (int8, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("tinyint: expected 1 byte, got %d", len(b))
	}
	return int8(b[0]), nil
}

func EncodeFloat(v float32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

func DecodeFloat(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("float: expected 4 bytes, got %d", len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func EncodeDouble(v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

func DecodeDouble(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("double: expected 8 bytes, got %d", len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func EncodeBoolean(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func DecodeBoolean(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, fmt.Errorf("boolean: expected 1 byte, got %d", len(b))
	}
	return b[0] != 0, nil
}

func EncodeText(v string) []byte { return []byte(v) }

func DecodeText(b []byte) (string, error) { return string(b), nil }

func EncodeUUID(u UUID) []byte {
	out := make([]byte, 16)
	copy(out, u[:])
	return out
}

func DecodeUUID(b []byte) (UUID, error) {
	var u UUID
	if len(b) != 16 {
		return u, fmt.Errorf("uuid: expected 16 bytes, got %d", len(b))
	}
	copy(u[:], b)
	return u, nil
}

func EncodeInet(ip net.IP) []byte {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip.To16()
}

func DecodeInet(b []byte) (net.IP, error) {
	switch len(b) {
	case 4, 16:
		ip := make(net.IP, len(b))
		copy(ip, b)
		return ip, nil
	default:
		return nil, fmt.Errorf("inet: expected 4 or 16 bytes, got %d", len(b))
	}
}

func EncodeBlob(v []byte) []byte { return v }

func DecodeBlob(b []byte) ([]byte, error) { return b, nil }

// EncodeVarint writes the minimal two's-complement big-endian
// representation of v.
func EncodeVarint(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	return bigIntToTwosComplement(v)
}

func DecodeVarint(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return big.NewInt(0), nil
	}
	return twosComplementToBigInt(b), nil
}

// EncodeDecimal writes scale(i32) + unscaled-bigint-bytes.
func EncodeDecimal(d *inf.Dec) []byte {
	unscaled := d.UnscaledBig()
	scale := int32(d.Scale())
	var buf Buffer
	buf.WriteInt(scale)
	buf.Write(EncodeVarint(unscaled))
	return buf.Bytes()
}

func DecodeDecimal(b []byte) (*inf.Dec, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("decimal: expected at least 4 bytes, got %d", len(b))
	}
	scale := int32(binary.BigEndian.Uint32(b[:4]))
	unscaled, err := DecodeVarint(b[4:])
	if err != nil {
		return nil, fmt.Errorf("decimal: %w", err)
	}
	return inf.NewDecBig(unscaled, inf.Scale(scale)), nil
}

// EncodeTimestamp writes milliseconds since epoch as a [long].
func EncodeTimestamp(ms int64) []byte { return EncodeBigInt(ms) }

func DecodeTimestamp(b []byte) (int64, error) { return DecodeBigInt(b) }

// dateEpochBias is 2^31, the bias added to the epoch-day value so that it
// fits an unsigned 32-bit range symmetric around the epoch.
const dateEpochBias = int64(1) << 31

// EncodeDate writes a day count as unsigned epoch-day + 2^31.
func EncodeDate(epochDay int32) []byte {
	return EncodeInt(int32(int64(epochDay) + dateEpochBias - (1 << 32)))
}

func DecodeDate(b []byte) (int32, error) {
	v, err := DecodeInt(b)
	if err != nil {
		return 0, fmt.Errorf("date: %w", err)
	}
	biased := uint32(v)
	return int32(int64(biased) - dateEpochBias), nil
}

// EncodeTime writes nanoseconds since midnight as a [long].
func EncodeTime(ns int64) []byte { return EncodeBigInt(ns) }

func DecodeTime(b []byte) (int64, error) { return DecodeBigInt(b) }

func bigIntToTwosComplement(v *big.Int) []byte {
	neg := v.Sign() < 0
	var abs big.Int
	abs.Abs(v)
	b := abs.Bytes()
	if neg {
		// two's complement of a positive magnitude
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		carry := true
		for i := range b {
			b[i] = ^b[i]
			if carry {
				b[i]++
				carry = b[i] == 0
			}
		}
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		if len(b) == 0 || b[0]&0x80 == 0 {
			b = append([]byte{0xFF}, b...)
		}
	} else if len(b) == 0 || b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return b
}

func twosComplementToBigInt(b []byte) *big.Int {
	neg := b[0]&0x80 != 0
	if !neg {
		return new(big.Int).SetBytes(b)
	}
	inv := make([]byte, len(b))
	for i, v := range b {
		inv[i] = ^v
	}
	magnitude := new(big.Int).SetBytes(inv)
	magnitude.Add(magnitude, big.NewInt(1))
	magnitude.Neg(magnitude)
	return magnitude
}
