package frame

import "fmt"

// The As* accessors decode a Value's raw bytes as the named CQL type,
// for callers (internal system-table queries such as
// Node.FetchSchemaVersion) that already know a column's type out of band
// rather than consulting its Option.

func (v Value) AsUUID() (UUID, error) {
	if v.IsNull() {
		return UUID{}, fmt.Errorf("value is NULL")
	}
	return DecodeUUID(v.Bytes)
}

func (v Value) AsText() (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("value is NULL")
	}
	return DecodeText(v.Bytes)
}

func (v Value) AsInt() (int32, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("value is NULL")
	}
	return DecodeInt(v.Bytes)
}

func (v Value) AsBigInt() (int64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("value is NULL")
	}
	return DecodeBigInt(v.Bytes)
}

func (v Value) AsBoolean() (bool, error) {
	if v.IsNull() {
		return false, fmt.Errorf("value is NULL")
	}
	return DecodeBoolean(v.Bytes)
}
