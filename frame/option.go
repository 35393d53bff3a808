package frame

// WriteOption encodes a column type descriptor as found in RESULT metadata.
func WriteOption(b *Buffer, o Option) {
	b.WriteShort(uint16(o.ID))
	switch o.ID {
	case CustomID:
		b.WriteString(o.Custom)
	case ListID:
		WriteOption(b, *o.List)
	case SetID:
		WriteOption(b, *o.Set)
	case MapID:
		WriteOption(b, o.Map.Key)
		WriteOption(b, o.Map.Value)
	case UDTID:
		b.WriteString(o.UDT.Keyspace)
		b.WriteString(o.UDT.Name)
		b.WriteShort(uint16(len(o.UDT.FieldNames)))
		for i, name := range o.UDT.FieldNames {
			b.WriteString(name)
			WriteOption(b, o.UDT.FieldTypes[i])
		}
	case TupleID:
		b.WriteShort(uint16(len(o.Tuple)))
		for _, t := range o.Tuple {
			WriteOption(b, t)
		}
	default:
		// fixed/native type, nothing more to encode
	}
}

// ReadOption decodes a column type descriptor, recursing into
// collection/tuple/UDT element types.
func ReadOption(b *Buffer) Option {
	id := OptionID(b.ReadShort())
	o := Option{ID: id}
	switch id {
	case CustomID:
		o.Custom = b.ReadString()
	case ListID:
		elem := ReadOption(b)
		o.List = &elem
	case SetID:
		elem := ReadOption(b)
		o.Set = &elem
	case MapID:
		k := ReadOption(b)
		v := ReadOption(b)
		o.Map = &MapOption{Key: k, Value: v}
	case UDTID:
		udt := &UDTOption{
			Keyspace: b.ReadString(),
			Name:     b.ReadString(),
		}
		n := b.ReadShort()
		udt.FieldNames = make([]string, n)
		udt.FieldTypes = make([]Option, n)
		for i := uint16(0); i < n; i++ {
			udt.FieldNames[i] = b.ReadString()
			udt.FieldTypes[i] = ReadOption(b)
		}
		o.UDT = udt
	case TupleID:
		n := b.ReadShort()
		o.Tuple = make([]Option, n)
		for i := range o.Tuple {
			o.Tuple[i] = ReadOption(b)
		}
	default:
		if !isNativeOptionID(id) {
			b.fail(errProtocolViolationf("unknown column type id %#x", uint16(id)))
		}
	}
	return o
}

func isNativeOptionID(id OptionID) bool {
	switch id {
	case AsciiID, BigIntID, BlobID, BooleanID, CounterID, DecimalID, DoubleID,
		FloatID, IntID, TimestampID, UUIDID, VarcharID, VarintID, TimeUUIDID,
		InetID, DateID, TimeID, SmallIntID, TinyIntID, DurationID:
		return true
	default:
		return false
	}
}
