package transport

import "github.com/shardkeeper/scylla-go-driver/frame"

// Statement is the immutable-ish description of one CQL statement together
// with its bound values and routing metadata. The Query request builder
// carries one Statement; EXECUTE's Statement is produced by Prepare from the
// server's Prepared RESULT.
type Statement struct {
	Content string
	Values  []frame.Value

	// ID is the 16-byte MD5 of Content, set once the statement has been
	// prepared on at least one node (§3 Prepared Entry).
	ID []byte

	// Metadata is the bound-variable metadata returned by a Prepared
	// RESULT; nil for statements that have never been prepared.
	Metadata *frame.ResultMetadata

	// ResultMetadata is the result-column metadata returned alongside
	// Metadata, used to skip re-sending column metadata on EXECUTE when
	// NoSkipMetadata is not set.
	ResultMetadata *frame.ResultMetadata

	// PkIndexes lists the positions within Values that together form the
	// partition key, the single source of truth for token computation
	// (§3 Prepared Entry, §9 Open Question resolution in SPEC_FULL.md).
	PkIndexes []uint16
	PkCnt     int

	Consistency       frame.Consistency
	SerialConsistency frame.Consistency
	HasSerialConsist  bool
	Timestamp         int64
	HasTimestamp      bool

	PageSize       int32
	NoSkipMetadata bool
	Compression    bool
	Idempotent     bool
}

// Clone makes a value copy safe for concurrent use by iterators and retried
// requests; Values/PkIndexes get their own backing arrays so a retry that
// mutates bound values (e.g. paging state threading) cannot race the
// original.
func (s Statement) Clone() Statement {
	v := s
	v.Values = append([]frame.Value(nil), s.Values...)
	v.PkIndexes = append([]uint16(nil), s.PkIndexes...)
	return v
}

// SkipMetadata reports whether EXECUTE should omit result metadata,
// relying on the cached metadata from the original Prepared response.
func (s Statement) SkipMetadata() bool {
	return !s.NoSkipMetadata && s.Metadata != nil
}
