package transport

import (
	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/frame/response"
)

// QueryResult is the decoded, caller-facing outcome of a QUERY/EXECUTE.
type QueryResult struct {
	Rows         []frame.Row
	Metadata     *frame.ResultMetadata
	PagingState  []byte
	HasMorePages bool

	// Keyspace is set for a USE statement's SetKeyspace result.
	Keyspace string

	// SchemaChange carries DDL change notifications, when present.
	SchemaChange *response.SchemaChangeResult
}

// MakeQueryResult adapts a decoded frame.Response into a QueryResult,
// using fallbackMeta (the statement's cached prepared-result metadata)
// when the response has SkipMetadata set and therefore carries none of
// its own.
func MakeQueryResult(r frame.Response, fallbackMeta *frame.ResultMetadata) (QueryResult, error) {
	res, ok := r.(*response.Result)
	if !ok {
		return QueryResult{}, responseAsError(r)
	}

	switch res.Kind {
	case frame.ResultVoid:
		return QueryResult{}, nil
	case frame.ResultRows:
		meta := &res.Rows.Metadata
		if len(meta.Columns) == 0 && fallbackMeta != nil {
			meta = fallbackMeta
		}
		return QueryResult{
			Rows:         res.Rows.Rows,
			Metadata:     meta,
			PagingState:  res.Rows.Metadata.PagingState,
			HasMorePages: res.Rows.Metadata.HasMorePages(),
		}, nil
	case frame.ResultSetKeyspace:
		return QueryResult{Keyspace: res.SetKeyspace}, nil
	case frame.ResultSchemaChange:
		return QueryResult{SchemaChange: res.SchemaChange}, nil
	case frame.ResultPrepared:
		return QueryResult{}, nil
	default:
		return QueryResult{}, frame.NewProtocolViolation("unexpected result kind %d", res.Kind)
	}
}
