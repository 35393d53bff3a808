package scylla

import (
	"context"
	"fmt"

	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/frame/request"
	"github.com/shardkeeper/scylla-go-driver/transport"
)

// Batch collects unprepared and prepared statements to be sent together as
// a single BATCH request. Unlike Query, a Batch has no single routing
// token of its own: callers that need token-aware routing should pick a
// representative key and call SetToken explicitly.
type Batch struct {
	session *Session
	kind    frame.BatchKind
	entries []request.BatchEntry

	consistency       frame.Consistency
	serialConsistency frame.Consistency
	hasSerialConsist  bool
	timestamp         int64
	hasTimestamp      bool

	tokenAware bool
	token      transport.Token

	err []error
}

func (s *Session) Batch() *Batch {
	return &Batch{
		session:     s,
		kind:        frame.BatchLogged,
		consistency: s.cfg.DefaultConsistency,
	}
}

func (s *Session) UnloggedBatch() *Batch {
	b := s.Batch()
	b.kind = frame.BatchUnlogged
	return b
}

func (s *Session) CounterBatch() *Batch {
	b := s.Batch()
	b.kind = frame.BatchCounter
	return b
}

// AddStatement appends an unprepared CQL statement with its bound values.
func (b *Batch) AddStatement(content string, values ...frame.Value) *Batch {
	b.entries = append(b.entries, request.BatchEntry{
		Kind:      request.BatchEntryString,
		Statement: content,
		Values:    values,
	})
	return b
}

// AddPrepared appends an already-prepared statement by its server-assigned
// id, taken from a Statement returned by transport's Conn.Prepare or
// Node.Prepare.
func (b *Batch) AddPrepared(stmt transport.Statement, values ...frame.Value) *Batch {
	if len(stmt.ID) == 0 {
		b.err = append(b.err, fmt.Errorf("batch: statement %q has not been prepared", stmt.Content))
		return b
	}
	b.entries = append(b.entries, request.BatchEntry{
		Kind:   request.BatchEntryID,
		ID:     stmt.ID,
		Values: values,
	})
	return b
}

func (b *Batch) SetConsistency(c frame.Consistency) *Batch {
	b.consistency = c
	return b
}

func (b *Batch) SetSerialConsistency(c frame.Consistency) *Batch {
	b.serialConsistency = c
	b.hasSerialConsist = true
	return b
}

func (b *Batch) SetTimestamp(ts int64) *Batch {
	b.timestamp = ts
	b.hasTimestamp = true
	return b
}

// SetToken marks the batch as token-aware, routing it to the replicas
// owning token rather than the session's default host selection order.
func (b *Batch) SetToken(token transport.Token) *Batch {
	b.tokenAware = true
	b.token = token
	return b
}

func (b *Batch) request() *request.Batch {
	return &request.Batch{
		Kind:              b.kind,
		Entries:           b.entries,
		Consistency:       b.consistency,
		SerialConsistency: b.serialConsistency,
		HasSerialConsist:  b.hasSerialConsist,
		Timestamp:         b.timestamp,
		HasTimestamp:      b.hasTimestamp,
	}
}

func (b *Batch) info() transport.QueryInfo {
	if b.tokenAware {
		info, _ := b.session.cluster.NewTokenAwareQueryInfo(b.token, "")
		return info
	}
	return b.session.cluster.NewQueryInfo()
}

// Exec sends the accumulated batch, retrying against the next node per the
// session's RetryPolicy on a retryable failure.
func (b *Batch) Exec(ctx context.Context) (Result, error) {
	if len(b.err) != 0 {
		return Result{}, fmt.Errorf("batch can't be executed: %v", b.err)
	}
	if len(b.entries) == 0 {
		return Result{}, fmt.Errorf("batch: no statements added")
	}

	info := b.info()
	req := b.request()

	var rd transport.RetryDecider
	var lastErr error
	n := b.session.cfg.HostSelectionPolicy.Node(info, 0)
	i := 0
	for n != nil {
	sameNodeRetries:
		for {
			conn, err := n.Conn(info)
			if err != nil {
				lastErr = err
				break sameNodeRetries
			}

			res, err := conn.Batch(ctx, req)
			if err != nil {
				ri := transport.RetryInfo{Error: err, Consistency: b.consistency}

				if rd == nil {
					rd = b.session.cfg.RetryPolicy.NewRetryDecider()
				}
				switch rd.Decide(ri) {
				case transport.RetrySameNode:
					continue sameNodeRetries
				case transport.RetryNextNode:
					lastErr = err
					break sameNodeRetries
				case transport.DontRetry:
					return Result{}, err
				}
			}

			return Result(res), nil
		}

		i++
		n = b.session.cfg.HostSelectionPolicy.Node(info, i)
	}

	if lastErr == nil {
		return Result{}, fmt.Errorf("no connection to execute the batch on")
	}
	return Result{}, lastErr
}
