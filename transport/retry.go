package transport

import (
	"errors"

	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/frame/response"
)

// RetryDecision is the outcome of a RetryDecider's Decide call.
type RetryDecision uint8

const (
	DontRetry RetryDecision = iota
	RetrySameNode
	RetryNextNode
)

// RetryInfo carries everything a RetryDecider needs to classify a failed
// request, per the per-error-class table driving reprepare/retry (§4.6).
type RetryInfo struct {
	Error       error
	Idempotent  bool
	Consistency frame.Consistency
}

// RetryDecider is stateful across the retries of a single logical request,
// so it can apply a retry budget (RetryPolicy.NewRetryDecider constructs a
// fresh one per request).
type RetryDecider interface {
	Decide(ri RetryInfo) RetryDecision
	// Reset clears any internal retry count, reused by iterators that
	// execute the same decider across successive paged fetches.
	Reset()
}

// RetryPolicy constructs RetryDeciders; the zero value is ready to use and
// retries zero times, so a connection-level failure surfaces immediately.
type RetryPolicy struct {
	MaxRetries int
}

func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxRetries: 3}
}

func (p *RetryPolicy) NewRetryDecider() RetryDecider {
	return &defaultRetryDecider{maxRetries: p.MaxRetries}
}

// defaultRetryDecider implements the per-error-class table, each retry
// counting against maxRetries: unavailable, overloaded, bootstrapping and
// server errors retry on the next node; a read timeout retries on the same
// node, a write timeout does so only if the query is idempotent; read and
// write failures retry on the next node only if the query is idempotent;
// protocol violations are never retried; other non-CQL (connection-level)
// errors retry on the next node. Unprepared is handled transparently by
// Conn.Execute and never reaches here under normal operation, but is
// treated as same-node retryable in case a caller surfaces it directly.
type defaultRetryDecider struct {
	maxRetries int
	retries    int
}

func (d *defaultRetryDecider) Reset() {
	d.retries = 0
}

func (d *defaultRetryDecider) Decide(ri RetryInfo) RetryDecision {
	if d.retries >= d.maxRetries {
		return DontRetry
	}

	var pv *frame.ProtocolViolation
	if errors.As(ri.Error, &pv) {
		// Malformed wire content is not transient.
		return DontRetry
	}

	var coded response.CodedError
	if !errors.As(ri.Error, &coded) {
		// Connection-level failures (I/O, context deadline): try the next
		// node rather than hammering the one that just failed.
		d.retries++
		return RetryNextNode
	}

	switch coded.Code() {
	case frame.ErrUnprepared:
		d.retries++
		return RetrySameNode

	case frame.ErrOverloaded, frame.ErrIsBootstrapping, frame.ErrServerError:
		d.retries++
		return RetryNextNode

	case frame.ErrUnavailable:
		d.retries++
		return RetryNextNode

	case frame.ErrWriteTimeout:
		if !ri.Idempotent {
			return DontRetry
		}
		d.retries++
		return RetrySameNode

	case frame.ErrReadTimeout:
		d.retries++
		return RetrySameNode

	case frame.ErrWriteFailure, frame.ErrReadFailure:
		if !ri.Idempotent {
			return DontRetry
		}
		d.retries++
		return RetryNextNode

	default:
		// Syntax/auth/config/invalid errors are never transient.
		return DontRetry
	}
}
