package transport

import (
	"fmt"
	"testing"

	"github.com/shardkeeper/scylla-go-driver/frame"
	"github.com/shardkeeper/scylla-go-driver/frame/response"
)

func TestDefaultRetryDeciderErrorClasses(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		err        error
		idempotent bool
		want       RetryDecision
	}{
		{"unprepared retries same node", &response.Error{ErrCode: frame.ErrUnprepared}, false, RetrySameNode},
		{"overloaded retries next node", &response.Error{ErrCode: frame.ErrOverloaded}, false, RetryNextNode},
		{"unavailable retries next node", &response.Error{ErrCode: frame.ErrUnavailable}, false, RetryNextNode},
		{"server error retries next node", &response.Error{ErrCode: frame.ErrServerError}, false, RetryNextNode},
		{"read timeout retries same node", &response.Error{ErrCode: frame.ErrReadTimeout}, false, RetrySameNode},
		{"write timeout non-idempotent doesn't retry", &response.Error{ErrCode: frame.ErrWriteTimeout}, false, DontRetry},
		{"write timeout idempotent retries same node", &response.Error{ErrCode: frame.ErrWriteTimeout}, true, RetrySameNode},
		{"write failure non-idempotent doesn't retry", &response.Error{ErrCode: frame.ErrWriteFailure}, false, DontRetry},
		{"write failure idempotent retries next node", &response.Error{ErrCode: frame.ErrWriteFailure}, true, RetryNextNode},
		{"syntax error never retries", &response.Error{ErrCode: frame.ErrSyntaxError}, true, DontRetry},
		{"connection-level error retries next node", fmt.Errorf("dial tcp: connection refused"), true, RetryNextNode},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := NewDefaultRetryPolicy().NewRetryDecider()
			got := d.Decide(RetryInfo{Error: tc.err, Idempotent: tc.idempotent})
			if got != tc.want {
				t.Fatalf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultRetryDeciderStopsAtMaxRetries(t *testing.T) {
	t.Parallel()

	p := &RetryPolicy{MaxRetries: 2}
	d := p.NewRetryDecider()
	ri := RetryInfo{Error: &response.Error{ErrCode: frame.ErrOverloaded}}

	for i := 0; i < 2; i++ {
		if got := d.Decide(ri); got != RetryNextNode {
			t.Fatalf("retry %d: Decide() = %v, want RetryNextNode", i, got)
		}
	}
	if got := d.Decide(ri); got != DontRetry {
		t.Fatalf("retry past budget: Decide() = %v, want DontRetry", got)
	}
}

func TestDefaultRetryDeciderZeroMaxRetriesNeverRetries(t *testing.T) {
	t.Parallel()

	p := &RetryPolicy{MaxRetries: 0}
	d := p.NewRetryDecider()
	ri := RetryInfo{Error: &response.Error{ErrCode: frame.ErrOverloaded}}

	if got := d.Decide(ri); got != DontRetry {
		t.Fatalf("Decide() with MaxRetries=0 = %v, want DontRetry", got)
	}
}

func TestDefaultRetryDeciderReset(t *testing.T) {
	t.Parallel()

	p := &RetryPolicy{MaxRetries: 1}
	d := p.NewRetryDecider()
	ri := RetryInfo{Error: &response.Error{ErrCode: frame.ErrOverloaded}}

	d.Decide(ri)
	if got := d.Decide(ri); got != DontRetry {
		t.Fatalf("Decide() after budget exhausted = %v, want DontRetry", got)
	}

	d.Reset()
	if got := d.Decide(ri); got != RetryNextNode {
		t.Fatalf("Decide() after Reset = %v, want RetryNextNode", got)
	}
}
