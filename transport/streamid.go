package transport

import (
	"fmt"

	"github.com/shardkeeper/scylla-go-driver/frame"
)

// streamIDAllocator hands out the 32768 stream ids of one connection from
// a free-list, so allocation never scans the slot table (§3 Stream Slot,
// §8 property 4). Zero value is ready to use: Alloc lazily seeds the
// free-list with the whole id space on first use.
type streamIDAllocator struct {
	free   []frame.StreamID
	seeded bool
	closed bool
}

func (s *streamIDAllocator) seed() {
	if s.seeded {
		return
	}
	s.free = make([]frame.StreamID, frame.MaxStreams)
	for i := range s.free {
		// Hand out low ids first; order is otherwise arbitrary.
		s.free[i] = frame.StreamID(frame.MaxStreamID - i)
	}
	s.seeded = true
}

var errStreamsExhausted = fmt.Errorf("no free stream ids: connection saturated")
var errAllocatorClosed = fmt.Errorf("stream id allocator closed")

// Alloc pops a free stream id. Callers MUST hold the allocator's guarding
// lock (transport's connReader serializes access with its own mutex).
func (s *streamIDAllocator) Alloc() (frame.StreamID, error) {
	if s.closed {
		return 0, errAllocatorClosed
	}
	s.seed()
	if len(s.free) == 0 {
		return 0, errStreamsExhausted
	}
	n := len(s.free) - 1
	id := s.free[n]
	s.free = s.free[:n]
	return id, nil
}

// Free returns a stream id to the pool, making it eligible for reuse. The
// slot MUST NOT be freed twice without an intervening Alloc (§8 property 4).
func (s *streamIDAllocator) Free(id frame.StreamID) {
	if s.closed {
		return
	}
	s.free = append(s.free, id)
}

// Close fails all future allocations, used on connection shutdown so new
// sends observe an error instead of racing the teardown.
func (s *streamIDAllocator) Close() {
	s.closed = true
	s.free = nil
}

// InUse reports how many stream ids are currently assigned, used (through
// Conn.InUse) by ConnPool.LeastBusyConn to pick the least saturated
// connection. A fully saturated connection is signalled by Alloc returning
// errStreamsExhausted.
func (s *streamIDAllocator) InUse() int {
	if !s.seeded {
		return 0
	}
	return frame.MaxStreams - len(s.free)
}
