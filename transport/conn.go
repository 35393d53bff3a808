package transport

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/shardkeeper/scylla-go-driver/frame"
	. "github.com/shardkeeper/scylla-go-driver/frame/request"
	. "github.com/shardkeeper/scylla-go-driver/frame/response"
)

// Response is one decoded frame handed back to the worker parked on its
// stream id; Err is set instead of Response on any I/O or parse failure.
type Response struct {
	frame.Header
	frame.Response
	Err error
}

// ResponseHandler is the channel a connection delivers a matched Response
// to. Every request registers exactly one handler per in-flight stream.
type ResponseHandler chan Response

// MakeResponseHandler allocates a handler ready to receive one Response.
func MakeResponseHandler() ResponseHandler {
	return make(ResponseHandler, 1)
}

// MakeResponseHandlerWithError returns a handler pre-loaded with err, so
// callers that fail before ever reaching a connection (e.g. no host
// available) can still be driven through Fetch()'s usual <-handler path.
func MakeResponseHandlerWithError(err error) ResponseHandler {
	h := MakeResponseHandler()
	h <- Response{Err: err}
	return h
}

type request struct {
	frame.Request
	StreamID        frame.StreamID
	Compress        bool
	Tracing         bool
	ResponseHandler ResponseHandler
}

type connWriter struct {
	conn      io.Writer
	buf       frame.Buffer
	requestCh chan request
	compress  Compressor
}

func (c *connWriter) submit(r request) {
	c.requestCh <- r
}

func (c *connWriter) loop() {
	runtime.LockOSThread()

	for r := range c.requestCh {
		if err := c.send(r); err != nil {
			r.ResponseHandler <- Response{Err: fmt.Errorf("send: %w", err)}
		}
	}
}

func (c *connWriter) send(r request) error {
	var body frame.Buffer
	r.WriteTo(&body)
	payload := body.Bytes()

	var flags byte
	if r.Compress && c.compress != nil {
		compressed, err := c.compress.Compress(payload)
		if err != nil {
			return fmt.Errorf("compress: %w", err)
		}
		payload = compressed
		flags |= frame.FlagCompression
	}
	if r.Tracing {
		flags |= frame.FlagTracing
	}

	c.buf.Reset()
	h := frame.Header{
		Version:  frame.CQLv4,
		Flags:    flags,
		StreamID: r.StreamID,
		OpCode:   r.OpCode(),
	}
	h.WriteTo(&c.buf)
	c.buf.Write(payload)

	// Backpatch the length now that compression (if any) is known.
	b := c.buf.Bytes()
	binary.BigEndian.PutUint32(b[5:9], uint32(len(b)-frame.HeaderSize))

	if _, err := frame.CopyBuffer(&c.buf, c.conn); err != nil {
		return err
	}

	return nil
}

type connReader struct {
	conn *bufio.Reader
	buf  frame.Buffer
	bufw io.Writer

	h      map[frame.StreamID]ResponseHandler
	s      streamIDAllocator
	events ResponseHandler
	// mu guards h and s.
	mu sync.Mutex

	compress Compressor
	logger   Logger
}

func (c *connReader) setHandler(h ResponseHandler) (frame.StreamID, error) {
	c.mu.Lock()
	streamID, err := c.s.Alloc()
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("stream ID alloc: %w", err)
	}

	c.h[streamID] = h
	c.mu.Unlock()
	return streamID, nil
}

// freeHandler is safe to call more than once for the same streamID: only
// the first call (response delivered vs ctx cancelled racing each other)
// actually returns the id to the allocator.
func (c *connReader) freeHandler(streamID frame.StreamID) {
	c.mu.Lock()
	if _, ok := c.h[streamID]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.h, streamID)
	c.s.Free(streamID)
	c.mu.Unlock()
}

func (c *connReader) handler(streamID frame.StreamID) ResponseHandler {
	c.mu.Lock()
	h := c.h[streamID]
	c.mu.Unlock()
	return h
}

// inUse reports the number of currently assigned stream ids, consulted by
// ConnPool.LeastBusyConn to pick the least saturated connection.
func (c *connReader) inUse() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.InUse()
}

func (c *connReader) loop() {
	runtime.LockOSThread()

	c.bufw = frame.BufferWriter(&c.buf)
	for {
		resp, ok := c.recv()
		if !ok {
			c.shutdown(resp.Err)
			return
		}
		if resp.Header.StreamID == frame.EventStreamID {
			if c.events != nil {
				select {
				case c.events <- resp:
				default:
					c.logger.Printf("recv: event handler channel full, dropping %s", resp.Header.OpCode)
				}
			}
			continue
		}
		if h := c.handler(resp.Header.StreamID); h != nil {
			h <- resp
		} else {
			c.logger.Printf("recv: response for unknown/freed stream %d (opcode %s)", resp.Header.StreamID, resp.Header.OpCode)
		}
	}
}

// shutdown delivers ErrConnectionClosed to every still-pending handler and
// stops future stream allocation.
func (c *connReader) shutdown(cause error) {
	c.mu.Lock()
	pending := make([]ResponseHandler, 0, len(c.h))
	for id, h := range c.h {
		pending = append(pending, h)
		delete(c.h, id)
	}
	c.s.Close()
	c.mu.Unlock()

	err := fmt.Errorf("%w: %v", ErrConnectionClosed, cause)
	for _, h := range pending {
		h <- Response{Err: err}
	}
}

func (c *connReader) recv() (Response, bool) {
	c.buf.Reset()

	var r Response

	if _, err := io.CopyN(c.bufw, c.conn, frame.HeaderSize); err != nil {
		r.Err = fmt.Errorf("read header: %w", err)
		return r, false
	}
	r.Header = frame.ParseHeader(&c.buf)
	if err := c.buf.Error(); err != nil {
		r.Err = fmt.Errorf("parse header: %w", err)
		return r, false
	}

	if _, err := io.CopyN(c.bufw, c.conn, int64(r.Header.Length)); err != nil {
		r.Err = fmt.Errorf("read body: %w", err)
		return r, false
	}

	if r.Header.Flags&frame.FlagCompression != 0 {
		if c.compress == nil {
			r.Err = fmt.Errorf("received compressed frame but no compressor negotiated")
			return r, false
		}
		body := c.buf.Bytes()[frame.HeaderSize:]
		decompressed, err := c.compress.Decompress(body)
		if err != nil {
			r.Err = fmt.Errorf("decompress: %w", err)
			return r, false
		}
		var decoded frame.Buffer
		decoded.Write(decompressed)
		r.Response = c.parse(r.Header.OpCode, &decoded)
		if err := decoded.Error(); err != nil {
			r.Err = fmt.Errorf("parse body: %w", err)
			return r, false
		}
		return r, true
	}

	r.Response = c.parse(r.Header.OpCode, &c.buf)
	if err := c.buf.Error(); err != nil {
		r.Err = fmt.Errorf("parse body: %w", err)
		return r, false
	}

	return r, true
}

func (c *connReader) parse(op frame.OpCode, b *frame.Buffer) frame.Response {
	switch op {
	case frame.OpError:
		return ParseError(b)
	case frame.OpReady:
		return ParseReady(b)
	case frame.OpAuthenticate:
		return ParseAuthenticate(b)
	case frame.OpAuthChallenge:
		return ParseAuthChallenge(b)
	case frame.OpAuthSuccess:
		return ParseAuthSuccess(b)
	case frame.OpSupported:
		return ParseSupported(b)
	case frame.OpResult:
		return ParseResult(b)
	case frame.OpEvent:
		return ParseEvent(b)
	default:
		b.Fail(frame.NewProtocolViolation("unexpected response opcode %s", op))
		return nil
	}
}

// ErrConnectionClosed wraps every response delivered after the connection's
// reader loop has exited, whether on EOF, I/O error, or explicit Close.
var ErrConnectionClosed = fmt.Errorf("connection closed")

// ErrUnprepared is returned by reprepare when a statement's text cannot be
// recovered from the local prepared-statement registry.
var ErrUnprepared = fmt.Errorf("statement not known locally")

// Conn is one CQL connection, multiplexing up to frame.MaxStreams
// concurrent requests via stream ids.
type Conn struct {
	conn net.Conn
	w    connWriter
	r    connReader

	addr      string
	cfg       ConnConfig
	supported *Supported

	prepared *PreparedStatementRegistry
}

type ConnConfig struct {
	TCPNoDelay         bool
	Timeout            time.Duration
	DefaultConsistency frame.Consistency
	Keyspace           string
	Username, Password string
	Compression        CompressionAlgorithm
	BufferSize         int
	Prepared           *PreparedStatementRegistry
}

// DefaultConnConfig returns a ConnConfig with allow-all auth, no
// compression, 64KiB I/O buffers, and quorum consistency.
func DefaultConnConfig(keyspace string) ConnConfig {
	return ConnConfig{
		TCPNoDelay:         true,
		Timeout:            600 * time.Millisecond,
		DefaultConsistency: frame.QUORUM,
		Keyspace:           keyspace,
		BufferSize:         1 << 16,
		Prepared:           NewPreparedStatementRegistry(),
	}
}

const (
	requestChanSize = 1024
	ioBufferSize    = 8192
)

// OpenShardConn opens a connection mapped to a specific shard on a Scylla
// node by dialing from a local port that hashes to that shard.
func OpenShardConn(ctx context.Context, addr string, si ShardInfo, cfg ConnConfig) (*Conn, error) {
	it := ShardPortIterator(si)
	maxTries := (maxPort-minPort+1)/int(si.NrShards) + 1
	var lastErr error
	for i := 0; i < maxTries; i++ {
		conn, err := OpenLocalPortConn(ctx, addr, it(), cfg)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to open connection on shard port: all local ports busy: %w", lastErr)
}

// OpenLocalPortConn opens a connection bound to a specific local port.
func OpenLocalPortConn(ctx context.Context, addr string, localPort uint16, cfg ConnConfig) (*Conn, error) {
	localAddr, err := net.ResolveTCPAddr("tcp", ":"+strconv.Itoa(int(localPort)))
	if err != nil {
		return nil, fmt.Errorf("resolving local TCP address: %w", err)
	}

	return OpenConn(ctx, addr, localAddr, cfg)
}

// OpenConn dials addr, optionally bound to localAddr, and drives the
// OPTIONS/STARTUP/AUTHENTICATE handshake to readiness.
func OpenConn(ctx context.Context, addr string, localAddr *net.TCPAddr, cfg ConnConfig) (*Conn, error) {
	d := net.Dialer{
		Timeout:   cfg.Timeout,
		LocalAddr: localAddr,
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing TCP address %s: %w", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err = tcpConn.SetNoDelay(cfg.TCPNoDelay); err != nil {
			return nil, fmt.Errorf("setting TCP no delay option: %w", err)
		}
	}

	c := WrapConn(addr, conn, cfg)
	if err := c.handshake(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func WrapConn(addr string, conn net.Conn, cfg ConnConfig) *Conn {
	compress := compressorFor(cfg.Compression)
	prepared := cfg.Prepared
	if prepared == nil {
		prepared = NewPreparedStatementRegistry()
	}
	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = ioBufferSize
	}

	c := &Conn{
		conn: conn,
		addr: addr,
		cfg:  cfg,
		w: connWriter{
			conn:      conn,
			requestCh: make(chan request, requestChanSize),
			compress:  compress,
		},
		r: connReader{
			conn:     bufio.NewReaderSize(conn, bufSize),
			h:        make(map[frame.StreamID]ResponseHandler),
			compress: compress,
			logger:   DefaultLogger{},
		},
		prepared: prepared,
	}
	go c.w.loop()
	go c.r.loop()

	return c
}

// handshake drives OPTIONS -> SUPPORTED -> STARTUP -> READY|AUTHENTICATE.
func (c *Conn) handshake(ctx context.Context) error {
	supported, err := c.Options(ctx)
	if err != nil {
		return fmt.Errorf("OPTIONS: %w", err)
	}
	c.supported = supported

	options := frame.StartupOptions{"CQL_VERSION": "3.0.0"}
	if name := compressionName(c.cfg.Compression); name != "" {
		options["COMPRESSION"] = name
	}

	resp, err := c.Startup(ctx, options)
	if err != nil {
		return fmt.Errorf("STARTUP: %w", err)
	}

	switch r := resp.(type) {
	case *Ready:
		return nil
	case *Authenticate:
		return c.authenticate(ctx, r)
	case CodedError:
		return r
	default:
		return fmt.Errorf("unexpected STARTUP response %T", resp)
	}
}

// authenticate drives AUTH_RESPONSE/AUTH_CHALLENGE/AUTH_SUCCESS. Only
// PLAIN and allow-all authenticators are supported.
func (c *Conn) authenticate(ctx context.Context, _ *Authenticate) error {
	token := PlainAuthToken(c.cfg.Username, c.cfg.Password)
	for {
		resp, err := c.sendRequest(ctx, &AuthResponse{Token: token}, false, false)
		if err != nil {
			return fmt.Errorf("AUTH_RESPONSE: %w", err)
		}
		switch r := resp.(type) {
		case *AuthSuccess:
			return nil
		case *AuthChallenge:
			token = r.Token
			continue
		default:
			return fmt.Errorf("unexpected auth response %T", resp)
		}
	}
}

// Options sends OPTIONS and returns the server's SUPPORTED response.
func (c *Conn) Options(ctx context.Context) (*Supported, error) {
	resp, err := c.sendRequest(ctx, &Options{}, false, false)
	if err != nil {
		return nil, err
	}
	s, ok := resp.(*Supported)
	if !ok {
		return nil, fmt.Errorf("unexpected OPTIONS response %T", resp)
	}
	return s, nil
}

func (c *Conn) Startup(ctx context.Context, options frame.StartupOptions) (frame.Response, error) {
	return c.sendRequest(ctx, &Startup{Options: options}, false, false)
}

// Register subscribes the connection to server-pushed EVENT frames for
// the given event types; delivered frames are read back via Events.
func (c *Conn) Register(ctx context.Context, events frame.StringList) error {
	resp, err := c.sendRequest(ctx, &Register{EventTypes: events}, false, false)
	if err != nil {
		return err
	}
	if _, ok := resp.(*Ready); !ok {
		return fmt.Errorf("unexpected REGISTER response %T", resp)
	}
	c.r.mu.Lock()
	if c.r.events == nil {
		c.r.events = make(ResponseHandler, 32)
	}
	c.r.mu.Unlock()
	return nil
}

// Events returns the channel server-pushed EVENT frames are delivered on.
// Only meaningful after a successful Register; nil until then.
func (c *Conn) Events() ResponseHandler {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	return c.r.events
}

func (c *Conn) sendRequest(ctx context.Context, req frame.Request, compress, tracing bool) (frame.Response, error) {
	h := MakeResponseHandler()

	streamID, err := c.r.setHandler(h)
	if err != nil {
		return nil, fmt.Errorf("set handler: %w", err)
	}

	c.w.submit(request{
		Request:         req,
		StreamID:        streamID,
		Compress:        compress,
		Tracing:         tracing,
		ResponseHandler: h,
	})

	select {
	case resp := <-h:
		c.r.freeHandler(streamID)
		return resp.Response, resp.Err
	case <-ctx.Done():
		c.r.freeHandler(streamID)
		return nil, ctx.Err()
	}
}

// Query executes a non-prepared CQL statement.
func (c *Conn) Query(ctx context.Context, stmt Statement, pagingState []byte) (QueryResult, error) {
	resp, err := c.sendRequest(ctx, c.queryRequest(stmt, pagingState), stmt.Compression, false)
	if err != nil {
		return QueryResult{}, err
	}
	return MakeQueryResult(resp, stmt.ResultMetadata)
}

func (c *Conn) queryRequest(stmt Statement, pagingState []byte) *Query {
	return &Query{
		Content: stmt.Content,
		Params:  c.queryParams(stmt, pagingState),
	}
}

func (c *Conn) queryParams(stmt Statement, pagingState []byte) QueryParams {
	return QueryParams{
		Consistency:       stmt.Consistency,
		Values:            stmt.Values,
		SkipMetadata:      stmt.SkipMetadata(),
		PageSize:          stmt.PageSize,
		HasPageSize:       stmt.PageSize > 0,
		PagingState:       pagingState,
		SerialConsistency: stmt.SerialConsistency,
		HasSerialConsist:  stmt.HasSerialConsist,
		Timestamp:         stmt.Timestamp,
		HasTimestamp:      stmt.HasTimestamp,
	}
}

// Prepare sends a PREPARE request and folds the server's response into a
// Statement ready for Execute, registering it in the connection's
// prepared-statement registry so a later Unprepared error can be repaired.
func (c *Conn) Prepare(ctx context.Context, stmt Statement) (Statement, error) {
	resp, err := c.sendRequest(ctx, &Prepare{Statement: stmt.Content}, false, false)
	if err != nil {
		return Statement{}, err
	}

	if ce, ok := resp.(CodedError); ok {
		return Statement{}, ce
	}

	res, ok := resp.(*Result)
	if !ok || res.Kind != frame.ResultPrepared {
		return Statement{}, fmt.Errorf("unexpected PREPARE response %T", resp)
	}

	id := md5.Sum([]byte(stmt.Content))
	if string(res.Prepared.ID) != string(id[:]) {
		return Statement{}, fmt.Errorf("prepared id mismatch for %q", stmt.Content)
	}

	out := stmt
	out.ID = res.Prepared.ID
	meta := res.Prepared.Metadata
	out.Metadata = &meta
	resultMeta := res.Prepared.ResultMetadata
	out.ResultMetadata = &resultMeta
	out.PkIndexes = res.Prepared.PkIndexes
	out.PkCnt = len(res.Prepared.PkIndexes)
	out.Values = make([]frame.Value, len(meta.Columns))
	for i := range out.Values {
		out.Values[i].Type = &meta.Columns[i].Type
	}

	c.prepared.Insert(res.Prepared.ID, stmt.Content, out.Metadata, out.PkIndexes, c.addr)

	return out, nil
}

// Execute sends an EXECUTE request, transparently recovering from an
// Unprepared error by re-preparing on this same connection and resending
// once.
func (c *Conn) Execute(ctx context.Context, stmt Statement, pagingState []byte) (QueryResult, error) {
	resp, err := c.sendRequest(ctx, c.executeRequest(stmt, pagingState), stmt.Compression, false)
	if err != nil {
		return QueryResult{}, err
	}

	res, err := MakeQueryResult(resp, stmt.ResultMetadata)
	if err == nil {
		return res, nil
	}

	if ce, ok := err.(CodedError); ok && ce.Code() == frame.ErrUnprepared {
		reprepared, perr := c.reprepare(ctx, stmt)
		if perr != nil {
			return QueryResult{}, fmt.Errorf("reprepare after Unprepared: %w", perr)
		}
		resp, err = c.sendRequest(ctx, c.executeRequest(reprepared, pagingState), reprepared.Compression, false)
		if err != nil {
			return QueryResult{}, err
		}
		return MakeQueryResult(resp, reprepared.ResultMetadata)
	}

	return QueryResult{}, err
}

// reprepare recovers the statement text for stmt.ID from the process-wide
// registry, PREPAREs it on this connection, and returns the refreshed
// Statement with the original bound values reattached. Sending the PREPARE
// and the retried EXECUTE over the same connection guarantees the server's
// cache is populated before the retry lands.
func (c *Conn) reprepare(ctx context.Context, stmt Statement) (Statement, error) {
	content := stmt.Content
	if content == "" {
		entry, ok := c.prepared.Lookup(stmt.ID)
		if !ok {
			return Statement{}, fmt.Errorf("%w: statement text for id %x", ErrUnprepared, stmt.ID)
		}
		content = entry.Statement
	}

	toPrepare := stmt
	toPrepare.Content = content
	prepared, err := c.Prepare(ctx, toPrepare)
	if err != nil {
		return Statement{}, err
	}
	prepared.Values = stmt.Values
	return prepared, nil
}

func (c *Conn) executeRequest(stmt Statement, pagingState []byte) *Execute {
	return &Execute{
		ID:     stmt.ID,
		Params: c.queryParams(stmt, pagingState),
	}
}

// Batch executes a BATCH statement.
func (c *Conn) Batch(ctx context.Context, b *Batch) (QueryResult, error) {
	resp, err := c.sendRequest(ctx, b, false, false)
	if err != nil {
		return QueryResult{}, err
	}
	return MakeQueryResult(resp, nil)
}

// AsyncQuery submits a QUERY without waiting for the response, delivering
// it to h when it arrives.
func (c *Conn) AsyncQuery(ctx context.Context, stmt Statement, pagingState []byte, h ResponseHandler) {
	c.asyncSend(ctx, c.queryRequest(stmt, pagingState), stmt.Compression, h)
}

// AsyncExecute submits an EXECUTE without waiting for the response. The
// transparent Unprepared recovery of Execute only applies to the
// synchronous path; async callers observe Unprepared like any other
// CodedError and must reprepare and resubmit themselves if needed.
func (c *Conn) AsyncExecute(ctx context.Context, stmt Statement, pagingState []byte, h ResponseHandler) {
	c.asyncSend(ctx, c.executeRequest(stmt, pagingState), stmt.Compression, h)
}

func (c *Conn) asyncSend(ctx context.Context, req frame.Request, compress bool, h ResponseHandler) {
	// The reader delivers to inner, which only the goroutine below reads, so
	// the caller draining h can never consume the response first.
	inner := MakeResponseHandler()
	streamID, err := c.r.setHandler(inner)
	if err != nil {
		h <- Response{Err: fmt.Errorf("set handler: %w", err)}
		return
	}

	c.w.submit(request{
		Request:         req,
		StreamID:        streamID,
		Compress:        compress,
		ResponseHandler: inner,
	})

	// The stream slot is returned to the pool exactly once: either when the
	// response arrives, or when ctx is cancelled first. Whichever fires, the
	// result (response or cancellation error) is put on h for Fetch.
	go func() {
		select {
		case resp := <-inner:
			c.r.freeHandler(streamID)
			h <- resp
		case <-ctx.Done():
			c.r.freeHandler(streamID)
			h <- Response{Err: fmt.Errorf("async request cancelled: %w", ctx.Err())}
		}
	}()
}

// InUse reports the number of stream ids currently assigned to in-flight
// requests.
func (c *Conn) InUse() int {
	return c.r.inUse()
}

// Close tears down the connection; pending requests observe
// ErrConnectionClosed.
func (c *Conn) Close() error {
	close(c.w.requestCh)
	return c.conn.Close()
}
