package response

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Response = (*Authenticate)(nil)

// Authenticate spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Sent in response to STARTUP when the server requires authentication.
// Body: [string] authenticator class name.
type Authenticate struct {
	Authenticator string
}

func (*Authenticate) OpCode() frame.OpCode { return frame.OpAuthenticate }

// ParseAuthenticate decodes an Authenticate body. Fed arbitrary/fuzzed
// input at the frame boundary, it must never panic — short reads surface
// through Buffer.Error(), never a Go runtime panic.
func ParseAuthenticate(b *frame.Buffer) *Authenticate {
	return &Authenticate{Authenticator: b.ReadString()}
}
