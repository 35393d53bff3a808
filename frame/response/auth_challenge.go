package response

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Response = (*AuthChallenge)(nil)

// AuthChallenge spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// A server-side SASL challenge sent in response to AUTH_RESPONSE. Body:
// [bytes] opaque SASL token, or null when the server has no further
// challenge (PLAIN auth never uses this, but the driver must still parse
// it correctly as an allow-all/no-op path per §1).
type AuthChallenge struct {
	Token []byte
}

func (*AuthChallenge) OpCode() frame.OpCode { return frame.OpAuthChallenge }

func ParseAuthChallenge(b *frame.Buffer) *AuthChallenge {
	return &AuthChallenge{Token: b.ReadBytes()}
}
