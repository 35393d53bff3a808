package response

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Response = (*AuthSuccess)(nil)

// AuthSuccess spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Indicates authentication succeeded. Body: [bytes] optional final token
// from the SASL exchange.
type AuthSuccess struct {
	Token []byte
}

func (*AuthSuccess) OpCode() frame.OpCode { return frame.OpAuthSuccess }

func ParseAuthSuccess(b *frame.Buffer) *AuthSuccess {
	return &AuthSuccess{Token: b.ReadBytes()}
}
