package request

import "github.com/shardkeeper/scylla-go-driver/frame"

var _ frame.Request = (*AuthResponse)(nil)

// AuthResponse spec: https://github.com/apache/cassandra/blob/trunk/doc/native_protocol_v4.spec
// Body: [bytes] SASL token. For PLAIN auth the token is
// "\0user\0password".
type AuthResponse struct {
	Token []byte
}

// PlainAuthToken builds the SASL PLAIN token for the given credentials.
func PlainAuthToken(user, password string) []byte {
	token := make([]byte, 0, len(user)+len(password)+2)
	token = append(token, 0)
	token = append(token, user...)
	token = append(token, 0)
	token = append(token, password...)
	return token
}

func (a *AuthResponse) WriteTo(b *frame.Buffer) {
	b.WriteBytes(a.Token)
}

func (*AuthResponse) OpCode() frame.OpCode {
	return frame.OpAuthResponse
}
