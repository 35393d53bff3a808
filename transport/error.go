package transport

import (
	"fmt"

	"github.com/shardkeeper/scylla-go-driver/frame"
	. "github.com/shardkeeper/scylla-go-driver/frame/response"
)

// responseAsError returns the response itself when it is a CodedError (a
// parsed ERROR body), and otherwise a plain error naming the unexpected
// response type.
func responseAsError(res frame.Response) error {
	if v, ok := res.(CodedError); ok {
		return v
	}
	return fmt.Errorf("unexpected response %T, %+v", res, res)
}
