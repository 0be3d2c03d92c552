package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrMalformed = errors.New("malformed datagram")
var ErrUnknownType = errors.New("unknown message type")

// ValidationError reports a well-formed message of a known type whose fields
// are missing or invalid. The client is told about these.
type ValidationError struct {
	Type   MessageType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s message: %s", e.Type, e.Reason)
}
