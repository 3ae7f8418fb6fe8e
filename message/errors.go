package message

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyReplied is returned when a reply is requested for a message
	// that has been replied to already.
	ErrAlreadyReplied = errors.New("message has already been replied")

	// ErrCantReply is returned when the reply tag of a message does not
	// admit a reply.
	ErrCantReply = errors.New("message cannot be replied to")
)

// ParseError describes relay traffic that does not follow the envelope
// grammar.
type ParseError struct {
	Input  string
	Reason string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("error parsing %q: %s", err.Input, err.Reason)
}

func parseErrorf(input, format string, args ...interface{}) error {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
