package session

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrParameter           = errors.New("required parameter missing")
	ErrInitialization      = errors.New("service initialization failed: relay did not answer the ping")
	ErrNoInitialization    = errors.New("service not initialized")
	ErrCallsign            = errors.New("callsign not set")
	ErrAlreadyLogin        = errors.New("already logging in or logged in")
	ErrNotLogin            = errors.New("not logged in")
	ErrLogin               = errors.New("relay rejected the credentials")
	ErrResponseParser      = errors.New("unexpected relay response")
	ErrFullServiceRequired = errors.New("full service required")
	ErrNoOfficialServer    = errors.New("operation only available on the official relay")
)

// InvalidStateError is returned when an operation requires a connection
// state other than the current one.
type InvalidStateError struct {
	Required []ConnectionState
	Current  ConnectionState
}

func (err *InvalidStateError) Error() string {
	names := make([]string, len(err.Required))
	for i, s := range err.Required {
		names[i] = s.String()
	}
	return fmt.Sprintf("invalid connection state: required [%s], current %s", strings.Join(names, ", "), err.Current)
}

// NetworkSwitchError is returned when the relay did not confirm a network
// affiliation change.
type NetworkSwitchError struct {
	From Network
	To   Network
	Got  string
}

func (err *NetworkSwitchError) Error() string {
	return fmt.Sprintf("network switch from %q to %q failed, relay reported %q", err.From, err.To, err.Got)
}

// NetworkError wraps a failure of the transport.
type NetworkError struct {
	Err error
}

func (err *NetworkError) Error() string {
	return fmt.Sprintf("network communication failed: %v", err.Err)
}

func (err *NetworkError) Unwrap() error {
	return err.Err
}

func (err *NetworkError) Cause() error {
	return err.Err
}
