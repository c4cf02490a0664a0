// internal/protocol/errors.go
package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when no terminated response arrives in time
	ErrTimeout = errors.New("protocol: exchange timed out")

	// ErrMalformedFrame is returned when markers or field counts are wrong
	ErrMalformedFrame = errors.New("protocol: malformed frame")

	// ErrInvalidField is returned for field values outside printable ASCII
	ErrInvalidField = errors.New("protocol: invalid field value")

	// ErrPrinterNotFound is returned when no candidate endpoint answers the probe
	ErrPrinterNotFound = errors.New("protocol: printer not found")

	// ErrChannelUnusable is returned when bytes can no longer be written to
	// an opened endpoint. It is the only fault the service treats as fatal.
	ErrChannelUnusable = errors.New("protocol: serial channel unusable")
)

// TransportError describes a failed exchange on a serial endpoint
type TransportError struct {
	Op   string
	Port string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportFault reports whether err came from the transport layer
// rather than from a device answer.
func IsTransportFault(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, ErrPrinterNotFound)
}
