// internal/driver/cts310/errors.go
package cts310

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceRejected is returned when the device answers with anything
	// other than the success signal of the command
	ErrDeviceRejected = errors.New("cts310: command rejected by device")

	ErrDocumentOpenFailed  = errors.New("cts310: document open failed")
	ErrDocumentCloseFailed = errors.New("cts310: document close failed")
	ErrDocumentNotFound    = errors.New("cts310: document not found")

	// ErrNothingToReport is returned when a report is answered with NAK:
	// no transactions to report, or the fiscal day is already closed
	ErrNothingToReport = errors.New("cts310: no transactions to report or fiscal day already closed")

	// ErrNoReports is returned when a range request printed nothing
	ErrNoReports = errors.New("cts310: no reports found")
)

// CommandError carries the raw device answer of a failed command
type CommandError struct {
	Command  string
	Code     byte
	Response []byte
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (0x%02X): %v, response %x", e.Command, e.Code, e.Err, e.Response)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// rejected builds the error for a non-affirmative answer, optionally
// tagging it with a more specific reason
func rejected(code byte, raw []byte, reason error) *CommandError {
	err := ErrDeviceRejected
	if reason != nil {
		err = fmt.Errorf("%w: %w", reason, ErrDeviceRejected)
	}
	return &CommandError{
		Command:  CommandName(code),
		Code:     code,
		Response: append([]byte(nil), raw...),
		Err:      err,
	}
}

// IsRejection reports whether err is a device answer rather than a fault
func IsRejection(err error) bool {
	return errors.Is(err, ErrDeviceRejected)
}
