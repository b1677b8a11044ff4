package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNoPortName is returned by SerialDialer when no device path is set.
	ErrNoPortName = errors.New("serial port name is required")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// without a transport.
	//
	// This can occur if the Dialer returned no transport or if the Modem was
	// not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when an operation, including Close, is
	// attempted on a Modem that has already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")
)

// OpenError reports that the serial device could not be opened or claimed,
// for example because it does not exist, is busy or access was denied.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open serial port %q: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
