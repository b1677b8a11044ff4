package modem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/warthog618/modem/trace"
	"go.bug.st/serial"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

const (
	// DefaultBaudRate is used when a SerialDialer has no explicit baud rate.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single read from the serial port.
	DefaultReadTimeout = 2 * time.Second
)

// Transport represents an established, bidirectional byte stream to a
// cellular modem.
//
// A Transport is assumed to be already connected and ready for use. Reads are
// expected to return (0, nil) or io.EOF once their read timeout elapses with
// no data, the way go.bug.st/serial ports behave. Typical implementations
// include serial ports or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
	// ResetInputBuffer discards any received but unread bytes.
	ResetInputBuffer() error
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the modem connection is created and is used during
// session construction only. Once a Transport is obtained, the Dialer is no
// longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It returns an error if
	// the transport cannot be established.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens a modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/cu.usbmodem101".
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the default 8N1 framing when set.
	Mode *serial.Mode
	// ReadTimeout bounds each read. Zero means DefaultReadTimeout.
	ReadTimeout time.Duration
	// Trace logs every byte exchanged with the modem.
	Trace bool
	// Logger receives the trace. Nil means slog.Default().
	Logger *slog.Logger
}

var _ Dialer = SerialDialer{}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, ErrNoPortName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, &OpenError{Port: d.PortName, Err: err}
	}

	timeout := d.ReadTimeout
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, &OpenError{Port: d.PortName, Err: err}
	}

	if d.Trace {
		return Traced(port, d.Logger), nil
	}
	return port, nil
}

// tracedTransport logs reads and writes while delegating buffer control and
// closing to the wrapped transport.
type tracedTransport struct {
	io.ReadWriter
	base Transport
}

// Traced wraps t so every read and write is logged to logger at info level.
func Traced(t Transport, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &tracedTransport{
		ReadWriter: trace.New(t,
			trace.WithLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo)),
			trace.WithReadFormat("r: %q")),
		base: t,
	}
}

func (t *tracedTransport) Close() error {
	return t.base.Close()
}

func (t *tracedTransport) ResetInputBuffer() error {
	return t.base.ResetInputBuffer()
}

// isEndOfStream reports whether err marks the end of available data rather
// than a transport failure.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF)
}
