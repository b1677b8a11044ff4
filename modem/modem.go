package modem

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"i4.energy/across/atprobe/at"
)

// DefaultWait is the pause between writing a command and the first read.
const DefaultWait = 200 * time.Millisecond

// Modem is a half-duplex AT command session over a single Transport.
//
// A Modem is not safe for concurrent use: every exchange writes one command
// and reads its reply before the next command may be issued.
type Modem struct {
	// transport provides the physical connection to the modem
	transport Transport
	// responseTimeout bounds the read loop of a single exchange
	responseTimeout time.Duration
	logger          *slog.Logger
	sleep           SleepFunc
	// closed indicates if the session has been shut down
	closed bool

	// pending holds bytes read from the transport but not yet returned as
	// a line
	pending []byte
	buf     []byte
}

// New dials the transport described by config and waits for the modem to
// settle. The returned Modem owns the transport until Close is called.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport:       transport,
		responseTimeout: config.responseTimeout,
		logger:          config.logger,
		sleep:           config.sleep,
		buf:             make([]byte, 256),
	}

	if err := m.sleep(ctx, config.settleDelay); err != nil {
		transport.Close()
		return nil, err
	}

	return m, nil
}

// Close releases the transport. It returns ErrAlreadyClosed when called more
// than once.
func (m *Modem) Close() error {
	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true

	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

type sendOptions struct {
	wait           time.Duration
	stopOnSentinel bool
}

// SendOption adjusts a single exchange.
type SendOption func(*sendOptions)

// WithWait sets the pause between writing the command and reading the reply.
func WithWait(d time.Duration) SendOption {
	return func(o *sendOptions) {
		o.wait = d
	}
}

// WithoutSentinelStop keeps reading after OK or ERROR until the reply goes
// quiet or the response timeout elapses.
func WithoutSentinelStop() SendOption {
	return func(o *sendOptions) {
		o.stopOnSentinel = false
	}
}

// Send writes cmd terminated by CRLF and collects the reply lines.
//
// Reading stops at the first line equal to OK or ERROR, at the first read
// that returns no data, or when the response timeout elapses. A transport
// read failure ends the exchange with the lines collected so far and no
// error. Modem ERROR replies are returned as data.
//
// Send only fails when the session is unusable, the command cannot be
// written or ctx is done.
func (m *Modem) Send(ctx context.Context, cmd string, opts ...SendOption) ([]string, error) {
	if m.closed {
		return nil, ErrAlreadyClosed
	}
	if m.transport == nil {
		return nil, ErrNotInitialized
	}

	o := sendOptions{wait: DefaultWait, stopOnSentinel: true}
	for _, opt := range opts {
		opt(&o)
	}

	// A stale reply to an earlier command must not be attributed to this one.
	m.pending = m.pending[:0]
	if err := m.transport.ResetInputBuffer(); err != nil {
		m.logger.Warn("Failed to discard unread input", "cmd", cmd, "error", err)
	}

	wire := strings.TrimSpace(cmd) + at.CRLF
	if _, err := m.transport.Write([]byte(wire)); err != nil {
		return nil, fmt.Errorf("write command %q: %w", cmd, err)
	}

	if err := m.sleep(ctx, o.wait); err != nil {
		return nil, err
	}

	var lines []string
	deadline := time.Now().Add(m.responseTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return lines, err
		}

		res := m.readLine()
		switch res.status {
		case readFailed:
			m.logger.Warn("Read failed, returning partial response",
				"cmd", cmd, "lines", len(lines), "error", res.err)
			return lines, nil
		case readEmpty:
			m.logger.Debug("Response complete", "cmd", cmd, "lines", len(lines))
			return lines, nil
		}

		line := decodeLine(res.line)
		lines = append(lines, line)

		if o.stopOnSentinel && at.IsSentinel(line) {
			m.logger.Debug("Response terminated", "cmd", cmd, "final", line)
			return lines, nil
		}
	}

	m.logger.Debug("Response timeout", "cmd", cmd, "lines", len(lines), "timeout", m.responseTimeout)
	return lines, nil
}

type readStatus int

const (
	lineRead   readStatus = iota // a full line, or trailing data at timeout
	readEmpty                    // no data before the read timed out
	readFailed                   // the transport returned an error
)

type readResult struct {
	line   []byte
	status readStatus
	err    error
}

// readLine returns the next LF terminated line from the transport. When a
// read times out after some data arrived, that data is returned as a line.
// On failure any partially read line is discarded.
func (m *Modem) readLine() readResult {
	for {
		if i := bytes.IndexByte(m.pending, '\n'); i >= 0 {
			line := bytes.Clone(m.pending[:i+1])
			m.pending = append(m.pending[:0], m.pending[i+1:]...)
			return readResult{line: line, status: lineRead}
		}

		n, err := m.transport.Read(m.buf)
		m.pending = append(m.pending, m.buf[:n]...)

		quiet := err == nil || isEndOfStream(err)
		switch {
		case quiet && n > 0:
			continue
		case quiet:
			if len(m.pending) == 0 {
				return readResult{status: readEmpty}
			}
			line := bytes.Clone(m.pending)
			m.pending = m.pending[:0]
			return readResult{line: line, status: lineRead}
		default:
			m.pending = m.pending[:0]
			return readResult{status: readFailed, err: err}
		}
	}
}

// decodeLine converts raw modem output to text. Invalid UTF-8 sequences are
// dropped and trailing whitespace, including the CR of CRLF, is removed.
func decodeLine(raw []byte) string {
	return strings.TrimRightFunc(strings.ToValidUTF8(string(raw), ""), unicode.IsSpace)
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
