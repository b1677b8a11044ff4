// Package modemtest provides a scripted in-memory modem for tests.
package modemtest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"i4.energy/across/atprobe/at"
	"i4.energy/across/atprobe/modem"
)

// Modem simulates a modem behind a modem.Transport. Every complete command
// line written to it is recorded and answered with the lines registered for
// that command, or with the default reply.
//
// When no reply is pending, Read waits ReadTimeout and returns (0, nil), the
// way a serial port with a read timeout does.
type Modem struct {
	// ReadTimeout is how long a Read blocks when there is nothing to read.
	ReadTimeout time.Duration

	mu       sync.Mutex
	replies  map[string][]string
	fallback []string
	silent   bool
	written  []byte
	commands []string
	unread   []byte
	closed   bool
}

var _ modem.Transport = (*Modem)(nil)

// New returns a modem that answers unknown commands with OK.
func New() *Modem {
	return &Modem{
		replies:  make(map[string][]string),
		fallback: []string{at.OK},
	}
}

// Handle registers the reply lines sent when cmd is received.
func (m *Modem) Handle(cmd string, lines ...string) *Modem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[cmd] = lines
	return m
}

// Silent makes the modem ignore every command it has no reply registered
// for.
func (m *Modem) Silent() *Modem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silent = true
	return m
}

// Commands returns the command lines received so far, in order.
func (m *Modem) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Closed reports whether Close has been called.
func (m *Modem) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Modem) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}

	m.written = append(m.written, p...)

	// Only lines terminated by CRLF are complete commands.
	end := bytes.LastIndex(m.written, []byte(at.CRLF))
	if end < 0 {
		return len(p), nil
	}
	complete := m.written[:end+len(at.CRLF)]

	scanner := bufio.NewScanner(bytes.NewReader(complete))
	scanner.Split(at.Splitter)
	for scanner.Scan() {
		cmd := scanner.Text()
		m.commands = append(m.commands, cmd)
		m.respond(cmd)
	}
	m.written = append(m.written[:0], m.written[end+len(at.CRLF):]...)

	return len(p), nil
}

func (m *Modem) respond(cmd string) {
	lines, ok := m.replies[cmd]
	if !ok {
		if m.silent {
			return
		}
		lines = m.fallback
	}
	for _, l := range lines {
		m.unread = append(m.unread, l+at.CRLF...)
	}
}

func (m *Modem) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, io.EOF
	}
	if len(m.unread) > 0 {
		n := copy(p, m.unread)
		m.unread = m.unread[n:]
		m.mu.Unlock()
		return n, nil
	}
	timeout := m.ReadTimeout
	m.mu.Unlock()

	time.Sleep(timeout)
	return 0, nil
}

func (m *Modem) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = nil
	return nil
}

func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Dialer hands out a fixed Transport.
type Dialer struct {
	Transport modem.Transport
	Err       error
}

var _ modem.Dialer = Dialer{}

func (d Dialer) Dial(ctx context.Context) (modem.Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Transport, nil
}

// Pauses records requested pauses instead of sleeping. Its Sleep method can
// be passed to modem.ConfigBuilder.WithSleep.
type Pauses struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (p *Pauses) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.durations = append(p.durations, d)
	return ctx.Err()
}

// Durations returns the recorded pauses in order.
func (p *Pauses) Durations() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.durations...)
}
