package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

// TCPConfig configures a raw socket link.
type TCPConfig struct {
	// Host is the instrument host name or address (required).
	Host string

	// Port is the instrument port (required).
	Port int

	// Timeout bounds connecting and every read or write (default: 3s).
	Timeout time.Duration

	// Network is the dial network (default: "tcp4").
	Network string

	// Terminator is appended by Send and stripped by ReadLine (default: "\n").
	Terminator string

	// Logger receives capture events (optional).
	Logger log.Logger
}

// DefaultTCPConfig returns the default configuration for host:port.
func DefaultTCPConfig(host string, port int) TCPConfig {
	return TCPConfig{
		Host:       host,
		Port:       port,
		Timeout:    3 * time.Second,
		Network:    "tcp4",
		Terminator: DefaultTerminator,
	}
}

// TCP is a Transport over a stream socket.
type TCP struct {
	config TCPConfig
	cap    *capture

	mu     sync.Mutex // guards conn, reader and the terminator
	conn   net.Conn
	reader *lineReader
	term   string

	// dial is replaceable for tests.
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCP creates a TCP transport. The link is not opened.
func NewTCP(config TCPConfig) (*TCP, error) {
	if config.Host == "" {
		return nil, fault.Configurationf("tcp", "host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fault.Configurationf("tcp", "invalid port %d", config.Port)
	}
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}
	if config.Network == "" {
		config.Network = "tcp4"
	}
	if config.Terminator == "" {
		config.Terminator = DefaultTerminator
	}

	t := &TCP{
		config: config,
		term:   config.Terminator,
	}
	t.cap = newCapture(config.Logger, MediumTCP, t.Resource())
	dialer := &net.Dialer{}
	t.dial = dialer.DialContext
	return t, nil
}

// Address returns host:port.
func (t *TCP) Address() string {
	return net.JoinHostPort(t.config.Host, strconv.Itoa(t.config.Port))
}

// Timeout returns the per-call timeout.
func (t *TCP) Timeout() time.Duration { return t.config.Timeout }

// ConnectionID returns the capture ID of the current open cycle.
func (t *TCP) ConnectionID() string { return t.cap.ConnectionID() }

// Open connects to the instrument. It is a no-op when already open.
func (t *TCP) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	t.cap.begin()
	conn, err := t.dial(ctx, t.config.Network, t.Address())
	if err != nil {
		err = openFault(ctx, "dial "+t.Address(), err)
		t.cap.failure("open", err)
		return err
	}

	t.conn = conn
	t.reader = newLineReader(conn)
	t.cap.state(log.StateEntityTransport, StateClosed.String(), StateOpen.String(), "")
	return nil
}

// Close disconnects. It is a no-op when already closed.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	t.cap.state(log.StateEntityTransport, StateOpen.String(), StateClosed.String(), "")
	if err != nil {
		return fault.Connection("close "+t.Address(), err)
	}
	return nil
}

// Send writes msg followed by the terminator.
func (t *TCP) Send(msg string) error {
	t.mu.Lock()
	term := t.term
	t.mu.Unlock()
	return t.SendRaw([]byte(msg + term))
}

// SendRaw writes b verbatim.
func (t *TCP) SendRaw(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotOpen
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.config.Timeout))
	defer t.conn.SetWriteDeadline(time.Time{})

	if _, err := t.conn.Write(b); err != nil {
		err = ioFault("write "+t.Address(), err)
		t.cap.failure("write", err)
		return err
	}
	t.cap.frame(log.DirectionOut, b)
	return nil
}

// Receive reads up to max bytes.
func (t *TCP) Receive(max int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil, ErrNotOpen
	}

	t.conn.SetReadDeadline(time.Now().Add(t.config.Timeout))
	defer t.conn.SetReadDeadline(time.Time{})

	raw, rerr := t.reader.receive(max)
	b, err := receiveResult("read "+t.Address(), raw, rerr)
	if err != nil {
		t.cap.failure("receive", err)
		return nil, err
	}
	if len(b) > 0 {
		t.cap.frame(log.DirectionIn, b)
	}
	return b, nil
}

// ReadLine reads one terminated line.
func (t *TCP) ReadLine() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return "", ErrNotOpen
	}

	t.conn.SetReadDeadline(time.Now().Add(t.config.Timeout))
	defer t.conn.SetReadDeadline(time.Time{})

	raw, rerr := t.reader.readLine(t.term)
	line, err := lineResult("readline "+t.Address(), raw, rerr)
	if err != nil {
		t.cap.failure("readline", err)
		return "", err
	}
	t.cap.frame(log.DirectionIn, raw)
	return line, nil
}

// Terminator returns the line terminator.
func (t *TCP) Terminator() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.term
}

// SetTerminator replaces the line terminator.
func (t *TCP) SetTerminator(term string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.term = term
}

// State returns the link state.
func (t *TCP) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return StateClosed
	}
	return StateOpen
}

// Medium returns "tcp".
func (t *TCP) Medium() string { return MediumTCP }

// Resource returns TCPIP::host::port::SOCKET.
func (t *TCP) Resource() string {
	return fmt.Sprintf("TCPIP::%s::%d::SOCKET", t.config.Host, t.config.Port)
}

// openFault classifies a dial failure. An expired context is a timeout.
func openFault(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fault.Timeout(op, err)
	}
	return ioFault(op, err)
}
