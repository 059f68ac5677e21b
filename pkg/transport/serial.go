package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

// SerialPort is the subset of serial.Port used by the Serial transport.
type SerialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
}

// SerialOpener opens a port with the given mode.
type SerialOpener func(path string, mode *serial.Mode) (SerialPort, error)

// OpenSerialPort opens a port through go.bug.st/serial.
func OpenSerialPort(path string, mode *serial.Mode) (SerialPort, error) {
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SerialConfig configures a serial link.
type SerialConfig struct {
	// Port is the device path or port name, e.g. /dev/ttyUSB0 or COM3.
	Port string

	// Baud is the baud rate (default: 9600).
	Baud int

	// DataBits is the byte size (default: 8).
	DataBits int

	// Parity (default: serial.NoParity).
	Parity serial.Parity

	// StopBits (default: serial.OneStopBit).
	StopBits serial.StopBits

	// ReadTimeout bounds each read. Zero blocks until data arrives.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write. Zero blocks until written.
	WriteTimeout time.Duration

	// XonXoff requests software flow control.
	XonXoff bool

	// RtsCts requests hardware flow control.
	RtsCts bool

	// DTR and RTS set the initial modem line states when non-nil.
	DTR *bool
	RTS *bool

	// Terminator is appended by Send and stripped by ReadLine (default: "\n").
	Terminator string

	// Opener opens the port (default: OpenSerialPort).
	Opener SerialOpener

	// Logger receives capture events (optional).
	Logger log.Logger
}

// DefaultSerialConfig returns 9600 8N1 with blocking reads and writes.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:       port,
		Baud:       9600,
		DataBits:   8,
		Parity:     serial.NoParity,
		StopBits:   serial.OneStopBit,
		Terminator: DefaultTerminator,
	}
}

// Serial is a Transport over a serial port.
type Serial struct {
	config SerialConfig
	cap    *capture

	// resolve yields the port path at Open time.
	resolve func() (string, error)

	mu     sync.Mutex
	port   SerialPort
	reader *lineReader
	term   string
}

// NewSerial creates a serial transport. The port is not opened.
func NewSerial(config SerialConfig) (*Serial, error) {
	if config.Port == "" {
		return nil, fault.Configurationf("serial", "port is required")
	}
	s := newSerial(config)
	port := config.Port
	s.resolve = func() (string, error) { return port, nil }
	return s, nil
}

func newSerial(config SerialConfig) *Serial {
	if config.Baud == 0 {
		config.Baud = 9600
	}
	if config.DataBits == 0 {
		config.DataBits = 8
	}
	if config.Terminator == "" {
		config.Terminator = DefaultTerminator
	}
	if config.Opener == nil {
		config.Opener = OpenSerialPort
	}
	s := &Serial{
		config: config,
		term:   config.Terminator,
	}
	s.cap = newCapture(config.Logger, MediumSerial, s.Resource())
	return s
}

// ConnectionID returns the capture ID of the current open cycle.
func (s *Serial) ConnectionID() string { return s.cap.ConnectionID() }

// Open opens the port. It is a no-op when already open.
func (s *Serial) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fault.Connection("open serial", err)
	}
	if s.config.XonXoff || s.config.RtsCts {
		return fault.Configurationf("open serial", "flow control is not supported by this backend (xonxoff=%t rtscts=%t)",
			s.config.XonXoff, s.config.RtsCts)
	}

	s.cap.begin()
	path, err := s.resolve()
	if err != nil {
		s.cap.failure("open", err)
		return err
	}

	mode := &serial.Mode{
		BaudRate: s.config.Baud,
		DataBits: s.config.DataBits,
		Parity:   s.config.Parity,
		StopBits: s.config.StopBits,
	}
	port, err := s.config.Opener(path, mode)
	if err != nil {
		err = fault.Connection("open "+path, err)
		s.cap.failure("open", err)
		return err
	}

	if err := s.configure(port); err != nil {
		port.Close()
		err = fault.Connection("configure "+path, err)
		s.cap.failure("open", err)
		return err
	}

	s.port = port
	s.reader = newLineReader(&portReader{port: port})
	s.cap.state(log.StateEntityTransport, StateClosed.String(), StateOpen.String(), path)
	return nil
}

func (s *Serial) configure(port SerialPort) error {
	timeout := serial.NoTimeout
	if s.config.ReadTimeout > 0 {
		timeout = s.config.ReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		return err
	}
	if s.config.DTR != nil {
		if err := port.SetDTR(*s.config.DTR); err != nil {
			return err
		}
	}
	if s.config.RTS != nil {
		if err := port.SetRTS(*s.config.RTS); err != nil {
			return err
		}
	}
	return port.ResetInputBuffer()
}

// Close closes the port. It is a no-op when already closed.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	if err := s.dropLocked(""); err != nil {
		return fault.Connection("close serial", err)
	}
	return nil
}

// dropLocked closes the port and records the transition to CLOSED.
func (s *Serial) dropLocked(reason string) error {
	err := s.port.Close()
	s.port = nil
	s.reader = nil
	s.cap.state(log.StateEntityTransport, StateOpen.String(), StateClosed.String(), reason)
	return err
}

// Send writes msg followed by the terminator.
func (s *Serial) Send(msg string) error {
	s.mu.Lock()
	term := s.term
	s.mu.Unlock()
	return s.SendRaw([]byte(msg + term))
}

// SendRaw writes b verbatim, bounded by WriteTimeout when set. A write
// that outlives WriteTimeout closes the port and the link must be reopened.
func (s *Serial) SendRaw(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrNotOpen
	}
	if err := s.write(b); err != nil {
		s.cap.failure("write", err)
		return err
	}
	s.cap.frame(log.DirectionOut, b)
	return nil
}

func (s *Serial) write(b []byte) error {
	if s.config.WriteTimeout <= 0 {
		_, err := s.port.Write(b)
		return ioFault("write serial", err)
	}

	done := make(chan error, 1)
	port := s.port
	go func() {
		_, err := port.Write(b)
		done <- err
	}()

	timer := time.NewTimer(s.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return ioFault("write serial", err)
	case <-timer.C:
		s.dropLocked("write timeout")
		return fault.Timeout("write serial", nil)
	}
}

// Receive reads up to max bytes.
func (s *Serial) Receive(max int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil, ErrNotOpen
	}

	raw, rerr := s.reader.receive(max)
	b, err := receiveResult("read serial", raw, rerr)
	if err != nil {
		s.cap.failure("receive", err)
		return nil, err
	}
	if len(b) > 0 {
		s.cap.frame(log.DirectionIn, b)
	}
	return b, nil
}

// ReadLine reads one terminated line.
func (s *Serial) ReadLine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return "", ErrNotOpen
	}

	raw, rerr := s.reader.readLine(s.term)
	line, err := lineResult("readline serial", raw, rerr)
	if err != nil {
		s.cap.failure("readline", err)
		return "", err
	}
	s.cap.frame(log.DirectionIn, raw)
	return line, nil
}

// Terminator returns the line terminator.
func (s *Serial) Terminator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// SetTerminator replaces the line terminator.
func (s *Serial) SetTerminator(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = term
}

// State returns the link state.
func (s *Serial) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return StateClosed
	}
	return StateOpen
}

// Medium returns "serial".
func (s *Serial) Medium() string { return MediumSerial }

// Resource returns ASRL<port>::INSTR.
func (s *Serial) Resource() string {
	return fmt.Sprintf("ASRL%s::INSTR", s.config.Port)
}

// portReader turns the empty read go.bug.st/serial returns on a read
// timeout into a timeout error.
type portReader struct {
	port SerialPort
}

func (r *portReader) Read(p []byte) (int, error) {
	n, err := r.port.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, fault.Timeout("read serial", nil)
	}
	return n, err
}

// ParseParity parses N, E, O, M or S (case-insensitive). Empty means N.
func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N", "NONE":
		return serial.NoParity, nil
	case "E", "EVEN":
		return serial.EvenParity, nil
	case "O", "ODD":
		return serial.OddParity, nil
	case "M", "MARK":
		return serial.MarkParity, nil
	case "S", "SPACE":
		return serial.SpaceParity, nil
	default:
		return 0, fault.Configuration("parity", errors.New("unknown parity "+s))
	}
}

// ParseStopBits parses 1, 1.5 or 2. Empty means 1.
func ParseStopBits(s string) (serial.StopBits, error) {
	switch strings.TrimSpace(s) {
	case "", "1":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	default:
		return 0, fault.Configuration("stop bits", errors.New("unknown stop bits "+s))
	}
}
