package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

// GPIB primary address limits.
const (
	MinGPIBAddress = 0
	MaxGPIBAddress = 30
)

// Adapter modes.
const (
	ModeDevice     = 0
	ModeController = 1
)

// PrologixConfig configures a network-to-GPIB adapter.
type PrologixConfig struct {
	// Address is the default bus address (default via DefaultPrologixConfig: 10).
	Address int

	// SettleDelay is waited after every write to the adapter, directives
	// included (default: 20ms).
	SettleDelay time.Duration

	// Timeout bounds the inner TCP link built by NewPrologixHost (default: 10s).
	Timeout time.Duration

	// Port is the adapter TCP port used by NewPrologixHost (default: 1234).
	Port int

	// Logger receives capture events (optional).
	Logger log.Logger
}

// DefaultPrologixConfig returns the adapter defaults.
func DefaultPrologixConfig() PrologixConfig {
	return PrologixConfig{
		Address:     10,
		SettleDelay: 20 * time.Millisecond,
		Timeout:     10 * time.Second,
		Port:        1234,
	}
}

// Prologix drives a GPIB bus through an adapter reached over an inner
// transport. It is itself a Transport bound to its current address.
type Prologix struct {
	inner  Transport
	config PrologixConfig
	cap    *capture
	sleep  func(time.Duration)

	// mu serializes directive and payload pairs on the shared adapter.
	mu   sync.Mutex
	addr int
	open bool
}

// NewPrologix wraps an inner transport connected to the adapter.
func NewPrologix(inner Transport, config PrologixConfig) (*Prologix, error) {
	if inner == nil {
		return nil, fault.Configurationf("prologix", "inner transport is required")
	}
	if err := validateAddress(config.Address); err != nil {
		return nil, err
	}
	if config.SettleDelay == 0 {
		config.SettleDelay = 20 * time.Millisecond
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Port == 0 {
		config.Port = 1234
	}
	return &Prologix{
		inner:  inner,
		config: config,
		cap:    newCapture(config.Logger, MediumGPIB, inner.Resource()),
		sleep:  time.Sleep,
		addr:   config.Address,
	}, nil
}

// NewPrologixHost builds the inner TCP link to host and wraps it.
func NewPrologixHost(host string, config PrologixConfig) (*Prologix, error) {
	port := config.Port
	if port == 0 {
		port = 1234
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	tc := DefaultTCPConfig(host, port)
	tc.Timeout = timeout
	tc.Logger = config.Logger
	inner, err := NewTCP(tc)
	if err != nil {
		return nil, err
	}
	return NewPrologix(inner, config)
}

func validateAddress(addr int) error {
	if addr < MinGPIBAddress || addr > MaxGPIBAddress {
		return fault.Validationf("gpib address", addr, "must be %d..%d", MinGPIBAddress, MaxGPIBAddress)
	}
	return nil
}

// Inner returns the transport to the adapter.
func (p *Prologix) Inner() Transport { return p.inner }

// ConnectionID returns the capture ID of the current open cycle.
func (p *Prologix) ConnectionID() string { return p.cap.ConnectionID() }

// Open opens the inner link and forces the adapter into controller mode.
// It is a no-op when already open.
func (p *Prologix) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open && p.inner.State() == StateOpen {
		return nil
	}

	p.cap.begin()
	if err := p.inner.Open(ctx); err != nil {
		return err
	}
	if err := p.setModeLocked(ModeController); err != nil {
		p.inner.Close()
		return err
	}
	mode, err := p.modeLocked()
	if err != nil {
		p.inner.Close()
		return err
	}
	if mode != ModeController {
		p.inner.Close()
		err := fault.Protocol("prologix open", fmt.Errorf("adapter reports mode %d, want controller", mode))
		p.cap.failure("open", err)
		return err
	}

	p.open = true
	p.cap.state(log.StateEntityAdapter, "", "CONTROLLER", "")
	return nil
}

// Close closes the inner link. It is a no-op when already closed.
func (p *Prologix) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return p.inner.Close()
	}
	p.open = false
	p.cap.state(log.StateEntityAdapter, "CONTROLLER", StateClosed.String(), "")
	return p.inner.Close()
}

// Address returns the current default bus address.
func (p *Prologix) Address() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

// SetAddress validates addr, makes it the default and asserts it on an
// open adapter.
func (p *Prologix) SetAddress(addr int) error {
	if err := validateAddress(addr); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.addr = addr
	if !p.open {
		return nil
	}
	return p.assertLocked(addr)
}

// QueryAddress asks the adapter for its configured address.
func (p *Prologix) QueryAddress() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	if err := p.directiveLocked("++addr", nil); err != nil {
		return 0, err
	}
	line, err := p.inner.ReadLine()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(line))
}

// Version returns the adapter firmware banner.
func (p *Prologix) Version() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return "", ErrNotOpen
	}
	if err := p.directiveLocked("++ver", nil); err != nil {
		return "", err
	}
	line, err := p.inner.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ModeController switches the adapter to controller mode.
func (p *Prologix) ModeController() error { return p.setMode(ModeController) }

// ModeDevice switches the adapter to device mode.
func (p *Prologix) ModeDevice() error { return p.setMode(ModeDevice) }

// Mode queries the adapter mode.
func (p *Prologix) Mode() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, ErrNotOpen
	}
	return p.modeLocked()
}

func (p *Prologix) setMode(mode int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	return p.setModeLocked(mode)
}

func (p *Prologix) setModeLocked(mode int) error {
	return p.directiveLocked(fmt.Sprintf("++mode %d", mode), nil)
}

func (p *Prologix) modeLocked() (int, error) {
	if err := p.directiveLocked("++mode", nil); err != nil {
		return 0, err
	}
	line, err := p.inner.ReadLine()
	if err != nil {
		return 0, err
	}
	mode, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fault.Protocol("prologix mode", err)
	}
	return mode, nil
}

func (p *Prologix) directiveLocked(d string, addr *int) error {
	if err := p.inner.Send(d); err != nil {
		return err
	}
	p.cap.control(d, addr)
	p.sleep(p.config.SettleDelay)
	return nil
}

func (p *Prologix) assertLocked(addr int) error {
	return p.directiveLocked(fmt.Sprintf("++addr %d", addr), &addr)
}

// sendTo writes payload to addr under the adapter mutex.
func (p *Prologix) sendTo(addr int, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return ErrNotOpen
	}
	if err := p.assertLocked(addr); err != nil {
		return err
	}
	if err := p.inner.SendRaw(payload); err != nil {
		return err
	}
	p.sleep(p.config.SettleDelay)
	return nil
}

// receiveFrom asks addr for up to max bytes.
func (p *Prologix) receiveFrom(addr, max int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, ErrNotOpen
	}
	if err := p.assertLocked(addr); err != nil {
		return nil, err
	}
	if err := p.directiveLocked(fmt.Sprintf("++read %d", max), &addr); err != nil {
		return nil, err
	}
	return p.inner.Receive(max)
}

// readLineFrom asks addr for one record terminated by EOI.
func (p *Prologix) readLineFrom(addr int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return "", ErrNotOpen
	}
	if err := p.assertLocked(addr); err != nil {
		return "", err
	}
	if err := p.directiveLocked("++read eoi", &addr); err != nil {
		return "", err
	}
	return p.inner.ReadLine()
}

// Send writes msg and the terminator to the current address.
func (p *Prologix) Send(msg string) error {
	return p.sendTo(p.Address(), []byte(msg+p.inner.Terminator()))
}

// SendRaw writes b verbatim to the current address.
func (p *Prologix) SendRaw(b []byte) error {
	return p.sendTo(p.Address(), b)
}

// Receive reads up to max bytes from the current address.
func (p *Prologix) Receive(max int) ([]byte, error) {
	return p.receiveFrom(p.Address(), max)
}

// ReadLine reads one line from the current address.
func (p *Prologix) ReadLine() (string, error) {
	return p.readLineFrom(p.Address())
}

// Terminator returns the inner link terminator.
func (p *Prologix) Terminator() string { return p.inner.Terminator() }

// SetTerminator replaces the inner link terminator.
func (p *Prologix) SetTerminator(term string) { p.inner.SetTerminator(term) }

// State returns the adapter link state.
func (p *Prologix) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open && p.inner.State() == StateOpen {
		return StateOpen
	}
	return StateClosed
}

// Medium returns "gpib".
func (p *Prologix) Medium() string { return MediumGPIB }

// Resource returns GPIB0::<addr>::INSTR for the current address.
func (p *Prologix) Resource() string {
	return fmt.Sprintf("GPIB0::%d::INSTR", p.Address())
}

// Channel returns a Transport bound to addr on this adapter.
func (p *Prologix) Channel(addr int) (*Channel, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	return &Channel{adapter: p, addr: addr}, nil
}

// Channel is one bus address on a shared Prologix adapter. Every operation
// re-asserts the address before touching the bus.
type Channel struct {
	adapter *Prologix
	addr    int

	mu   sync.Mutex
	open bool
}

// Address returns the bound bus address.
func (c *Channel) Address() int { return c.addr }

// Open opens the shared adapter if needed.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open && c.adapter.State() == StateOpen {
		return nil
	}
	if err := c.adapter.Open(ctx); err != nil {
		return err
	}
	c.open = true
	return nil
}

// Close detaches the channel. The shared adapter stays open.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *Channel) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send writes msg and the terminator to the bound address.
func (c *Channel) Send(msg string) error {
	if !c.isOpen() {
		return ErrNotOpen
	}
	return c.adapter.sendTo(c.addr, []byte(msg+c.adapter.inner.Terminator()))
}

// SendRaw writes b verbatim to the bound address.
func (c *Channel) SendRaw(b []byte) error {
	if !c.isOpen() {
		return ErrNotOpen
	}
	return c.adapter.sendTo(c.addr, b)
}

// Receive reads up to max bytes from the bound address.
func (c *Channel) Receive(max int) ([]byte, error) {
	if !c.isOpen() {
		return nil, ErrNotOpen
	}
	return c.adapter.receiveFrom(c.addr, max)
}

// ReadLine reads one line from the bound address.
func (c *Channel) ReadLine() (string, error) {
	if !c.isOpen() {
		return "", ErrNotOpen
	}
	return c.adapter.readLineFrom(c.addr)
}

// Terminator returns the adapter terminator.
func (c *Channel) Terminator() string { return c.adapter.Terminator() }

// SetTerminator replaces the adapter terminator, shared by all channels.
func (c *Channel) SetTerminator(term string) { c.adapter.SetTerminator(term) }

// State returns OPEN when the channel and its adapter are open.
func (c *Channel) State() State {
	if c.isOpen() && c.adapter.State() == StateOpen {
		return StateOpen
	}
	return StateClosed
}

// ConnectionID returns the adapter link's connection ID.
func (c *Channel) ConnectionID() string { return c.adapter.ConnectionID() }

// Medium returns "gpib".
func (c *Channel) Medium() string { return MediumGPIB }

// Resource returns GPIB0::<addr>::INSTR.
func (c *Channel) Resource() string {
	return fmt.Sprintf("GPIB0::%d::INSTR", c.addr)
}
