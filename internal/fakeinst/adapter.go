package fakeinst

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// BusDevice is one instrument on the simulated GPIB bus.
type BusDevice struct {
	Respond Responder

	mu       sync.Mutex
	received []string
	output   []string
}

// Received returns the payload lines addressed to this device.
func (d *BusDevice) Received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.received))
	copy(out, d.received)
	return out
}

// Adapter is a fake Prologix GPIB-ETHERNET controller. It understands
// ++mode, ++addr, ++ver and ++read and routes payload lines to the device
// at the current address.
type Adapter struct {
	// Version is the ++ver banner.
	Version string

	ln net.Listener

	mu      sync.Mutex
	mode    int
	addr    int
	devices map[int]*BusDevice
	log     []string

	wg sync.WaitGroup
}

// NewAdapter starts an adapter in device mode at address 0.
func NewAdapter() (*Adapter, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		Version: "Prologix GPIB-ETHERNET Controller version 01.06.06.00",
		ln:      ln,
		devices: make(map[int]*BusDevice),
	}
	a.wg.Add(1)
	go a.acceptLoop()
	return a, nil
}

// Attach places a device at addr.
func (a *Adapter) Attach(addr int, respond Responder) *BusDevice {
	d := &BusDevice{Respond: respond}
	a.mu.Lock()
	a.devices[addr] = d
	a.mu.Unlock()
	return d
}

// Host returns the listen host.
func (a *Adapter) Host() string { return a.ln.Addr().(*net.TCPAddr).IP.String() }

// Port returns the listen port.
func (a *Adapter) Port() int { return a.ln.Addr().(*net.TCPAddr).Port }

// Mode returns the current adapter mode.
func (a *Adapter) Mode() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Log returns every line the adapter received, directives included.
func (a *Adapter) Log() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.log))
	copy(out, a.log)
	return out
}

// Close stops the adapter.
func (a *Adapter) Close() error {
	err := a.ln.Close()
	a.wg.Wait()
	return err
}

func (a *Adapter) acceptLoop() {
	defer a.wg.Done()
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}
		a.wg.Add(1)
		go a.serve(conn)
	}
}

func (a *Adapter) serve(conn net.Conn) {
	defer a.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		raw, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line := strings.TrimRight(raw, "\r\n")
		out, ok := a.handle(line)
		if ok {
			if _, err := conn.Write([]byte(out + "\n")); err != nil {
				return
			}
		}
	}
}

func (a *Adapter) handle(line string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log = append(a.log, line)

	if !strings.HasPrefix(line, "++") {
		d := a.devices[a.addr]
		if d == nil {
			return "", false
		}
		d.mu.Lock()
		d.received = append(d.received, line)
		if d.Respond != nil {
			if reply, ok := d.Respond(line); ok {
				d.output = append(d.output, reply)
			}
		}
		d.mu.Unlock()
		return "", false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "++mode":
		if len(fields) == 1 {
			return strconv.Itoa(a.mode), true
		}
		a.mode, _ = strconv.Atoi(fields[1])
	case "++addr":
		if len(fields) == 1 {
			return strconv.Itoa(a.addr), true
		}
		a.addr, _ = strconv.Atoi(fields[1])
	case "++ver":
		return a.Version, true
	case "++read":
		d := a.devices[a.addr]
		if d == nil {
			return "", false
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(d.output) == 0 {
			return "", false
		}
		out := d.output[0]
		d.output = d.output[1:]
		return out, true
	default:
		return fmt.Sprintf("unknown directive %s", fields[0]), false
	}
	return "", false
}
