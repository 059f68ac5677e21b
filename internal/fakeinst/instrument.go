package fakeinst

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
)

// Responder answers one command line. ok false means no reply is sent.
type Responder func(line string) (reply string, ok bool)

// Script returns a Responder answering exact command lines from a table.
func Script(replies map[string]string) Responder {
	return func(line string) (string, bool) {
		r, ok := replies[line]
		return r, ok
	}
}

// Option configures an Instrument before it starts listening.
type Option func(*Instrument)

// WithTerminator sets the line terminator used in both directions
// (default "\n").
func WithTerminator(term string) Option {
	return func(i *Instrument) { i.terminator = term }
}

// Instrument is a line-oriented TCP instrument on the loopback interface.
type Instrument struct {
	terminator string

	ln      net.Listener
	respond Responder

	mu       sync.Mutex
	received []string
	conns    map[net.Conn]struct{}
	accepts  int

	wg sync.WaitGroup
}

// NewInstrument starts an instrument answering with respond.
func NewInstrument(respond Responder, opts ...Option) (*Instrument, error) {
	inst := &Instrument{
		terminator: "\n",
		respond:    respond,
		conns:      make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(inst)
	}
	if inst.terminator == "" {
		return nil, errors.New("fakeinst: empty terminator")
	}

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	inst.ln = ln
	inst.wg.Add(1)
	go inst.acceptLoop()
	return inst, nil
}

// Host returns the listen host.
func (i *Instrument) Host() string {
	return i.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (i *Instrument) Port() int {
	return i.ln.Addr().(*net.TCPAddr).Port
}

// Received returns the command lines seen so far.
func (i *Instrument) Received() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.received))
	copy(out, i.received)
	return out
}

// Accepts returns the number of connections accepted.
func (i *Instrument) Accepts() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.accepts
}

// DropConnections closes every accepted connection.
func (i *Instrument) DropConnections() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for c := range i.conns {
		c.Close()
	}
}

// Close stops the instrument and waits for its goroutines.
func (i *Instrument) Close() error {
	err := i.ln.Close()
	i.DropConnections()
	i.wg.Wait()
	return err
}

func (i *Instrument) acceptLoop() {
	defer i.wg.Done()
	for {
		conn, err := i.ln.Accept()
		if err != nil {
			return
		}
		i.mu.Lock()
		i.conns[conn] = struct{}{}
		i.accepts++
		i.mu.Unlock()

		i.wg.Add(1)
		go i.serve(conn)
	}
}

func (i *Instrument) serve(conn net.Conn) {
	defer i.wg.Done()
	defer func() {
		i.mu.Lock()
		delete(i.conns, conn)
		i.mu.Unlock()
		conn.Close()
	}()

	term := i.terminator
	last := term[len(term)-1]
	r := bufio.NewReader(conn)
	var pending []byte
	for {
		chunk, err := r.ReadBytes(last)
		pending = append(pending, chunk...)
		if err != nil {
			return
		}
		if !strings.HasSuffix(string(pending), term) {
			continue
		}
		line := strings.TrimSuffix(string(pending), term)
		pending = pending[:0]

		i.mu.Lock()
		i.received = append(i.received, line)
		i.mu.Unlock()

		if i.respond == nil {
			continue
		}
		if reply, ok := i.respond(line); ok {
			if _, err := conn.Write([]byte(reply + term)); err != nil {
				return
			}
		}
	}
}
