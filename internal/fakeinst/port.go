package fakeinst

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrPortClosed is returned by I/O on a closed Port.
var ErrPortClosed = errors.New("port closed")

// Port is an in-memory serial port. Each Write is handed to Respond and
// the returned bytes become readable.
type Port struct {
	// Respond maps written bytes to reply bytes (optional).
	Respond func(written []byte) []byte

	mu          sync.Mutex
	cond        *sync.Cond
	written     [][]byte
	pending     []byte
	readTimeout time.Duration
	dtr, rts    *bool
	closed      bool
	resets      int
}

// NewPort returns an open port.
func NewPort(respond func(written []byte) []byte) *Port {
	p := &Port{Respond: respond, readTimeout: -1}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Feed appends bytes to the read side.
func (p *Port) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, b...)
	p.cond.Broadcast()
}

// Written returns every chunk passed to Write.
func (p *Port) Written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.written))
	copy(out, p.written)
	return out
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Lines returns the DTR and RTS states last set, nil if never set.
func (p *Port) Lines() (dtr, rts *bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dtr, p.rts
}

// Read returns pending bytes. With a positive read timeout and nothing
// pending it returns 0, nil like go.bug.st/serial. Otherwise it blocks.
func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pending) == 0 {
		if p.closed {
			return 0, ErrPortClosed
		}
		if p.readTimeout >= 0 {
			return 0, nil
		}
		p.cond.Wait()
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write records b and queues the response.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	chunk := append([]byte(nil), b...)
	p.written = append(p.written, chunk)
	if p.Respond != nil {
		p.pending = append(p.pending, p.Respond(chunk)...)
		p.cond.Broadcast()
	}
	return len(b), nil
}

// Close closes the port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}

// SetReadTimeout sets the read timeout. Negative blocks.
func (p *Port) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readTimeout = t
	return nil
}

// ResetInputBuffer discards pending bytes.
func (p *Port) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.resets++
	return nil
}

// SetDTR records the DTR line state.
func (p *Port) SetDTR(dtr bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dtr = &dtr
	return nil
}

// SetRTS records the RTS line state.
func (p *Port) SetRTS(rts bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rts = &rts
	return nil
}

// LineResponder adapts a text Responder to Port.Respond, splitting writes
// on term and appending term to each reply.
func LineResponder(term string, respond Responder) func([]byte) []byte {
	return func(written []byte) []byte {
		var out []byte
		text := string(written)
		for len(text) > 0 {
			i := strings.Index(text, term)
			if i < 0 {
				break
			}
			line := text[:i]
			text = text[i+len(term):]
			if reply, ok := respond(line); ok {
				out = append(out, reply+term...)
			}
		}
		return out
	}
}
