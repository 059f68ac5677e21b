package transport

import "context"

// Transport is an opaque, synchronous byte-stream link to one instrument.
// Implemented by TCP, Serial and the Prologix adapter and its channels.
type Transport interface {
	// Open establishes the link. Calling Open on an open link is a no-op.
	Open(ctx context.Context) error

	// Close releases the link. Closing a closed link returns nil.
	Close() error

	// Send writes msg followed by the terminator in a single write.
	Send(msg string) error

	// SendRaw writes b verbatim.
	SendRaw(b []byte) error

	// Receive reads up to max raw bytes. It returns an empty slice and nil
	// when the remote side closed the link cleanly.
	Receive(max int) ([]byte, error)

	// ReadLine reads through the terminator and returns the line without it.
	ReadLine() (string, error)

	// Terminator returns the line terminator.
	Terminator() string

	// SetTerminator replaces the line terminator.
	SetTerminator(term string)

	// State returns the link state.
	State() State

	// Medium names the backend kind: "tcp", "serial" or "gpib".
	Medium() string

	// Resource returns a VISA-style resource string for the link.
	Resource() string
}

// Identified is implemented by transports that tag their capture events
// with a per-open connection ID.
type Identified interface {
	ConnectionID() string
}

// ConnectionID returns the connection ID of t, or "" when t does not
// carry one.
func ConnectionID(t Transport) string {
	if id, ok := t.(Identified); ok {
		return id.ConnectionID()
	}
	return ""
}

// Compile-time interface satisfaction checks.
var (
	_ Transport = (*TCP)(nil)
	_ Transport = (*Serial)(nil)
	_ Transport = (*Prologix)(nil)
	_ Transport = (*Channel)(nil)

	_ Identified = (*TCP)(nil)
	_ Identified = (*Serial)(nil)
	_ Identified = (*Prologix)(nil)
	_ Identified = (*Channel)(nil)
)
