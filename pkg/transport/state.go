package transport

import (
	"errors"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// State is the link state of a transport.
type State int

const (
	// StateClosed indicates no underlying connection.
	StateClosed State = iota

	// StateOpen indicates an established connection.
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// Medium names.
const (
	MediumTCP    = "tcp"
	MediumSerial = "serial"
	MediumGPIB   = "gpib"
)

// DefaultTerminator is the line terminator used when none is configured.
const DefaultTerminator = "\n"

// Transport errors.
var (
	// ErrNotOpen is returned for I/O on a closed transport.
	ErrNotOpen = fault.Connection("", errors.New("transport not open"))
)
