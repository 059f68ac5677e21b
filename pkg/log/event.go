package log

import (
	"time"
)

// Event is a protocol capture event recorded at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one open/close cycle of a transport (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates data flow relative to the host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Medium is the transport kind ("tcp", "serial", "gpib").
	Medium string `cbor:"6,keyasint,omitempty"`

	// Resource is the VISA-style resource string of the link.
	Resource string `cbor:"7,keyasint,omitempty"`

	// Instrument is the catalog key of the driver, when one is attached.
	Instrument string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Command layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Open/close, adapter mode
	Control     *ControlEvent     `cbor:"13,keyasint,omitempty"` // GPIB adapter directives
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates bytes read from the instrument.
	DirectionIn Direction = 0
	// DirectionOut indicates bytes written to the instrument.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the byte stream layer.
	LayerTransport Layer = 0
	// LayerCommand is the command/reply layer (dispatcher and Query/Write).
	LayerCommand Layer = 1
	// LayerDriver is the typed driver layer.
	LayerDriver Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerCommand:
		return "COMMAND"
	case LayerDriver:
		return "DRIVER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates payload traffic.
	CategoryMessage Category = 0
	// CategoryControl indicates an adapter directive.
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw bytes at the transport layer.
type FrameEvent struct {
	// Size is the number of bytes written or read.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large transfers).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures one command line and, for queries, its reply.
type CommandEvent struct {
	// Name is the registry name or shortcut used, empty for raw writes.
	Name string `cbor:"1,keyasint,omitempty"`

	// Text is the command line without terminator.
	Text string `cbor:"2,keyasint"`

	// Reply is the reply line, empty for writes.
	Reply string `cbor:"3,keyasint,omitempty"`

	// Duration is the time from write to reply (queries only).
	Duration *time.Duration `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures transport and adapter lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityTransport indicates a transport open/close.
	StateEntityTransport StateEntity = 0
	// StateEntityDriver indicates a driver attach/detach.
	StateEntityDriver StateEntity = 1
	// StateEntityAdapter indicates a GPIB adapter mode or address change.
	StateEntityAdapter StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityTransport:
		return "TRANSPORT"
	case StateEntityDriver:
		return "DRIVER"
	case StateEntityAdapter:
		return "ADAPTER"
	default:
		return "UNKNOWN"
	}
}

// ControlEvent captures a controller directive sent to a GPIB adapter.
type ControlEvent struct {
	// Directive is the directive line without terminator, e.g. "++addr 5".
	Directive string `cbor:"1,keyasint"`

	// Address is the bus address the directive concerns, if any.
	Address *int `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Kind is the fault kind name, if classified.
	Kind string `cbor:"3,keyasint,omitempty"`

	// Code is the instrument error code (if applicable).
	Code *int `cbor:"4,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"5,keyasint,omitempty"`
}
