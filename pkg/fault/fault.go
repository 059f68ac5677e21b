package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fault.
type Kind uint8

const (
	// KindConnection covers refused connections, lost media and timeouts.
	KindConnection Kind = iota + 1
	// KindProtocol covers errors reported by the instrument itself.
	KindProtocol
	// KindChecksum covers XOR/CRC mismatches in binary framing.
	KindChecksum
	// KindValidation covers caller input outside a documented range.
	KindValidation
	// KindConfiguration covers inconsistent driver or catalog declarations.
	KindConfiguration
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "CONNECTION"
	case KindProtocol:
		return "PROTOCOL"
	case KindChecksum:
		return "CHECKSUM"
	case KindValidation:
		return "VALIDATION"
	case KindConfiguration:
		return "CONFIGURATION"
	default:
		return "UNKNOWN"
	}
}

// Kind sentinels. Use errors.Is to classify an error.
var (
	ErrConnection    = errors.New("connection fault")
	ErrProtocol      = errors.New("protocol fault")
	ErrChecksum      = errors.New("checksum fault")
	ErrValidation    = errors.New("validation fault")
	ErrConfiguration = errors.New("configuration fault")

	// ErrTimeout marks connection faults caused by an elapsed deadline.
	ErrTimeout = errors.New("timeout")
)

// sentinel returns the sentinel for a kind.
func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindProtocol:
		return ErrProtocol
	case KindChecksum:
		return ErrChecksum
	case KindValidation:
		return ErrValidation
	case KindConfiguration:
		return ErrConfiguration
	default:
		return nil
	}
}

// Error is a classified fault raised while performing Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", strings.ToLower(e.Kind.String()), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of this fault's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Connection wraps err as a connection fault.
func Connection(op string, err error) error {
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

// Timeout wraps err as a connection fault that also matches ErrTimeout.
func Timeout(op string, err error) error {
	if err == nil {
		err = ErrTimeout
	} else if !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

// Protocol wraps err as a protocol fault.
func Protocol(op string, err error) error {
	return &Error{Kind: KindProtocol, Op: op, Err: err}
}

// Configuration wraps err as a configuration fault.
func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// Configurationf formats a configuration fault.
func Configurationf(op, format string, args ...any) error {
	return Configuration(op, fmt.Errorf(format, args...))
}

// IsTimeout reports whether err was caused by an elapsed deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// KindOf returns the kind of the first classified fault in err's chain.
func KindOf(err error) (Kind, bool) {
	for _, k := range []Kind{KindConnection, KindProtocol, KindChecksum, KindValidation, KindConfiguration} {
		if errors.Is(err, k.sentinel()) {
			return k, true
		}
	}
	return 0, false
}
