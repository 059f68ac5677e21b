package fault

import (
	"fmt"
	"strings"
)

// InstrumentError is a protocol fault reported by an instrument's error
// queue and resolved against a static code table.
type InstrumentError struct {
	// Code is the numeric error code reported by the instrument.
	Code int

	// Message is the short vendor message.
	Message string

	// Explanation is the long vendor explanation, if the code is known.
	Explanation string

	// Source names the instrument that reported the error.
	Source string
}

func (e *InstrumentError) Error() string {
	source := e.Source
	if source == "" {
		source = "instrument"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s returned error %d: %s", source, e.Code, e.Message)
	if e.Explanation != "" {
		fmt.Fprintf(&b, " (%s)", e.Explanation)
	}
	return b.String()
}

// Is reports whether target is ErrProtocol.
func (e *InstrumentError) Is(target error) bool { return target == ErrProtocol }

// RangeError is a validation fault naming the offending argument.
type RangeError struct {
	Arg    string
	Value  any
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Arg, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *RangeError) Is(target error) bool { return target == ErrValidation }

// Validation returns a RangeError for arg.
func Validation(arg string, value any, reason string) error {
	return &RangeError{Arg: arg, Value: value, Reason: reason}
}

// Validationf returns a RangeError with a formatted reason.
func Validationf(arg string, value any, format string, args ...any) error {
	return &RangeError{Arg: arg, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ChecksumError is a framing fault where the received check value does not
// match the computed one.
type ChecksumError struct {
	Op   string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: checksum mismatch: received %s, calculated %s", e.Op, e.Got, e.Want)
}

// Is reports whether target is ErrChecksum.
func (e *ChecksumError) Is(target error) bool { return target == ErrChecksum }

// Checksum returns a ChecksumError.
func Checksum(op, want, got string) error {
	return &ChecksumError{Op: op, Want: want, Got: got}
}
