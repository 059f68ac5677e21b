// Package fault defines the closed set of error kinds shared by every
// transport, dispatcher and driver in this module.
//
// # Kinds
//
//   - Connection: the medium could not be reached, was lost, or timed out
//   - Protocol: the instrument reported an error through its error queue
//   - Checksum: a binary frame failed its XOR or CRC check
//   - Validation: a caller supplied a value outside a documented range
//   - Configuration: a driver or catalog was declared inconsistently
//
// Every error produced by the module matches exactly one kind sentinel
// through errors.Is. Timeouts are connection faults that also match
// ErrTimeout.
//
//	if errors.Is(err, fault.ErrTimeout) {
//	    // retry policy belongs to the caller
//	}
//
// Nothing in the module retries or recovers locally.
package fault
