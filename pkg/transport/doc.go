// Package transport provides the byte-stream links used to reach instruments.
//
// Three backends implement the same Transport contract:
//   - TCP: raw socket instruments (SCPI over port 5025, LXI)
//   - Serial: RS-232/RS-485 adapters via go.bug.st/serial, including
//     USB-serial bridges located by their USB serial number
//   - Prologix: a network-to-GPIB adapter that wraps a TCP link and
//     addresses bus devices with ++ directives
//
// # Contract
//
// Open is idempotent and Close never fails on a closed link. Send appends
// the terminator exactly once and ReadLine strips it exactly once. I/O on a
// link that is not open returns ErrNotOpen. Timeouts are connection faults
// that also match fault.ErrTimeout. Nothing is retried at this layer. A
// line cut short by a read timeout is kept and completed by the next
// ReadLine. A serial write that times out closes the port.
//
// # GPIB Addressing
//
// A Prologix adapter is shared by every instrument on its bus. Each Send
// re-asserts the target address with ++addr before the payload, and a
// settle delay follows every write:
//
//	++addr 5\n
//	FREQ 1.0000000000 GHz\n
//	<20 ms>
//
// Channel returns a Transport bound to one address. Channels on the same
// adapter serialize their directive and payload pairs under one mutex.
//
// # Capture
//
// Every backend accepts a log.Logger. Opening a link assigns a fresh
// connection ID and all traffic, adapter directives and state changes are
// emitted as capture events.
package transport
