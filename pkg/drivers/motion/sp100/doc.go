// Package sp100 drives the Cosmotechs SP100 stepping motor controller.
//
// # Framing
//
// Every host message is STX, the unit byte (0x20 + unit), a two-byte
// command, ASCII data, ETX and the XOR check of unit, command and data as
// two hex digits. The controller answers ACK for accepted messages. Reads
// are followed by a reply frame of the same layout that the host confirms
// with a framed ACK, or a framed NAK when its check value does not match.
//
// # Axes
//
// Up to four axes are addressed per unit. Operations that take a set of
// axes accept axis numbers 1..4; moves and velocities take a map from
// axis number to value and leave the other axes untouched.
package sp100
