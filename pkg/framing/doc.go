// Package framing computes the check values used by binary instrument
// protocols.
//
// # XOR block check
//
// Cosmotechs motion controllers frame each message as
//
//	STX | payload | ETX | BCC
//
// where BCC is the XOR of the payload bytes rendered as two upper-case hex
// digits. STX and ETX are not part of the checked range.
//
// # CRC-16
//
// Modbus RTU devices append CRC-16 (reflected polynomial 0xA001, initial
// value 0xFFFF) low byte first.
package framing
