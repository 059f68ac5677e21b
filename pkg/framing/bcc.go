package framing

import (
	"fmt"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Control bytes.
const (
	STX byte = 0x02
	ETX byte = 0x03
	ENQ byte = 0x05
	ACK byte = 0x06
	NAK byte = 0x15
)

// BCC returns the XOR of every byte of b.
func BCC(b []byte) byte {
	var x byte
	for _, c := range b {
		x ^= c
	}
	return x
}

// BCCHex returns BCC(b) as two upper-case hex digits.
func BCCHex(b []byte) []byte {
	return []byte(fmt.Sprintf("%02X", BCC(b)))
}

// STXFrame wraps payload as STX, payload, ETX followed by BCCHex(payload).
func STXFrame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, STX)
	out = append(out, payload...)
	out = append(out, ETX)
	return append(out, BCCHex(payload)...)
}

// CheckBCC compares a received two-digit check value, in either case,
// with the one computed over payload.
func CheckBCC(op string, payload, got []byte) error {
	want := string(BCCHex(payload))
	if strings.ToUpper(string(got)) != want {
		return fault.Checksum(op, want, string(got))
	}
	return nil
}
