package framing

import (
	"fmt"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// CRC16 returns the Modbus CRC-16 of b.
func CRC16(b []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range b {
		crc ^= uint16(c)
		for range 8 {
			if crc&1 == 1 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// AppendCRC16 returns b followed by its CRC-16, low byte first.
func AppendCRC16(b []byte) []byte {
	crc := CRC16(b)
	out := make([]byte, len(b), len(b)+2)
	copy(out, b)
	return append(out, byte(crc), byte(crc>>8))
}

// CheckCRC16 verifies the trailing CRC-16 of frame.
func CheckCRC16(frame []byte) error {
	if len(frame) < 3 {
		return fault.Protocol("crc16", fmt.Errorf("frame too short: %d bytes", len(frame)))
	}
	body := frame[:len(frame)-2]
	want := CRC16(body)
	got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if want != got {
		return fault.Checksum("crc16", fmt.Sprintf("%04X", want), fmt.Sprintf("%04X", got))
	}
	return nil
}
