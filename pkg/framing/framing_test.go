package framing

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestBCC(t *testing.T) {
	payload := append([]byte{0x30, 0x20}, "1,0,0,0"...)
	assert.Equal(t, byte(0x3D), BCC(payload))
	assert.Equal(t, []byte("3D"), BCCHex(payload))

	withUnit := append([]byte{0x20}, payload...)
	assert.Equal(t, []byte("1D"), BCCHex(withUnit))

	assert.Equal(t, byte(0), BCC(nil))
	assert.Equal(t, []byte("00"), BCCHex(nil))
}

func TestSTXFrame(t *testing.T) {
	payload := append([]byte{0x20, 0x30, 0x20}, "1,0,0,0"...)
	frame := STXFrame(payload)

	assert.Equal(t, STX, frame[0])
	assert.Equal(t, payload, frame[1:len(frame)-3])
	assert.Equal(t, ETX, frame[len(frame)-3])
	assert.Equal(t, []byte("1D"), frame[len(frame)-2:])
}

func TestCheckBCC(t *testing.T) {
	payload := []byte("\x20\x40\x201.000,2.000")
	sum := BCCHex(payload)

	assert.NoError(t, CheckBCC("read", payload, sum))
	assert.NoError(t, CheckBCC("read", payload, bytes.ToLower(sum)))

	err := CheckBCC("read", payload, []byte("ZZ"))
	assert.ErrorIs(t, err, fault.ErrChecksum)
	var ce *fault.ChecksumError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, string(sum), ce.Want)
	assert.Equal(t, "ZZ", ce.Got)
}

func TestCRC16(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"0106007D0010", "181e"},
		{"0106007D0000", "19d2"},
		{"010300CC0002", "0434"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			frame := AppendCRC16(mustHex(t, tt.cmd))
			assert.Equal(t, tt.want, hex.EncodeToString(frame[len(frame)-2:]), "crc bytes")
			assert.NoError(t, CheckCRC16(frame))
		})
	}
}

func TestAppendCRC16DoesNotAlias(t *testing.T) {
	buf := make([]byte, 6, 16)
	copy(buf, mustHex(t, "0106007D0010"))
	frame := AppendCRC16(buf)
	frame[0] = 0xFF
	assert.Equal(t, byte(0x01), buf[0])
}

func TestCheckCRC16Mismatch(t *testing.T) {
	frame := AppendCRC16(mustHex(t, "010300CC0002"))
	frame[len(frame)-1] ^= 0xFF

	err := CheckCRC16(frame)
	assert.ErrorIs(t, err, fault.ErrChecksum)

	assert.ErrorIs(t, CheckCRC16([]byte{0x01}), fault.ErrProtocol)
}
