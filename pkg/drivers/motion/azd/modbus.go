package azd

import (
	"encoding/binary"
	"fmt"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/framing"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Modbus function codes.
const (
	FuncReadHoldingRegisters   byte = 0x03
	FuncWriteSingleRegister    byte = 0x06
	FuncWriteMultipleRegisters byte = 0x10

	exceptionBit byte = 0x80
)

// ExceptionError is a Modbus exception response. It matches
// fault.ErrProtocol.
type ExceptionError struct {
	Function byte
	Code     byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception %d on function 0x%02X", e.Code, e.Function)
}

// Is reports whether target is fault.ErrProtocol.
func (e *ExceptionError) Is(target error) bool { return target == fault.ErrProtocol }

// ReadHoldingRegistersRequest returns the RTU frame reading quantity
// registers from address.
func ReadHoldingRegistersRequest(slave byte, address, quantity uint16) []byte {
	b := []byte{slave, FuncReadHoldingRegisters}
	b = binary.BigEndian.AppendUint16(b, address)
	b = binary.BigEndian.AppendUint16(b, quantity)
	return framing.AppendCRC16(b)
}

// WriteSingleRegisterRequest returns the RTU frame writing value to
// address.
func WriteSingleRegisterRequest(slave byte, address, value uint16) []byte {
	b := []byte{slave, FuncWriteSingleRegister}
	b = binary.BigEndian.AppendUint16(b, address)
	b = binary.BigEndian.AppendUint16(b, value)
	return framing.AppendCRC16(b)
}

// WriteMultipleRegistersRequest returns the RTU frame writing data, an
// even number of bytes, from address on.
func WriteMultipleRegistersRequest(slave byte, address uint16, data []byte) []byte {
	b := []byte{slave, FuncWriteMultipleRegisters}
	b = binary.BigEndian.AppendUint16(b, address)
	b = binary.BigEndian.AppendUint16(b, uint16(len(data)/2))
	b = append(b, byte(len(data)))
	b = append(b, data...)
	return framing.AppendCRC16(b)
}

// readResponse reads one RTU response for function fn and returns its
// data bytes: the register contents for reads, the echoed address and
// value or quantity for writes.
func readResponse(t transport.Transport, slave, fn byte) ([]byte, error) {
	head, err := transport.ReadFull(t, 2)
	if err != nil {
		return nil, err
	}

	var rest int
	switch {
	case head[1] == fn|exceptionBit:
		rest = 3
	case head[1] != fn:
		return nil, fault.Protocol("modbus", fmt.Errorf("unexpected function 0x%02X, want 0x%02X", head[1], fn))
	case fn == FuncReadHoldingRegisters:
		n, err := transport.ReadFull(t, 1)
		if err != nil {
			return nil, err
		}
		head = append(head, n[0])
		rest = int(n[0]) + 2
	default:
		rest = 6
	}

	tail, err := transport.ReadFull(t, rest)
	if err != nil {
		return nil, err
	}
	frame := append(head, tail...)
	if err := framing.CheckCRC16(frame); err != nil {
		return nil, err
	}
	if frame[0] != slave {
		return nil, fault.Protocol("modbus", fmt.Errorf("response from slave %d, want %d", frame[0], slave))
	}
	if frame[1]&exceptionBit != 0 {
		return nil, &ExceptionError{Function: fn, Code: frame[2]}
	}
	if fn == FuncReadHoldingRegisters {
		return frame[3 : len(frame)-2], nil
	}
	return frame[2 : len(frame)-2], nil
}
