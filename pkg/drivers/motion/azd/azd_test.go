package azd

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/framing"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
	"github.com/ogameasure/ogameasure-go/pkg/transport/mocks"
)

// driverSim is a Modbus slave holding 16-bit registers.
type driverSim struct {
	mu     sync.Mutex
	slave  byte
	regs   map[uint16]uint16
	writes []string
	reject map[uint16]byte
	badCRC bool
}

func newDriverSim() *driverSim {
	return &driverSim{slave: 1, regs: map[uint16]uint16{}, reject: map[uint16]byte{}}
}

func (s *driverSim) respond(w []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if framing.CheckCRC16(w) != nil || w[0] != s.slave {
		return nil
	}
	fn := w[1]
	addr := binary.BigEndian.Uint16(w[2:])
	if code, ok := s.reject[addr]; ok {
		return framing.AppendCRC16([]byte{s.slave, fn | 0x80, code})
	}

	var out []byte
	switch fn {
	case FuncReadHoldingRegisters:
		qty := binary.BigEndian.Uint16(w[4:])
		out = []byte{s.slave, fn, byte(qty * 2)}
		for i := range qty {
			out = binary.BigEndian.AppendUint16(out, s.regs[addr+i])
		}
	case FuncWriteSingleRegister:
		s.regs[addr] = binary.BigEndian.Uint16(w[4:])
		s.writes = append(s.writes, hex.EncodeToString(w[2:6]))
		out = append([]byte(nil), w[:6]...)
	case FuncWriteMultipleRegisters:
		qty := binary.BigEndian.Uint16(w[4:])
		for i := range qty {
			s.regs[addr+i] = binary.BigEndian.Uint16(w[7+2*i:])
		}
		s.writes = append(s.writes, hex.EncodeToString(w[2:len(w)-2]))
		out = append([]byte(nil), w[:6]...)
	}
	out = framing.AppendCRC16(out)
	if s.badCRC {
		out[len(out)-1] ^= 0xFF
	}
	return out
}

func (s *driverSim) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func newTestController(t *testing.T) (*Controller, *driverSim, *[]time.Duration) {
	t.Helper()
	model := catalog.Default().MustLookup("orientalmotor-azd-ad")
	sim := newDriverSim()
	port := fakeinst.NewPort(sim.respond)

	cfg, err := model.SerialConfig("/dev/ttyUSB3")
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, serial.EvenParity, cfg.Parity)
	cfg.Opener = func(string, *serial.Mode) (transport.SerialPort, error) { return port, nil }
	tr, err := transport.NewSerial(cfg)
	require.NoError(t, err)

	c, err := New(context.Background(), tr, model)
	require.NoError(t, err)
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	t.Cleanup(func() { c.Close() })
	return c, sim, &sleeps
}

func TestRequestFrames(t *testing.T) {
	assert.Equal(t, "0106007d0010181e", hex.EncodeToString(WriteSingleRegisterRequest(1, RegZeroReturn, 0x0010)))
	assert.Equal(t, "0106007d000019d2", hex.EncodeToString(WriteSingleRegisterRequest(1, RegZeroReturn, 0x0000)))
	assert.Equal(t, "010300cc00020434", hex.EncodeToString(ReadHoldingRegistersRequest(1, RegPosition, 2)))

	req := WriteMultipleRegistersRequest(1, RegDirectOperation, DefaultDirectOperation().encode())
	assert.Equal(t,
		"0110005800102000000000000000010000"+"2af8"+"00013880"+"000f4240"+"000f4240"+"000003e8"+"00000001",
		hex.EncodeToString(req[:len(req)-2]))
	require.NoError(t, framing.CheckCRC16(req))
}

func TestZeroReturn(t *testing.T) {
	c, sim, sleeps := newTestController(t)

	require.NoError(t, c.ZeroReturn())
	assert.Equal(t, []string{"007d0010", "007d0000"}, sim.written())
	assert.Equal(t, []time.Duration{DefaultZeroReturnHold}, *sleeps)
}

func TestPositionAndAlarm(t *testing.T) {
	c, sim, _ := newTestController(t)
	sim.regs[RegPosition] = 0xFFFF
	sim.regs[RegPosition+1] = 0xFF38
	sim.regs[RegAlarm+1] = 0x0030

	p, err := c.Position()
	require.NoError(t, err)
	assert.Equal(t, int32(-200), p)

	a, err := c.Alarm()
	require.NoError(t, err)
	assert.Equal(t, 0x30, a)
}

func TestAlarmResetPulses(t *testing.T) {
	c, sim, _ := newTestController(t)

	require.NoError(t, c.AlarmReset())
	require.NoError(t, c.AlarmClear())
	assert.Equal(t, []string{
		"018000020400000000", "018000020400000001",
		"018400020400000000", "018400020400000001",
	}, sim.written())
}

func TestSimulator(t *testing.T) {
	c, _, _ := newTestController(t)

	require.NoError(t, c.SetSimulator(true))
	on, err := c.Simulator()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, c.SetSimulator(false))
	on, err = c.Simulator()
	require.NoError(t, err)
	assert.False(t, on)
}

func TestInitializeSequence(t *testing.T) {
	c, sim, _ := newTestController(t)

	require.NoError(t, c.Initialize())
	assert.Equal(t, []string{
		"03fe00020400000000",
		"007d0010", "007d0000",
		"018000020400000000", "018000020400000001",
		"018400020400000000", "018400020400000001",
	}, sim.written())
}

func TestDirect(t *testing.T) {
	c, sim, _ := newTestController(t)

	_, err := c.Call("direct_operation", "-500", "1000", "2000")
	require.NoError(t, err)
	assert.Equal(t, int32(-500), int32(uint32(sim.regs[RegDirectOperation+4])<<16|uint32(sim.regs[RegDirectOperation+5])))
	assert.Equal(t, uint16(2000), sim.regs[RegDirectOperation+9])
	assert.Equal(t, uint16(2000), sim.regs[RegDirectOperation+11])

	assert.ErrorIs(t, c.Direct(DirectOperation{Location: 1}), fault.ErrValidation)
}

func TestExceptionResponse(t *testing.T) {
	c, sim, _ := newTestController(t)
	sim.reject[RegSimulator] = 0x02

	err := c.SetSimulator(true)
	assert.ErrorIs(t, err, fault.ErrProtocol)
	var ee *ExceptionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, byte(0x02), ee.Code)
	assert.Equal(t, FuncWriteMultipleRegisters, ee.Function)
}

func TestResponseCRCMismatch(t *testing.T) {
	c, sim, _ := newTestController(t)
	sim.badCRC = true

	_, err := c.Position()
	assert.ErrorIs(t, err, fault.ErrChecksum)
}

func TestWrongSlave(t *testing.T) {
	tr := mocks.NewTransport(t)
	tr.On("Open", mock.Anything).Return(nil)
	tr.On("SendRaw", ReadHoldingRegistersRequest(1, RegAlarm, 2)).Return(nil)
	reply := framing.AppendCRC16([]byte{2, FuncReadHoldingRegisters, 4, 0, 0, 0, 0})
	tr.On("Receive", 2).Return(reply[:2], nil).Once()
	tr.On("Receive", 1).Return(reply[2:3], nil).Once()
	tr.On("Receive", 6).Return(reply[3:], nil).Once()

	c, err := New(context.Background(), tr, catalog.Default().MustLookup("orientalmotor-azd-ad"))
	require.NoError(t, err)

	_, err = c.Alarm()
	assert.ErrorIs(t, err, fault.ErrProtocol)
}

func TestBadSlaveOption(t *testing.T) {
	m := catalog.Default().MustLookup("orientalmotor-azd-ad")
	m.Options["slave"] = "00"
	_, err := New(context.Background(), mocks.NewTransport(t), m)
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}
