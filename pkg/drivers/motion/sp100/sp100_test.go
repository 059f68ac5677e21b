package sp100

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/framing"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
	"github.com/ogameasure/ogameasure-go/pkg/transport/mocks"
)

// controllerSim answers SP100 frames.
type controllerSim struct {
	mu       sync.Mutex
	replies  map[[2]byte]string
	mode     string
	corrupt  bool
	received []string
	confirms []byte
}

func newControllerSim() *controllerSim {
	return &controllerSim{
		mode: "5",
		replies: map[[2]byte]string{
			cmdDigitalOutput: "80000001",
			cmdControlStatus: "05",
			cmdPositions:     "10.000,-2.500,0.000,0.000",
			cmdAxisStatus:    "0002,0000,0081,8000",
			cmdSensorStatus:  "21,00",
			cmdErrorCode:     "07",
			cmdVersion:       "1.02,2019,04,01",
			cmdAxesCount:     "1",
		},
	}
}

func (s *controllerSim) respond(w []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(w) == 5 && (w[1] == framing.ACK || w[1] == framing.NAK) {
		s.confirms = append(s.confirms, w[1])
		return nil
	}
	n := len(w)
	if n < 6 || w[0] != framing.STX || w[n-3] != framing.ETX {
		return []byte{framing.NAK}
	}
	if framing.CheckBCC("sim", w[1:n-3], w[n-2:]) != nil {
		return []byte{framing.NAK}
	}

	unit := w[1]
	cmd := [2]byte{w[2], w[3]}
	data := string(w[4 : n-3])
	s.received = append(s.received, data)

	var reply string
	switch {
	case cmd == cmdMode && data != "":
		s.mode = data
		return []byte{framing.ACK}
	case cmd == cmdMode:
		reply = s.mode
	case data != "":
		return []byte{framing.ACK}
	default:
		var ok bool
		if reply, ok = s.replies[cmd]; !ok {
			return []byte{framing.ACK}
		}
	}

	payload := append([]byte{unit, cmd[0], cmd[1]}, reply...)
	frame := framing.STXFrame(payload)
	if s.corrupt {
		frame[len(frame)-2], frame[len(frame)-1] = 'F', 'F'
	}
	return append([]byte{framing.ACK}, frame...)
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, d)
}

func newTestController(t *testing.T) (*Controller, *controllerSim, *fakeinst.Port, *sleepRecorder) {
	t.Helper()
	model := catalog.Default().MustLookup("cosmotechs-sp100")
	sim := newControllerSim()
	port := fakeinst.NewPort(sim.respond)

	cfg, err := model.SerialConfig("/dev/ttyUSB2")
	require.NoError(t, err)
	cfg.Opener = func(string, *serial.Mode) (transport.SerialPort, error) { return port, nil }
	tr, err := transport.NewSerial(cfg)
	require.NoError(t, err)

	c, err := New(context.Background(), tr, model)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	t.Cleanup(func() { c.Close() })
	return c, sim, port, rec
}

func TestFrame(t *testing.T) {
	f := Frame(0, cmdOriginReturn, "1,0,0,0")
	assert.Equal(t, append([]byte("\x02\x20\x30\x201,0,0,0\x03"), "1D"...), f)

	f = Frame(2, cmdPositions, "")
	assert.Equal(t, []byte{0x02, 0x22, 0x40, 0x20, 0x03, '4', '2'}, f)
}

func TestSetCommandsWaitForACK(t *testing.T) {
	c, sim, port, rec := newTestController(t)

	require.NoError(t, c.OriginReturn(0, 1))
	require.NoError(t, c.AbsoluteMove(0, map[int]float64{1: 12.5, 3: -1}))
	require.NoError(t, c.SetVelocity(0, map[int]float64{4: 100}))
	require.NoError(t, c.ImmediateStop(0, 1, 2, 3, 4))
	require.NoError(t, c.DecelerateStop(0, 2))

	assert.Equal(t, []string{"1,0,0,0", "12.500,,-1.000,", ",,,100.000", "1,1,1,1", "0,1,0,0"}, sim.received)
	assert.Equal(t, Frame(0, cmdOriginReturn, "1,0,0,0"), port.Written()[0])
	assert.Equal(t, []time.Duration{DefaultSettle, DefaultSettle, DefaultSettle, DefaultSettle, DefaultSettle}, rec.calls)
}

func TestAxisValidation(t *testing.T) {
	c, _, port, _ := newTestController(t)

	assert.ErrorIs(t, c.OriginReturn(0, 5), fault.ErrValidation)
	assert.ErrorIs(t, c.AbsoluteMove(0, map[int]float64{0: 1}), fault.ErrValidation)
	assert.ErrorIs(t, c.ImmediateStop(16, 1), fault.ErrValidation)
	assert.ErrorIs(t, c.SetDigitalOutput(0, 32, true), fault.ErrValidation)
	assert.Empty(t, port.Written())
}

func TestQueries(t *testing.T) {
	c, _, _, _ := newTestController(t)

	pos, err := c.Positions(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -2.5, 0, 0}, pos)

	st, err := c.ControlStatus(0)
	require.NoError(t, err)
	assert.Equal(t, Flags{Code: "05", Set: []string{"READY", "ERROR"}}, st)

	axes, err := c.AxisStatus(0)
	require.NoError(t, err)
	require.Len(t, axes, 4)
	assert.Equal(t, []string{"positioning completed"}, axes[0].Set)
	assert.Equal(t, []string{"no error"}, axes[1].Set)
	assert.Equal(t, []string{"driving", "anomalous occurrence"}, axes[2].Set)
	assert.Equal(t, []string{"alarm"}, axes[3].Set)

	sensors, err := c.SensorStatus(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"+limit", "in position"}, sensors[0].Set)

	ec, err := c.ErrorCode(0)
	require.NoError(t, err)
	assert.Equal(t, ErrorCode{Code: "07", Description: "limit error"}, ec)

	v, err := c.Version(0)
	require.NoError(t, err)
	assert.Equal(t, Version{Version: "1.02", Date: "2019-04-01"}, v)

	n, err := c.AxesCount(0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	outs, err := c.DigitalOutputs(0)
	require.NoError(t, err)
	require.Len(t, outs, 32)
	assert.True(t, outs[0])
	assert.True(t, outs[31])
	assert.False(t, outs[1])
}

func TestReadConfirmsWithFramedACK(t *testing.T) {
	c, sim, port, _ := newTestController(t)

	_, err := c.Positions(0)
	require.NoError(t, err)

	written := port.Written()
	require.Len(t, written, 2)
	assert.Equal(t, framing.STXFrame([]byte{framing.ACK}), written[1])
	assert.Equal(t, []byte{framing.ACK}, sim.confirms)
}

func TestChecksumMismatchSendsNAK(t *testing.T) {
	c, sim, port, _ := newTestController(t)
	sim.corrupt = true

	_, err := c.Positions(0)
	assert.ErrorIs(t, err, fault.ErrChecksum)

	written := port.Written()
	assert.Equal(t, framing.STXFrame([]byte{framing.NAK}), written[len(written)-1])
	assert.Equal(t, []byte{framing.NAK}, sim.confirms)
}

func TestMode(t *testing.T) {
	c, _, _, _ := newTestController(t)

	m, err := c.Mode(0)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, m)

	m, err = c.SetMode(0, ModeMonitor)
	require.NoError(t, err)
	assert.Equal(t, ModeMonitor, m)
	assert.Equal(t, "monitor", m.String())

	_, err = c.SetMode(0, Mode(9))
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestCallThroughRegistry(t *testing.T) {
	c, sim, _, _ := newTestController(t)

	_, err := c.Call("absolute_move_command", "0", "1", "-", "", "4")
	require.NoError(t, err)
	_, err = c.Call("OriginReturn", "0", "2", "3")
	require.NoError(t, err)
	pos, err := c.Call("current_positions_query")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -2.5, 0, 0}, pos)

	_, err = c.Call("SetMode", "0", "auto")
	require.NoError(t, err)
	_, err = c.Call("SetMode", "0", "fast")
	assert.ErrorIs(t, err, fault.ErrValidation)

	assert.Equal(t, []string{"1.000,,,4.000", "0,1,1,0", "", "4", ""}, sim.received)
}

func TestBadAcknowledge(t *testing.T) {
	tr := mocks.NewTransport(t)
	tr.On("Open", context.Background()).Return(nil)
	tr.On("SendRaw", Frame(0, cmdImmediateStop, "1,0,0,0")).Return(nil)
	tr.On("Receive", 1).Return([]byte{framing.NAK}, nil)

	c, err := New(context.Background(), tr, catalog.Default().MustLookup("cosmotechs-sp100"))
	require.NoError(t, err)

	err = c.ImmediateStop(0, 1)
	assert.ErrorIs(t, err, fault.ErrProtocol)
}

func TestBadSettleOption(t *testing.T) {
	m := catalog.Default().MustLookup("cosmotechs-sp100")
	m.Options["settle"] = "soon"
	_, err := New(context.Background(), mocks.NewTransport(t), m)
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}

func TestDecodeFlags(t *testing.T) {
	f, err := decodeFlags("8001", axisBits, "no error")
	require.NoError(t, err)
	assert.Equal(t, []string{"driving", "alarm"}, f.Set)

	_, err = decodeFlags("zz", axisBits, "")
	assert.Error(t, err)
	assert.False(t, bytes.Equal(Frame(0, cmdMode, "1"), Frame(1, cmdMode, "1")))
}
