package sp100

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/framing"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Unit and axis limits.
const (
	MinUnit = 0
	MaxUnit = 15
	MinAxis = 1
	MaxAxis = 4
)

// DefaultSettle is waited after every accepted set command.
const DefaultSettle = 100 * time.Millisecond

// maxReply bounds a reply frame.
const maxReply = 256

// Command codes.
var (
	cmdOriginReturn   = [2]byte{0x30, 0x20}
	cmdAbsoluteMove   = [2]byte{0x30, 0x22}
	cmdImmediateStop  = [2]byte{0x30, 0x24}
	cmdDecelerateStop = [2]byte{0x30, 0x25}
	cmdVelocity       = [2]byte{0x30, 0x26}
	cmdDigitalOutput  = [2]byte{0x30, 0x28}
	cmdControlStatus  = [2]byte{0x30, 0x2a}
	cmdPositions      = [2]byte{0x40, 0x20}
	cmdAxisStatus     = [2]byte{0x40, 0x21}
	cmdSensorStatus   = [2]byte{0x40, 0x23}
	cmdErrorCode      = [2]byte{0x40, 0x24}
	cmdVersion        = [2]byte{0x40, 0x25}
	cmdAxesCount      = [2]byte{0x40, 0x26}
	cmdMode           = [2]byte{0x50, 0x2c}
)

// Controller is an SP100 driver.
type Controller struct {
	*device.Device

	settle time.Duration
	sleep  func(time.Duration)
}

// New opens a controller described by model over t. The model option
// "settle" overrides DefaultSettle.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Controller, error) {
	if err := device.CheckFamily(model, catalog.FamilySP100); err != nil {
		return nil, err
	}
	settle, err := time.ParseDuration(model.Option("settle", DefaultSettle.String()))
	if err != nil {
		return nil, fault.Configuration("model "+model.Key, fmt.Errorf("settle: %w", err))
	}
	c := &Controller{settle: settle, sleep: time.Sleep}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(c.commands()...))...)
	if err != nil {
		return nil, err
	}
	c.Device = d
	return c, nil
}

// Frame builds the host message for unit, cmd and data.
func Frame(unit int, cmd [2]byte, data string) []byte {
	payload := make([]byte, 0, 3+len(data))
	payload = append(payload, byte(0x20+unit), cmd[0], cmd[1])
	payload = append(payload, data...)
	return framing.STXFrame(payload)
}

func checkUnit(unit int) error {
	if unit < MinUnit || unit > MaxUnit {
		return fault.Validationf("unit", unit, "must be within %d..%d", MinUnit, MaxUnit)
	}
	return nil
}

func checkAxis(axis int) error {
	if axis < MinAxis || axis > MaxAxis {
		return fault.Validationf("axis", axis, "must be within %d..%d", MinAxis, MaxAxis)
	}
	return nil
}

func expectACK(t transport.Transport, op string) error {
	b, err := transport.ReadFull(t, 1)
	if err != nil {
		return err
	}
	if b[0] != framing.ACK {
		return fault.Protocol(op, fmt.Errorf("bad response %q", b))
	}
	return nil
}

// set sends a command that carries no reply frame.
func (c *Controller) set(op string, unit int, cmd [2]byte, data string) error {
	if err := checkUnit(unit); err != nil {
		return err
	}
	return c.Exchange(op, func(t transport.Transport) error {
		if err := t.SendRaw(Frame(unit, cmd, data)); err != nil {
			return err
		}
		if err := expectACK(t, op); err != nil {
			return err
		}
		c.sleep(c.settle)
		return nil
	})
}

// read sends a query and returns the data field of the reply frame.
func (c *Controller) read(op string, unit int, cmd [2]byte) (string, error) {
	if err := checkUnit(unit); err != nil {
		return "", err
	}
	var data string
	err := c.Exchange(op, func(t transport.Transport) error {
		if err := t.SendRaw(Frame(unit, cmd, "")); err != nil {
			return err
		}
		if err := expectACK(t, op); err != nil {
			return err
		}

		line, err := readThroughETX(t, op)
		if err != nil {
			return err
		}
		bcc, err := transport.ReadFull(t, 2)
		if err != nil {
			return err
		}
		if err := framing.CheckBCC(op, line[1:len(line)-1], bcc); err != nil {
			if nerr := t.SendRaw(framing.STXFrame([]byte{framing.NAK})); nerr != nil {
				return fmt.Errorf("%w (sending NAK: %v)", err, nerr)
			}
			return err
		}
		if err := t.SendRaw(framing.STXFrame([]byte{framing.ACK})); err != nil {
			return err
		}
		data = string(line[4 : len(line)-1])
		return nil
	})
	return data, err
}

func readThroughETX(t transport.Transport, op string) ([]byte, error) {
	var line []byte
	for len(line) < maxReply {
		b, err := transport.ReadFull(t, 1)
		if err != nil {
			return nil, err
		}
		line = append(line, b[0])
		if b[0] == framing.ETX {
			break
		}
	}
	if len(line) < 5 || line[0] != framing.STX || line[len(line)-1] != framing.ETX {
		return nil, fault.Protocol(op, fmt.Errorf("malformed reply frame %q", line))
	}
	return line, nil
}

func axisFlags(axes []int) (string, error) {
	var sel [MaxAxis]int
	for _, a := range axes {
		if err := checkAxis(a); err != nil {
			return "", err
		}
		sel[a-1] = 1
	}
	return fmt.Sprintf("%d,%d,%d,%d", sel[0], sel[1], sel[2], sel[3]), nil
}

// axisValues renders per-axis values as "%.3f" fields; missing axes are
// empty fields.
func axisValues(values map[int]float64) (string, error) {
	for a := range values {
		if err := checkAxis(a); err != nil {
			return "", err
		}
	}
	var b strings.Builder
	for a := MinAxis; a <= MaxAxis; a++ {
		if v, ok := values[a]; ok {
			fmt.Fprintf(&b, "%.3f", v)
		}
		if a < MaxAxis {
			b.WriteByte(',')
		}
	}
	return b.String(), nil
}

// OriginReturn starts origin return on axes.
func (c *Controller) OriginReturn(unit int, axes ...int) error {
	data, err := axisFlags(axes)
	if err != nil {
		return err
	}
	return c.set("origin return", unit, cmdOriginReturn, data)
}

// AbsoluteMove drives axes to the given positions.
func (c *Controller) AbsoluteMove(unit int, positions map[int]float64) error {
	data, err := axisValues(positions)
	if err != nil {
		return err
	}
	return c.set("absolute move", unit, cmdAbsoluteMove, data)
}

// ImmediateStop stops axes without deceleration.
func (c *Controller) ImmediateStop(unit int, axes ...int) error {
	data, err := axisFlags(axes)
	if err != nil {
		return err
	}
	return c.set("immediate stop", unit, cmdImmediateStop, data)
}

// DecelerateStop stops axes with deceleration.
func (c *Controller) DecelerateStop(unit int, axes ...int) error {
	data, err := axisFlags(axes)
	if err != nil {
		return err
	}
	return c.set("decelerate stop", unit, cmdDecelerateStop, data)
}

// SetVelocity sets the drive velocity of axes.
func (c *Controller) SetVelocity(unit int, velocities map[int]float64) error {
	data, err := axisValues(velocities)
	if err != nil {
		return err
	}
	return c.set("velocity", unit, cmdVelocity, data)
}

// DigitalOutputs returns the 32 output ports, port 0 first.
func (c *Controller) DigitalOutputs(unit int) ([]bool, error) {
	d, err := c.read("digital output query", unit, cmdDigitalOutput)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseUint(d, 16, 32)
	if err != nil {
		return nil, fault.Protocol("digital output query", err)
	}
	out := make([]bool, 32)
	for i := range out {
		out[i] = v&(1<<i) != 0
	}
	return out, nil
}

// SetDigitalOutput switches one output port.
func (c *Controller) SetDigitalOutput(unit, port int, on bool) error {
	if port < 0 || port > 31 {
		return fault.Validation("port", port, "must be within 0..31")
	}
	st := 0
	if on {
		st = 1
	}
	return c.set("digital output", unit, cmdDigitalOutput, fmt.Sprintf("%d,%d", port, st))
}

// ControlStatus returns the controller status flags.
func (c *Controller) ControlStatus(unit int) (Flags, error) {
	d, err := c.read("control status", unit, cmdControlStatus)
	if err != nil {
		return Flags{}, err
	}
	f, err := decodeFlags(d, controlBits, "")
	if err != nil {
		return Flags{}, fault.Protocol("control status", err)
	}
	return f, nil
}

// Positions returns the current position of every axis.
func (c *Controller) Positions(unit int) ([]float64, error) {
	d, err := c.read("current positions", unit, cmdPositions)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(d, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fault.Protocol("current positions", err)
		}
		out[i] = v
	}
	return out, nil
}

func (c *Controller) flagsPerAxis(op string, unit int, cmd [2]byte, names []string) ([]Flags, error) {
	d, err := c.read(op, unit, cmd)
	if err != nil {
		return nil, err
	}
	var out []Flags
	for _, code := range strings.Split(d, ",") {
		f, err := decodeFlags(strings.TrimSpace(code), names, "no error")
		if err != nil {
			return nil, fault.Protocol(op, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// AxisStatus returns the status word of every axis.
func (c *Controller) AxisStatus(unit int) ([]Flags, error) {
	return c.flagsPerAxis("axis status", unit, cmdAxisStatus, axisBits)
}

// SensorStatus returns the sensor inputs of every axis.
func (c *Controller) SensorStatus(unit int) ([]Flags, error) {
	return c.flagsPerAxis("sensor status", unit, cmdSensorStatus, sensorBits)
}

// ErrorCode returns the controller error register.
func (c *Controller) ErrorCode(unit int) (ErrorCode, error) {
	d, err := c.read("error code", unit, cmdErrorCode)
	if err != nil {
		return ErrorCode{}, err
	}
	return decodeErrorCode(d), nil
}

// Version returns the firmware version.
func (c *Controller) Version(unit int) (Version, error) {
	d, err := c.read("version", unit, cmdVersion)
	if err != nil {
		return Version{}, err
	}
	f := strings.Split(d, ",")
	if len(f) != 4 {
		return Version{}, fault.Protocol("version", fmt.Errorf("malformed version %q", d))
	}
	return Version{Version: f[0], Date: f[1] + "-" + f[2] + "-" + f[3]}, nil
}

// AxesCount returns 2 or 4.
func (c *Controller) AxesCount(unit int) (int, error) {
	d, err := c.read("number of axes", unit, cmdAxesCount)
	if err != nil {
		return 0, err
	}
	switch d {
	case "0":
		return 2, nil
	case "1":
		return 4, nil
	}
	return 0, fault.Protocol("number of axes", fmt.Errorf("unknown code %q", d))
}

// Mode returns the operating mode.
func (c *Controller) Mode(unit int) (Mode, error) {
	d, err := c.read("mode", unit, cmdMode)
	if err != nil {
		return 0, err
	}
	m, err := ParseMode(d)
	if err != nil {
		return 0, fault.Protocol("mode", err)
	}
	return m, nil
}

// SetMode changes the operating mode and returns the mode reported
// afterwards.
func (c *Controller) SetMode(unit int, m Mode) (Mode, error) {
	if m < ModeParameter || m > ModeSave {
		return 0, fault.Validation("mode", int(m), "must be within 0..8")
	}
	if err := c.set("change mode", unit, cmdMode, strconv.Itoa(int(m))); err != nil {
		return 0, err
	}
	return c.Mode(unit)
}
