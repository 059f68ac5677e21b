// Package azd drives the Oriental Motor AZD-AD stepping motor driver over
// Modbus RTU.
package azd

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Register addresses.
const (
	RegDirectOperation uint16 = 0x0058
	RegZeroReturn      uint16 = 0x007D
	RegAlarm           uint16 = 0x0080
	RegPosition        uint16 = 0x00CC
	RegAlarmReset      uint16 = 0x0180
	RegAlarmClear      uint16 = 0x0184
	RegSimulator       uint16 = 0x03FE
)

// Zero return input values.
const (
	zeroReturnStart uint16 = 0x0010
	zeroReturnEnd   uint16 = 0x0000
)

// DefaultZeroReturnHold is how long the zero return input stays on.
const DefaultZeroReturnHold = time.Second

// DirectOperation is one absolute positioning run.
type DirectOperation struct {
	// Location is the target position in steps.
	Location int32
	// Speed is the operating speed in Hz.
	Speed int32
	// Acceleration and Deceleration are rates in kHz/s scaled by 1000.
	Acceleration int32
	Deceleration int32
}

// DefaultDirectOperation returns the operation used when no values are
// given.
func DefaultDirectOperation() DirectOperation {
	return DirectOperation{Location: 11000, Speed: 80000, Acceleration: 1000000, Deceleration: 1000000}
}

// Fixed fields of a direct operation: data number, operation type
// (absolute), operating current (100.0 %) and trigger.
const (
	directDataNumber = 0
	directAbsolute   = 1
	directCurrent    = 1000
	directTrigger    = 1
)

func (op DirectOperation) encode() []byte {
	b := make([]byte, 0, 32)
	for _, v := range []int32{directDataNumber, directAbsolute, op.Location, op.Speed, op.Acceleration, op.Deceleration, directCurrent, directTrigger} {
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	}
	return b
}

// Controller is an AZD-AD driver.
type Controller struct {
	*device.Device

	slave byte
	hold  time.Duration
	sleep func(time.Duration)
}

// New opens a driver described by model over t. The model options
// "slave" (hex address, default 01) and "zero_return_hold" apply.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Controller, error) {
	if err := device.CheckFamily(model, catalog.FamilyAZD); err != nil {
		return nil, err
	}
	slave, err := strconv.ParseUint(model.Option("slave", "01"), 16, 8)
	if err != nil || slave == 0 || slave > 247 {
		return nil, fault.Configurationf("model "+model.Key, "slave address %q must be 01..F7", model.Option("slave", ""))
	}
	hold, err := time.ParseDuration(model.Option("zero_return_hold", DefaultZeroReturnHold.String()))
	if err != nil {
		return nil, fault.Configuration("model "+model.Key, fmt.Errorf("zero_return_hold: %w", err))
	}

	c := &Controller{slave: byte(slave), hold: hold, sleep: time.Sleep}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(c.commands()...))...)
	if err != nil {
		return nil, err
	}
	c.Device = d
	return c, nil
}

// Slave returns the Modbus slave address.
func (c *Controller) Slave() byte { return c.slave }

func (c *Controller) exchange(op string, fn byte, request []byte) ([]byte, error) {
	var data []byte
	err := c.Exchange(op, func(t transport.Transport) error {
		if err := t.SendRaw(request); err != nil {
			return err
		}
		var err error
		data, err = readResponse(t, c.slave, fn)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	return data, err
}

func (c *Controller) writeRegister(op string, address, value uint16) error {
	_, err := c.exchange(op, FuncWriteSingleRegister, WriteSingleRegisterRequest(c.slave, address, value))
	return err
}

func (c *Controller) writeUint32(op string, address uint16, value uint32) error {
	_, err := c.exchange(op, FuncWriteMultipleRegisters,
		WriteMultipleRegistersRequest(c.slave, address, binary.BigEndian.AppendUint32(nil, value)))
	return err
}

func (c *Controller) readUint32(op string, address uint16) (uint32, error) {
	data, err := c.exchange(op, FuncReadHoldingRegisters, ReadHoldingRegistersRequest(c.slave, address, 2))
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fault.Protocol(op, fmt.Errorf("want 4 data bytes, got %d", len(data)))
	}
	return binary.BigEndian.Uint32(data), nil
}

// pulse writes 0 then 1 to a two-register input, which the driver acts on
// at the rising edge.
func (c *Controller) pulse(op string, address uint16) error {
	if err := c.writeUint32(op, address, 0); err != nil {
		return err
	}
	return c.writeUint32(op, address, 1)
}

// ZeroReturn runs the return-to-home sequence.
func (c *Controller) ZeroReturn() error {
	if err := c.writeRegister("zero return", RegZeroReturn, zeroReturnStart); err != nil {
		return err
	}
	c.sleep(c.hold)
	return c.writeRegister("zero return", RegZeroReturn, zeroReturnEnd)
}

// Direct starts a direct positioning operation.
func (c *Controller) Direct(op DirectOperation) error {
	if op.Speed <= 0 || op.Acceleration <= 0 || op.Deceleration <= 0 {
		return fault.Validation("direct operation", op, "speed and rates must be positive")
	}
	_, err := c.exchange("direct operation", FuncWriteMultipleRegisters,
		WriteMultipleRegistersRequest(c.slave, RegDirectOperation, op.encode()))
	return err
}

// Position returns the detected position in steps.
func (c *Controller) Position() (int32, error) {
	v, err := c.readUint32("current position", RegPosition)
	return int32(v), err
}

// Alarm returns the present alarm code, 0 when none.
func (c *Controller) Alarm() (int, error) {
	v, err := c.readUint32("alarm", RegAlarm)
	return int(v), err
}

// AlarmReset resets the present alarm.
func (c *Controller) AlarmReset() error { return c.pulse("alarm reset", RegAlarmReset) }

// AlarmClear clears the alarm history.
func (c *Controller) AlarmClear() error { return c.pulse("alarm clear", RegAlarmClear) }

// SetSimulator switches the driver's operation simulation.
func (c *Controller) SetSimulator(on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return c.writeUint32("simulator", RegSimulator, v)
}

// Simulator reports whether operation simulation is on.
func (c *Controller) Simulator() (bool, error) {
	v, err := c.readUint32("simulator", RegSimulator)
	return v == 1, err
}

// Initialize leaves simulation, returns to home and resets and clears
// alarms.
func (c *Controller) Initialize() error {
	for _, step := range []func() error{
		func() error { return c.SetSimulator(false) },
		c.ZeroReturn,
		c.AlarmReset,
		c.AlarmClear,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) commands() []device.Command {
	noArgs := func(name, desc string, f func() error) device.Command {
		return device.Command{Name: name, Description: desc, Handler: func(...string) (any, error) { return nil, f() }}
	}
	return []device.Command{
		noArgs("Initialize", "Leave simulation, zero return, reset alarms", c.Initialize),
		noArgs("ZeroReturn", "Return to home", c.ZeroReturn),
		{Name: "Direct", Description: "Direct positioning (location speed acc dec)", Handler: func(args ...string) (any, error) {
			op := DefaultDirectOperation()
			a := device.Args(args)
			fields := []*int32{&op.Location, &op.Speed, &op.Acceleration, &op.Deceleration}
			names := []string{"location", "speed", "acceleration", "deceleration"}
			for i, p := range fields {
				v, err := a.Int(i, names[i], int(*p))
				if err != nil {
					return nil, err
				}
				*p = int32(v)
			}
			if a.Len() == 3 {
				op.Deceleration = op.Acceleration
			}
			return nil, c.Direct(op)
		}},
		{Name: "Position", Description: "Query current position [step]", Handler: func(...string) (any, error) {
			return c.Position()
		}},
		{Name: "Alarm", Description: "Query present alarm code", Handler: func(...string) (any, error) {
			return c.Alarm()
		}},
		noArgs("AlarmReset", "Reset present alarm", c.AlarmReset),
		noArgs("AlarmClear", "Clear alarm history", c.AlarmClear),
		{Name: "SetSimulator", Description: "Switch operation simulation", Handler: func(args ...string) (any, error) {
			on, err := device.Args(args).Bool(0, "simulator")
			if err != nil {
				return nil, err
			}
			return nil, c.SetSimulator(on)
		}},
		{Name: "Simulator", Description: "Query operation simulation", Handler: func(...string) (any, error) {
			return c.Simulator()
		}},
	}
}
