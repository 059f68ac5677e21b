// Package gauge drives the Pfeiffer TPG 261 vacuum gauge controller.
//
// Every exchange is a two-step handshake: the mnemonic is sent and the
// controller acknowledges it with ACK (or NAK), then ENQ requests the
// data line.
package gauge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/framing"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// ErrNegativeAcknowledge is returned when the controller rejects a
// mnemonic.
var ErrNegativeAcknowledge = errors.New("negative acknowledge")

// Status is the measurement status reported with a pressure reading.
type Status int

// Measurement statuses.
const (
	StatusOK Status = iota
	StatusUnderrange
	StatusOverrange
	StatusSensorError
	StatusSensorOff
	StatusNoSensor
	StatusIdentificationError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "measurement data okay"
	case StatusUnderrange:
		return "underrange"
	case StatusOverrange:
		return "overrange"
	case StatusSensorError:
		return "sensor error"
	case StatusSensorOff:
		return "sensor off"
	case StatusNoSensor:
		return "no sensor"
	case StatusIdentificationError:
		return "identification error"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// StatusError is a reading whose status is not StatusOK. It matches
// fault.ErrProtocol.
type StatusError struct {
	Status   Status
	Pressure float64
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gauge reports %s (%d)", e.Status, int(e.Status))
}

// Is reports whether target is fault.ErrProtocol.
func (e *StatusError) Is(target error) bool { return target == fault.ErrProtocol }

// Unit is a pressure unit.
type Unit int

// Pressure units.
const (
	UnitBar Unit = iota
	UnitTorr
	UnitPascal
)

func (u Unit) String() string {
	switch u {
	case UnitBar:
		return "mbar"
	case UnitTorr:
		return "Torr"
	case UnitPascal:
		return "Pa"
	default:
		return fmt.Sprintf("unit %d", int(u))
	}
}

// ParseUnit accepts bar, mbar, torr, pa or the numeric code.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "bar", "mbar":
		return UnitBar, nil
	case "1", "torr":
		return UnitTorr, nil
	case "2", "pa", "pascal":
		return UnitPascal, nil
	}
	return 0, fault.Validation("pressure unit", s, "must be bar, torr or pa")
}

// SensorState is the on/off state of the gauge head.
type SensorState int

// Sensor states reported by SEN.
const (
	SensorFixed SensorState = iota // cannot be switched
	SensorOff
	SensorOn
)

func (s SensorState) String() string {
	switch s {
	case SensorFixed:
		return "cannot be turned on/off"
	case SensorOff:
		return "off"
	case SensorOn:
		return "on"
	default:
		return fmt.Sprintf("sensor state %d", int(s))
	}
}

// Error status words returned by ERR.
var errorWords = map[string]string{
	"1000": "controller error",
	"0100": "no hardware",
	"0010": "inadmissible parameter",
	"0001": "syntax error",
}

// TPG261 is a TPG 261 driver.
type TPG261 struct {
	*device.Device
}

// New opens a gauge controller described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*TPG261, error) {
	if err := device.CheckFamily(model, catalog.FamilyGauge); err != nil {
		return nil, err
	}
	g := &TPG261{}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(g.commands()...))...)
	if err != nil {
		return nil, err
	}
	g.Device = d
	return g, nil
}

// Request sends mnemonic, checks the acknowledgement and returns the data
// line requested with ENQ.
func (g *TPG261) Request(mnemonic string) (string, error) {
	var reply string
	err := g.Exchange(mnemonic, func(t transport.Transport) error {
		if err := t.Send(mnemonic); err != nil {
			return err
		}
		ack, err := t.ReadLine()
		if err != nil {
			return fmt.Errorf("%s: %w", mnemonic, err)
		}
		switch ack {
		case string(rune(framing.ACK)):
		case string(rune(framing.NAK)):
			return fault.Protocol(mnemonic, ErrNegativeAcknowledge)
		default:
			return fault.Protocol(mnemonic, fmt.Errorf("expected acknowledge, got %q", ack))
		}
		if err := t.SendRaw([]byte{framing.ENQ}); err != nil {
			return err
		}
		line, err := t.ReadLine()
		if err != nil {
			return fmt.Errorf("%s: %w", mnemonic, err)
		}
		reply = strings.TrimSpace(line)
		return nil
	})
	return reply, err
}

// Reading returns the status and pressure of gauge 1. A non-OK status is
// not an error here.
func (g *TPG261) Reading() (Status, float64, error) {
	reply, err := g.Request("PR1")
	if err != nil {
		return 0, 0, err
	}
	fields := scpi.Fields(reply)
	if len(fields) != 2 {
		return 0, 0, fault.Protocol("PR1", fmt.Errorf("malformed reading %q", reply))
	}
	st, err := scpi.ParseInt(fields[0])
	if err != nil {
		return 0, 0, fault.Protocol("PR1", err)
	}
	p, err := scpi.ParseFloat(fields[1])
	if err != nil {
		return 0, 0, fault.Protocol("PR1", err)
	}
	return Status(st), p, nil
}

// Pressure returns the pressure of gauge 1 in the current unit. A status
// other than StatusOK is returned as a *StatusError.
func (g *TPG261) Pressure() (float64, error) {
	st, p, err := g.Reading()
	if err != nil {
		return 0, err
	}
	if st != StatusOK {
		return 0, &StatusError{Status: st, Pressure: p}
	}
	return p, nil
}

// SetUnit selects the pressure unit.
func (g *TPG261) SetUnit(u Unit) error {
	if u < UnitBar || u > UnitPascal {
		return fault.Validation("pressure unit", int(u), "must be 0, 1 or 2")
	}
	reply, err := g.Request(fmt.Sprintf("UNI,%d", u))
	if err != nil {
		return err
	}
	if got, err := scpi.ParseInt(reply); err != nil || Unit(got) != u {
		return fault.Protocol("UNI", fmt.Errorf("unit not applied, controller reports %q", reply))
	}
	return nil
}

// Unit returns the pressure unit.
func (g *TPG261) Unit() (Unit, error) {
	reply, err := g.Request("UNI")
	if err != nil {
		return 0, err
	}
	n, err := scpi.ParseInt(reply)
	if err != nil {
		return 0, fault.Protocol("UNI", err)
	}
	return Unit(n), nil
}

func (g *TPG261) sensor(mnemonic string) (SensorState, error) {
	reply, err := g.Request(mnemonic)
	if err != nil {
		return 0, err
	}
	first, err := scpi.Field(reply, 0)
	if err != nil {
		return 0, fault.Protocol("SEN", err)
	}
	n, err := scpi.ParseInt(first)
	if err != nil {
		return 0, fault.Protocol("SEN", err)
	}
	return SensorState(n), nil
}

// SetSensor switches the gauge head on or off and returns its new state.
func (g *TPG261) SetSensor(on bool) (SensorState, error) {
	code := int(SensorOff)
	if on {
		code = int(SensorOn)
	}
	return g.sensor(fmt.Sprintf("SEN,%d,0", code))
}

// Sensor returns the state of the gauge head.
func (g *TPG261) Sensor() (SensorState, error) { return g.sensor("SEN,0,0") }

// ErrorStatus queries the controller error word. It returns nil when
// no error is pending.
func (g *TPG261) ErrorStatus() error {
	reply, err := g.Request("ERR")
	if err != nil {
		return err
	}
	if reply == "0000" {
		return nil
	}
	if msg, ok := errorWords[reply]; ok {
		return fault.Protocol("ERR", errors.New(msg))
	}
	return fault.Protocol("ERR", fmt.Errorf("error word %q", reply))
}

func (g *TPG261) commands() []device.Command {
	return []device.Command{
		{Name: "Pressure", Token: "PR1", Description: "Query pressure of gauge 1", Handler: func(...string) (any, error) {
			return g.Pressure()
		}},
		{Name: "SetUnit", Token: "UNI", Description: "Select pressure unit (bar, torr, pa)", Handler: func(args ...string) (any, error) {
			u, err := ParseUnit(device.Args(args).String(0, ""))
			if err != nil {
				return nil, err
			}
			return nil, g.SetUnit(u)
		}},
		{Name: "Unit", Description: "Query pressure unit", Handler: func(...string) (any, error) {
			return g.Unit()
		}},
		{Name: "SetSensor", Token: "SEN", Description: "Switch gauge head on or off", Handler: func(args ...string) (any, error) {
			on, err := device.Args(args).Bool(0, "sensor")
			if err != nil {
				return nil, err
			}
			return g.SetSensor(on)
		}},
		{Name: "Sensor", Description: "Query gauge head state", Handler: func(...string) (any, error) {
			return g.Sensor()
		}},
		{Name: "ErrorStatus", Token: "ERR", Description: "Query controller error word", Handler: func(...string) (any, error) {
			return nil, g.ErrorStatus()
		}},
	}
}
