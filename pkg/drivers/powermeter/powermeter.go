// Package powermeter drives the Anritsu ML2437A power meter.
//
// The meter speaks its native mnemonic set ("O 1", "AVG A, RPT, 64")
// rather than SCPI; readings are returned in dBm.
package powermeter

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Resolution limits in decimal places.
const (
	MinResolution = 1
	MaxResolution = 3
)

// DefaultAverageCount is the count used when averaging is switched on.
const DefaultAverageCount = 60

// Sensors.
const (
	SensorA = "A"
	SensorB = "B"
)

// AverageMode is the averaging mode of a channel.
type AverageMode string

// Averaging modes as reported by STATUS.
const (
	AverageOff    AverageMode = "OFF"
	AverageAuto   AverageMode = "AUTO"
	AverageMoving AverageMode = "Moving"
	AverageRepeat AverageMode = "Repeat"
)

var averageModes = map[byte]AverageMode{'0': AverageOff, '1': AverageAuto, '2': AverageMoving, '3': AverageRepeat}

// statusField locates a channel's entries in the STATUS reply.
type statusField struct {
	mode       int
	countStart int
	countEnd   int
}

var statusFields = map[int]statusField{
	1: {mode: 17, countStart: 19, countEnd: 23},
	2: {mode: 18, countStart: 24, countEnd: 28},
}

// Meter is an ML2437A driver.
type Meter struct {
	*device.Device
}

// New opens a power meter described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Meter, error) {
	if err := device.CheckFamily(model, catalog.FamilyPowerMeter); err != nil {
		return nil, err
	}
	m := &Meter{}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(m.commands()...))...)
	if err != nil {
		return nil, err
	}
	m.Device = d
	return m, nil
}

func (m *Meter) checkChannel(ch int) error {
	if !m.Model().HasChannel(ch) {
		return fault.Validationf("channel", ch, "not available on %s", m.Model().Product)
	}
	return nil
}

func checkSensor(s string) (string, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if u != SensorA && u != SensorB {
		return "", fault.Validation("sensor", s, "must be A or B")
	}
	return u, nil
}

// Measure returns the power level of channel ch in dBm.
func (m *Meter) Measure(ch int) (float64, error) {
	if err := m.checkChannel(ch); err != nil {
		return 0, err
	}
	return m.QueryFloat(fmt.Sprintf("O %d", ch))
}

// Setup sets dBm units and the display resolution on channel ch.
func (m *Meter) Setup(ch, resolution int) error {
	if err := m.checkChannel(ch); err != nil {
		return err
	}
	if resolution < MinResolution || resolution > MaxResolution {
		return fault.Validationf("resolution", resolution, "must be within %d..%d", MinResolution, MaxResolution)
	}
	if err := m.Write(fmt.Sprintf("CHUNIT %d, DBM", ch)); err != nil {
		return err
	}
	return m.Write(fmt.Sprintf("CHRES %d, %d", ch, resolution))
}

// SetAverage switches repeat averaging of sensor on or off.
func (m *Meter) SetAverage(on bool, sensor string) error {
	s, err := checkSensor(sensor)
	if err != nil {
		return err
	}
	mode := "OFF"
	if on {
		mode = "RPT"
	}
	return m.Write(fmt.Sprintf("AVG %s, %s, %d", s, mode, DefaultAverageCount))
}

// SetAverageCount enables repeat averaging of sensor over count readings.
func (m *Meter) SetAverageCount(count int, sensor string) error {
	s, err := checkSensor(sensor)
	if err != nil {
		return err
	}
	if count < 1 {
		return fault.Validation("average count", count, "must be positive")
	}
	return m.Write(fmt.Sprintf("AVG %s, RPT, %d", s, count))
}

func (m *Meter) status(ch int) (string, statusField, error) {
	if err := m.checkChannel(ch); err != nil {
		return "", statusField{}, err
	}
	f, ok := statusFields[ch]
	if !ok {
		return "", f, fault.Validation("channel", ch, "must be 1 or 2")
	}
	reply, err := m.Query("STATUS")
	if err != nil {
		return "", f, err
	}
	if len(reply) < f.countEnd {
		return "", f, fault.Protocol("STATUS", fmt.Errorf("reply too short: %q", reply))
	}
	return reply, f, nil
}

// AverageMode returns the averaging mode of channel ch.
func (m *Meter) AverageMode(ch int) (AverageMode, error) {
	reply, f, err := m.status(ch)
	if err != nil {
		return "", err
	}
	mode, ok := averageModes[reply[f.mode]]
	if !ok {
		return "", fault.Protocol("STATUS", fmt.Errorf("unknown averaging mode %q", reply[f.mode]))
	}
	return mode, nil
}

// AverageCount returns the averaging count of channel ch.
func (m *Meter) AverageCount(ch int) (int, error) {
	reply, f, err := m.status(ch)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(reply[f.countStart:f.countEnd]))
	if err != nil {
		return 0, fault.Protocol("STATUS", err)
	}
	return n, nil
}

func (m *Meter) commands() []device.Command {
	chArg := func(args []string, i int) (int, error) { return device.Args(args).Int(i, "channel", 1) }
	return []device.Command{
		{Name: "Measure", Token: "O", Description: "Query input power level [dBm]", Handler: func(args ...string) (any, error) {
			ch, err := chArg(args, 0)
			if err != nil {
				return nil, err
			}
			return m.Measure(ch)
		}},
		{Name: "Setup", Token: "CHRES", Description: "Set dBm units and resolution", Handler: func(args ...string) (any, error) {
			ch, err := chArg(args, 0)
			if err != nil {
				return nil, err
			}
			res, err := device.Args(args).Int(1, "resolution", MaxResolution)
			if err != nil {
				return nil, err
			}
			return nil, m.Setup(ch, res)
		}},
		{Name: "SetAverage", Token: "AVG", Description: "Switch averaging on or off", Handler: func(args ...string) (any, error) {
			on, err := device.Args(args).Bool(0, "average")
			if err != nil {
				return nil, err
			}
			return nil, m.SetAverage(on, device.Args(args).String(1, SensorA))
		}},
		{Name: "SetAverageCount", Description: "Set averaging count", Handler: func(args ...string) (any, error) {
			n, err := device.Args(args).Int(0, "average count", 0)
			if err != nil {
				return nil, err
			}
			return nil, m.SetAverageCount(n, device.Args(args).String(1, SensorA))
		}},
		{Name: "AverageMode", Token: "STATUS", Description: "Query averaging mode", Handler: func(args ...string) (any, error) {
			ch, err := chArg(args, 0)
			if err != nil {
				return nil, err
			}
			return m.AverageMode(ch)
		}},
		{Name: "AverageCount", Description: "Query averaging count", Handler: func(args ...string) (any, error) {
			ch, err := chArg(args, 0)
			if err != nil {
				return nil, err
			}
			return m.AverageCount(ch)
		}},
	}
}
