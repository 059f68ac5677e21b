// Package tempmon drives the Lakeshore model 218 temperature monitor.
package tempmon

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// AllChannels selects every input in reading queries.
const AllChannels = 0

// clockLayout is the DATETIME field order: month, day, two-digit year,
// hour, minute, second.
const clockLayout = "01,02,06,15,04,05"

// Filter is the input filter configuration.
type Filter struct {
	On bool
	// Points is the number of readings averaged, 2..64.
	Points int
	// Window is the reset threshold in percent of full scale, 1..10.
	Window int
}

// DefaultFilter returns the front panel defaults.
func DefaultFilter() Filter {
	return Filter{On: true, Points: 5, Window: 2}
}

func (f Filter) validate() error {
	if f.Points < 2 || f.Points > 64 {
		return fault.Validation("filter points", f.Points, "must be within 2..64")
	}
	if f.Window < 1 || f.Window > 10 {
		return fault.Validation("filter window", f.Window, "must be within 1..10")
	}
	return nil
}

// Monitor is a model 218 driver.
type Monitor struct {
	*device.Device
}

// New opens a temperature monitor described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Monitor, error) {
	if err := device.CheckFamily(model, catalog.FamilyTempMon); err != nil {
		return nil, err
	}
	m := &Monitor{}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(m.commands()...))...)
	if err != nil {
		return nil, err
	}
	m.Device = d
	return m, nil
}

func (m *Monitor) checkChannel(ch int) error {
	if !m.Model().HasChannel(ch) {
		return fault.Validationf("channel", ch, "not an input of %s", m.Model().Product)
	}
	return nil
}

func (m *Monitor) reading(cmd string, ch int) (float64, error) {
	if err := m.checkChannel(ch); err != nil {
		return 0, err
	}
	return m.QueryFloat(fmt.Sprintf("%s %d", cmd, ch))
}

func (m *Monitor) readingAll(cmd string) ([]float64, error) {
	q := fmt.Sprintf("%s %d", cmd, AllChannels)
	reply, err := m.Query(q)
	if err != nil {
		return nil, err
	}
	v, err := scpi.ParseFloats(reply)
	if err != nil {
		return nil, fault.Protocol(q, err)
	}
	if n := len(m.Model().Channels); n > 0 && len(v) != n {
		return nil, fault.Protocol(q, fmt.Errorf("got %d readings, want %d", len(v), n))
	}
	return v, nil
}

// Kelvin returns the reading of input ch in kelvin.
func (m *Monitor) Kelvin(ch int) (float64, error) { return m.reading("KRDG?", ch) }

// KelvinAll returns the readings of every input in kelvin.
func (m *Monitor) KelvinAll() ([]float64, error) { return m.readingAll("KRDG?") }

// Celsius returns the reading of input ch in degrees Celsius.
func (m *Monitor) Celsius(ch int) (float64, error) { return m.reading("CRDG?", ch) }

// CelsiusAll returns the readings of every input in degrees Celsius.
func (m *Monitor) CelsiusAll() ([]float64, error) { return m.readingAll("CRDG?") }

// SensorUnits returns the raw sensor reading of input ch.
func (m *Monitor) SensorUnits(ch int) (float64, error) { return m.reading("SRDG?", ch) }

// SetInput enables or disables input ch.
func (m *Monitor) SetInput(ch int, on bool) error {
	if err := m.checkChannel(ch); err != nil {
		return err
	}
	return m.Write(fmt.Sprintf("INPUT %d %s", ch, scpi.FormatBit(on)))
}

// Input reports whether input ch is enabled.
func (m *Monitor) Input(ch int) (bool, error) {
	if err := m.checkChannel(ch); err != nil {
		return false, err
	}
	n, err := m.QueryInt(fmt.Sprintf("INPUT? %d", ch))
	return n == 1, err
}

// SetFilter configures the reading filter of input ch.
func (m *Monitor) SetFilter(ch int, f Filter) error {
	if err := m.checkChannel(ch); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}
	return m.Write(fmt.Sprintf("FILTER %d, %s, %d, %d", ch, scpi.FormatBit(f.On), f.Points, f.Window))
}

// Filter returns the reading filter of input ch.
func (m *Monitor) Filter(ch int) (Filter, error) {
	if err := m.checkChannel(ch); err != nil {
		return Filter{}, err
	}
	q := fmt.Sprintf("FILTER? %d", ch)
	fields, err := m.QueryFields(q)
	if err != nil {
		return Filter{}, err
	}
	if len(fields) != 3 {
		return Filter{}, fault.Protocol(q, fmt.Errorf("want 3 fields, got %d", len(fields)))
	}
	var v [3]int
	for i, s := range fields {
		if v[i], err = scpi.ParseInt(s); err != nil {
			return Filter{}, fault.Protocol(q, err)
		}
	}
	return Filter{On: v[0] == 1, Points: v[1], Window: v[2]}, nil
}

// SetClock sets the instrument clock to t.
func (m *Monitor) SetClock(t time.Time) error {
	return m.Write("DATETIME " + t.Format(clockLayout))
}

// Clock returns the instrument clock, interpreted in loc.
func (m *Monitor) Clock(loc *time.Location) (time.Time, error) {
	reply, err := m.Query("DATETIME?")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(clockLayout, strings.Join(scpi.Fields(reply), ","), loc)
	if err != nil {
		return time.Time{}, fault.Protocol("DATETIME?", err)
	}
	return t, nil
}

// AlarmReset clears latched alarms.
func (m *Monitor) AlarmReset() error { return m.Write("ALMRST") }

func (m *Monitor) commands() []device.Command {
	readingCmd := func(name, token, desc string, one func(int) (float64, error), all func() ([]float64, error)) device.Command {
		return device.Command{Name: name, Token: token, Description: desc, Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "channel", AllChannels)
			if err != nil {
				return nil, err
			}
			if ch == AllChannels {
				return all()
			}
			return one(ch)
		}}
	}
	return []device.Command{
		readingCmd("Kelvin", "KRDG?", "Query kelvin reading (0 = all inputs)", m.Kelvin, m.KelvinAll),
		readingCmd("Celsius", "CRDG?", "Query celsius reading (0 = all inputs)", m.Celsius, m.CelsiusAll),
		{Name: "SensorUnits", Token: "SRDG?", Description: "Query sensor units reading", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "channel", 1)
			if err != nil {
				return nil, err
			}
			return m.SensorUnits(ch)
		}},
		{Name: "SetInput", Token: "INPUT", Description: "Enable or disable an input", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			ch, err := a.Int(0, "channel", 1)
			if err != nil {
				return nil, err
			}
			on, err := a.Bool(1, "input")
			if err != nil {
				return nil, err
			}
			return nil, m.SetInput(ch, on)
		}},
		{Name: "Input", Token: "INPUT?", Description: "Query input control", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "channel", 1)
			if err != nil {
				return nil, err
			}
			return m.Input(ch)
		}},
		{Name: "SetFilter", Token: "FILTER", Description: "Configure input filter", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			def := DefaultFilter()
			ch, err := a.Int(0, "channel", 1)
			if err != nil {
				return nil, err
			}
			on, err := a.Int(1, "filter", 1)
			if err != nil {
				return nil, err
			}
			points, err := a.Int(2, "filter points", def.Points)
			if err != nil {
				return nil, err
			}
			window, err := a.Int(3, "filter window", def.Window)
			if err != nil {
				return nil, err
			}
			return nil, m.SetFilter(ch, Filter{On: on == 1, Points: points, Window: window})
		}},
		{Name: "Filter", Token: "FILTER?", Description: "Query input filter", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "channel", 1)
			if err != nil {
				return nil, err
			}
			return m.Filter(ch)
		}},
		{Name: "SetClock", Token: "DATETIME", Description: "Set clock to current time", Handler: func(...string) (any, error) {
			return nil, m.SetClock(time.Now())
		}},
		{Name: "Clock", Token: "DATETIME?", Description: "Query clock", Handler: func(...string) (any, error) {
			return m.Clock(time.Local)
		}},
		{Name: "AlarmReset", Token: "ALMRST", Description: "Clear latched alarms", Handler: func(...string) (any, error) {
			return nil, m.AlarmReset()
		}},
	}
}
