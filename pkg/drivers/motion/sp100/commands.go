package sp100

import (
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
)

// Registry handlers take the unit number first. Axis sets follow as axis
// numbers; per-axis values follow in axis order with "" or "-" to skip.

func unitArg(args []string) (int, error) {
	return device.Args(args).Int(0, "unit", 0)
}

func valuesArg(args []string, name string) (map[int]float64, error) {
	out := make(map[int]float64)
	for i, s := range args[min(1, len(args)):] {
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			continue
		}
		v, err := scpi.ParseFloat(s)
		if err != nil {
			return nil, fault.Validation(name, s, "not a number")
		}
		out[i+1] = v
	}
	return out, nil
}

func (c *Controller) commands() []device.Command {
	axesCmd := func(name, desc string, f func(int, ...int) error) device.Command {
		return device.Command{Name: name, Description: desc, Handler: func(args ...string) (any, error) {
			unit, err := unitArg(args)
			if err != nil {
				return nil, err
			}
			axes, err := device.Args(args).Ints(1, "axis")
			if err != nil {
				return nil, err
			}
			return nil, f(unit, axes...)
		}}
	}
	valuesCmd := func(name, desc, arg string, f func(int, map[int]float64) error) device.Command {
		return device.Command{Name: name, Description: desc, Handler: func(args ...string) (any, error) {
			unit, err := unitArg(args)
			if err != nil {
				return nil, err
			}
			v, err := valuesArg(args, arg)
			if err != nil {
				return nil, err
			}
			return nil, f(unit, v)
		}}
	}
	queryCmd := func(name, desc string, f func(int) (any, error)) device.Command {
		return device.Command{Name: name, Description: desc, Handler: func(args ...string) (any, error) {
			unit, err := unitArg(args)
			if err != nil {
				return nil, err
			}
			return f(unit)
		}}
	}

	return []device.Command{
		axesCmd("OriginReturn", "Return axes to origin", c.OriginReturn),
		valuesCmd("AbsoluteMove", "Move axes to absolute positions", "position", c.AbsoluteMove),
		axesCmd("ImmediateStop", "Stop axes immediately", c.ImmediateStop),
		axesCmd("DecelerateStop", "Stop axes with deceleration", c.DecelerateStop),
		valuesCmd("SetVelocity", "Set axis velocities", "velocity", c.SetVelocity),
		queryCmd("DigitalOutputs", "Query digital outputs", func(u int) (any, error) { return c.DigitalOutputs(u) }),
		{Name: "SetDigitalOutput", Description: "Switch a digital output", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			unit, err := unitArg(args)
			if err != nil {
				return nil, err
			}
			port, err := a.Int(1, "port", -1)
			if err != nil {
				return nil, err
			}
			on, err := a.Bool(2, "output")
			if err != nil {
				return nil, err
			}
			return nil, c.SetDigitalOutput(unit, port, on)
		}},
		queryCmd("ControlStatus", "Query control status", func(u int) (any, error) { return c.ControlStatus(u) }),
		queryCmd("Positions", "Query current positions", func(u int) (any, error) { return c.Positions(u) }),
		queryCmd("AxisStatus", "Query axis status", func(u int) (any, error) { return c.AxisStatus(u) }),
		queryCmd("SensorStatus", "Query axis sensors", func(u int) (any, error) { return c.SensorStatus(u) }),
		queryCmd("ErrorCode", "Query error code", func(u int) (any, error) { return c.ErrorCode(u) }),
		queryCmd("Version", "Query firmware version", func(u int) (any, error) { return c.Version(u) }),
		queryCmd("AxesCount", "Query number of axes", func(u int) (any, error) { return c.AxesCount(u) }),
		queryCmd("Mode", "Query operating mode", func(u int) (any, error) { return c.Mode(u) }),
		{Name: "SetMode", Description: "Change operating mode", Handler: func(args ...string) (any, error) {
			unit, err := unitArg(args)
			if err != nil {
				return nil, err
			}
			m, err := ParseMode(device.Args(args).String(1, ""))
			if err != nil {
				return nil, fault.Validation("mode", device.Args(args).String(1, ""), err.Error())
			}
			return c.SetMode(unit, m)
		}},
	}
}
