// Package siggen drives CW signal generators such as the Agilent
// E8247C/E8257D and the Anritsu MG3692C.
package siggen

import (
	"context"
	"fmt"
	"slices"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Generator is a CW signal generator.
type Generator struct {
	*device.Device

	freqCmd string
}

// New opens a generator described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Generator, error) {
	if err := device.CheckFamily(model, catalog.FamilySigGen); err != nil {
		return nil, err
	}
	g := &Generator{freqCmd: model.Option("frequency_command", "FREQ")}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(g.commands()...))...)
	if err != nil {
		return nil, err
	}
	g.Device = d
	return g, nil
}

// SetFrequency sets the CW frequency, e.g. SetFrequency(1, "GHz") sends
// "FREQ 1.0000000000 GHz".
func (g *Generator) SetFrequency(v float64, unit string) error {
	hz, err := scpi.ToHz(v, unit)
	if err != nil {
		return err
	}
	if r, ok := g.Model().Limit(catalog.LimitFrequency); ok {
		if err := r.Check("frequency", hz); err != nil {
			return err
		}
	}
	arg, err := scpi.FormatFrequency(v, unit)
	if err != nil {
		return err
	}
	return g.WriteChecked(g.freqCmd + " " + arg)
}

// Frequency returns the CW frequency in Hz.
func (g *Generator) Frequency() (float64, error) {
	return g.QueryFloat(g.freqCmd + "?")
}

// SetPower sets the output level in dBm.
func (g *Generator) SetPower(dBm float64) error {
	if r, ok := g.Model().Limit(catalog.LimitPower); ok {
		if err := r.Check("power", dBm); err != nil {
			return err
		}
	}
	return g.WriteChecked(fmt.Sprintf("POW %f dBm", dBm))
}

// Power returns the output level in dBm.
func (g *Generator) Power() (float64, error) {
	return g.QueryFloat("POW?")
}

// SetOutput switches the RF output.
func (g *Generator) SetOutput(on bool) error {
	return g.WriteChecked("OUTP " + scpi.FormatOnOff(on))
}

// Output reports whether the RF output is on.
func (g *Generator) Output() (bool, error) {
	reply, err := g.Query("OUTP?")
	if err != nil {
		return false, err
	}
	on, err := scpi.ParseBool(reply)
	if err != nil {
		return false, fault.Protocol("OUTP?", err)
	}
	return on, nil
}

func (g *Generator) commands() []device.Command {
	return []device.Command{
		{Name: "SetFrequency", Token: g.freqCmd, Description: "Set CW frequency", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			v, err := a.Float(0, "frequency")
			if err != nil {
				return nil, err
			}
			return nil, g.SetFrequency(v, a.String(1, "GHz"))
		}},
		{Name: "Frequency", Token: g.freqCmd + "?", Description: "Query CW frequency [Hz]", Handler: func(...string) (any, error) {
			return g.Frequency()
		}},
		{Name: "SetPower", Token: "POW", Description: "Set output power [dBm]", Handler: func(args ...string) (any, error) {
			v, err := device.Args(args).Float(0, "power")
			if err != nil {
				return nil, err
			}
			return nil, g.SetPower(v)
		}},
		{Name: "Power", Token: "POW?", Description: "Query output power [dBm]", Handler: func(...string) (any, error) {
			return g.Power()
		}},
		{Name: "SetOutput", Token: "OUTP", Description: "Switch RF output on or off", Handler: func(args ...string) (any, error) {
			on, err := device.Args(args).Bool(0, "output")
			if err != nil {
				return nil, err
			}
			return nil, g.SetOutput(on)
		}},
		{Name: "Output", Token: "OUTP?", Description: "Query RF output state", Handler: func(...string) (any, error) {
			return g.Output()
		}},
	}
}
